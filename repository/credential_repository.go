package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"soundreview/logger"
	"soundreview/model"
)

// CredentialRepository defines the interface for per-resource credential
// operations. CredentialsForResource is the read side of the access guard; a
// storage error there must surface as an error, never as an empty set.
type CredentialRepository interface {
	CreateCredential(ctx context.Context, cred *model.Credential) (int64, error)
	CredentialsForResource(ctx context.Context, resourceType model.ResourceType, resourceID int64) ([]*model.Credential, error)
	DeleteCredential(ctx context.Context, id int64, resourceType model.ResourceType, resourceID int64) error
}

// mysqlCredentialRepository implements CredentialRepository for MySQL.
type mysqlCredentialRepository struct {
	db *sql.DB
}

// NewMySQLCredentialRepository creates a new mysqlCredentialRepository.
func NewMySQLCredentialRepository(db *sql.DB) CredentialRepository {
	return &mysqlCredentialRepository{db: db}
}

// CreateCredential adds a credential to a resource. The unique constraint on
// (username, resource_type, resource_id) surfaces as ErrDuplicateCredential.
func (r *mysqlCredentialRepository) CreateCredential(ctx context.Context, cred *model.Credential) (int64, error) {
	query := `INSERT INTO credentials (resource_type, resource_id, username, password_hash, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		string(cred.ResourceType), cred.ResourceID, cred.Username, cred.PasswordHash, time.Now())
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, fmt.Errorf("credential %q on %s %d: %w",
				cred.Username, cred.ResourceType, cred.ResourceID, ErrDuplicateCredential)
		}
		return 0, fmt.Errorf("failed to execute CreateCredential: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateCredential: %w", err)
	}
	logger.Info("Credential created",
		logger.Int64("credentialId", id),
		logger.String("resourceType", string(cred.ResourceType)),
		logger.Int64("resourceId", cred.ResourceID),
		logger.String("username", cred.Username))
	return id, nil
}

// CredentialsForResource loads every credential guarding the resource.
// Zero rows means the resource is public.
func (r *mysqlCredentialRepository) CredentialsForResource(ctx context.Context, resourceType model.ResourceType, resourceID int64) ([]*model.Credential, error) {
	query := `SELECT id, resource_type, resource_id, username, password_hash, created_at
	           FROM credentials WHERE resource_type = ? AND resource_id = ?`
	rows, err := r.db.QueryContext(ctx, query, string(resourceType), resourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query credentials for %s %d: %w", resourceType, resourceID, err)
	}
	defer rows.Close()

	creds := make([]*model.Credential, 0)
	for rows.Next() {
		cred := &model.Credential{}
		var rt string
		err := rows.Scan(&cred.ID, &rt, &cred.ResourceID, &cred.Username, &cred.PasswordHash, &cred.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credential row: %w", err)
		}
		cred.ResourceType = model.ResourceType(rt)
		creds = append(creds, cred)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during credentials iteration: %w", err)
	}

	return creds, nil
}

// DeleteCredential removes a single credential from a resource.
func (r *mysqlCredentialRepository) DeleteCredential(ctx context.Context, id int64, resourceType model.ResourceType, resourceID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE id = ? AND resource_type = ? AND resource_id = ?`,
		id, string(resourceType), resourceID)
	if err != nil {
		return fmt.Errorf("failed to delete credential %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	logger.Info("Credential deleted", logger.Int64("credentialId", id))
	return nil
}
