package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"soundreview/logger"
	"soundreview/model"
)

// TrackRepository defines the interface for track data operations. IDByUUID
// doubles as the resource locator for tracks: a pure, single round trip
// lookup from public uuid to internal id.
type TrackRepository interface {
	CreateTrack(ctx context.Context, track *model.Track) (int64, error)
	TrackByUUID(ctx context.Context, uuid string) (*model.Track, error)
	IDByUUID(ctx context.Context, uuid string) (int64, error)
	AllTracks(ctx context.Context) ([]*model.Track, error)
	UpdateDuration(ctx context.Context, trackID int64, seconds float64) error
	DeleteTrack(ctx context.Context, trackID int64) error
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

// CreateTrack adds a new track to the database. A uuid collision surfaces as
// ErrDuplicateUUID so the caller can regenerate.
func (r *mysqlTrackRepository) CreateTrack(ctx context.Context, track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (uuid, filename, title, duration, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.db.ExecContext(ctx, query, track.UUID, track.Filename, track.Title, track.Duration, now, now)
	if err != nil {
		if isDuplicateEntry(err) {
			return 0, fmt.Errorf("insert track uuid %s: %w", track.UUID, ErrDuplicateUUID)
		}
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	logger.Info("Track created", logger.Int64("trackId", id), logger.String("title", track.Title))
	return id, nil
}

// TrackByUUID retrieves a full track row by its public uuid.
func (r *mysqlTrackRepository) TrackByUUID(ctx context.Context, uuid string) (*model.Track, error) {
	query := `SELECT id, uuid, filename, title, duration, created_at, updated_at
	           FROM tracks WHERE uuid = ?`
	row := r.db.QueryRowContext(ctx, query, uuid)

	track := &model.Track{}
	err := row.Scan(&track.ID, &track.UUID, &track.Filename, &track.Title, &track.Duration, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan track by uuid %s: %w", uuid, err)
	}
	return track, nil
}

// IDByUUID resolves a track uuid to its internal id.
func (r *mysqlTrackRepository) IDByUUID(ctx context.Context, uuid string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM tracks WHERE uuid = ?`, uuid).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to resolve track uuid %s: %w", uuid, err)
	}
	return id, nil
}

// AllTracks retrieves all tracks, newest first, for the admin listing.
func (r *mysqlTrackRepository) AllTracks(ctx context.Context) ([]*model.Track, error) {
	query := `SELECT id, uuid, filename, title, duration, created_at, updated_at
	           FROM tracks ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track := &model.Track{}
		err := rows.Scan(&track.ID, &track.UUID, &track.Filename, &track.Title, &track.Duration, &track.CreatedAt, &track.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in AllTracks: %w", err)
		}
		tracks = append(tracks, track)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in AllTracks: %w", err)
	}

	return tracks, nil
}

// UpdateDuration records the track duration once a client has decoded it.
func (r *mysqlTrackRepository) UpdateDuration(ctx context.Context, trackID int64, seconds float64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tracks SET duration = ?, updated_at = ? WHERE id = ?`,
		seconds, time.Now(), trackID)
	if err != nil {
		return fmt.Errorf("failed to update duration for track %d: %w", trackID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports changed rows, not matched rows, so rewriting the
		// stored duration looks identical to a missing track. Disambiguate
		// with a lookup.
		var id int64
		err := r.db.QueryRowContext(ctx, `SELECT id FROM tracks WHERE id = ?`, trackID).Scan(&id)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to check track %d after duration update: %w", trackID, err)
		}
	}
	return nil
}

// DeleteTrack removes a track and, in the same transaction, its credential
// rows. Comments and playlist memberships cascade via foreign keys.
func (r *mysqlTrackRepository) DeleteTrack(ctx context.Context, trackID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM credentials WHERE resource_type = ? AND resource_id = ?`,
		string(model.ResourceTrack), trackID); err != nil {
		return fmt.Errorf("failed to delete credentials for track %d: %w", trackID, err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to delete track %d: %w", trackID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of track %d: %w", trackID, err)
	}
	logger.Info("Track deleted", logger.Int64("trackId", trackID))
	return nil
}
