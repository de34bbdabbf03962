package repository

import (
	"context"
	"database/sql"
	"fmt"

	"soundreview/model"
)

// CommentRepository defines the storage operations behind the comment thread
// engine. InsertReply and CloseRoot are single statements so the
// find-then-act races stay closed at the store.
type CommentRepository interface {
	InsertRoot(ctx context.Context, trackID int64, timestamp float64, username, content string) (int64, error)
	// InsertReply snapshots the parent's timestamp in the same statement.
	// It affects zero rows when the parent is absent, belongs to another
	// track, or is itself a reply.
	InsertReply(ctx context.Context, trackID, parentID int64, username, content string) (int64, bool, error)
	// CloseRoot flips is_closed on an open root comment of the track.
	// It affects zero rows when no such open root exists.
	CloseRoot(ctx context.Context, commentID, trackID int64) (bool, error)
	CommentByID(ctx context.Context, id int64) (*model.Comment, error)
	CommentsByTrack(ctx context.Context, trackID int64) ([]*model.Comment, error)
}

// mysqlCommentRepository implements CommentRepository for MySQL.
type mysqlCommentRepository struct {
	db *sql.DB
}

// NewMySQLCommentRepository creates a new mysqlCommentRepository.
func NewMySQLCommentRepository(db *sql.DB) CommentRepository {
	return &mysqlCommentRepository{db: db}
}

// InsertRoot adds a root comment anchored at the given audio position.
func (r *mysqlCommentRepository) InsertRoot(ctx context.Context, trackID int64, timestamp float64, username, content string) (int64, error) {
	query := `INSERT INTO comments (track_id, parent_id, timestamp, username, content, is_closed)
	           VALUES (?, NULL, ?, ?, ?, FALSE)`
	res, err := r.db.ExecContext(ctx, query, trackID, timestamp, username, content)
	if err != nil {
		return 0, fmt.Errorf("failed to insert root comment on track %d: %w", trackID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for root comment: %w", err)
	}
	return id, nil
}

// InsertReply inserts a reply whose timestamp is copied from the parent row
// in a single INSERT ... SELECT, so the snapshot cannot race a concurrent
// write. The boolean is false when the parent did not qualify.
func (r *mysqlCommentRepository) InsertReply(ctx context.Context, trackID, parentID int64, username, content string) (int64, bool, error) {
	query := `INSERT INTO comments (track_id, parent_id, timestamp, username, content, is_closed)
	           SELECT track_id, id, timestamp, ?, ?, FALSE
	           FROM comments
	           WHERE id = ? AND track_id = ? AND parent_id IS NULL`
	res, err := r.db.ExecContext(ctx, query, username, content, parentID, trackID)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert reply to comment %d: %w", parentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read rows affected for reply: %w", err)
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get last insert ID for reply: %w", err)
	}
	return id, true, nil
}

// CloseRoot performs the one-way close transition. The WHERE clause encodes
// every precondition, so a second close or a close on a reply affects zero
// rows and the caller decides between NotFound and Conflict.
func (r *mysqlCommentRepository) CloseRoot(ctx context.Context, commentID, trackID int64) (bool, error) {
	query := `UPDATE comments SET is_closed = TRUE
	           WHERE id = ? AND track_id = ? AND parent_id IS NULL AND is_closed = FALSE`
	res, err := r.db.ExecContext(ctx, query, commentID, trackID)
	if err != nil {
		return false, fmt.Errorf("failed to close comment %d: %w", commentID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected for close: %w", err)
	}
	return n > 0, nil
}

// CommentByID retrieves a single comment.
func (r *mysqlCommentRepository) CommentByID(ctx context.Context, id int64) (*model.Comment, error) {
	query := `SELECT id, track_id, parent_id, timestamp, username, content, is_closed, created_at
	           FROM comments WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	c := &model.Comment{}
	err := row.Scan(&c.ID, &c.TrackID, &c.ParentID, &c.Timestamp, &c.Username, &c.Content, &c.IsClosed, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan comment %d: %w", id, err)
	}
	return c, nil
}

// CommentsByTrack retrieves every comment for a track ordered by
// (timestamp, created_at, id) ascending.
func (r *mysqlCommentRepository) CommentsByTrack(ctx context.Context, trackID int64) ([]*model.Comment, error) {
	query := `SELECT id, track_id, parent_id, timestamp, username, content, is_closed, created_at
	           FROM comments WHERE track_id = ?
	           ORDER BY timestamp ASC, created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for track %d: %w", trackID, err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		c := &model.Comment{}
		err := rows.Scan(&c.ID, &c.TrackID, &c.ParentID, &c.Timestamp, &c.Username, &c.Content, &c.IsClosed, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment in CommentsByTrack: %w", err)
		}
		comments = append(comments, c)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during comments iteration: %w", err)
	}

	return comments, nil
}
