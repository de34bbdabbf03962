// Package thread owns comment creation, replies, the one-way close
// transition, and filtered listing. Comments are never edited or deleted;
// grouping into root+replies is a read-side transformation over parent_id.
package thread

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"soundreview/cache"
	"soundreview/model"
	"soundreview/repository"
)

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")

	// ErrAlreadyClosed is returned when closing a thread that is already
	// closed. A second close is a real failure, never a silent no-op.
	ErrAlreadyClosed = errors.New("thread already closed")
)

// Engine is the comment thread engine. The cache is optional; a nil cache
// degrades every read to the repository.
type Engine struct {
	repo  repository.CommentRepository
	cache *cache.CommentCache
}

// NewEngine creates an Engine over the given repository.
func NewEngine(repo repository.CommentRepository, c *cache.CommentCache) *Engine {
	return &Engine{repo: repo, cache: c}
}

// CreateRoot adds a root comment anchored at timestamp seconds. The engine
// does not bound the timestamp by track duration; it does not necessarily
// know it.
func (e *Engine) CreateRoot(ctx context.Context, trackID int64, timestamp float64, username, content string) (*model.Comment, error) {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) || timestamp < 0 {
		return nil, fmt.Errorf("timestamp must be a finite, non-negative number: %w", ErrValidation)
	}
	username = strings.TrimSpace(username)
	content = strings.TrimSpace(content)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", ErrValidation)
	}

	id, err := e.repo.InsertRoot(ctx, trackID, timestamp, username, content)
	if err != nil {
		return nil, err
	}
	e.cache.Invalidate(ctx, trackID)
	return e.repo.CommentByID(ctx, id)
}

// CreateReply adds a reply under a root comment of the same track. The
// reply's timestamp is a snapshot of the root's taken at insert time. A
// closed thread still accepts replies; closing only disables further closes.
func (e *Engine) CreateReply(ctx context.Context, trackID, parentID int64, username, content string) (*model.Comment, error) {
	username = strings.TrimSpace(username)
	content = strings.TrimSpace(content)
	if username == "" {
		return nil, fmt.Errorf("username is required: %w", ErrValidation)
	}
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", ErrValidation)
	}

	id, inserted, err := e.repo.InsertReply(ctx, trackID, parentID, username, content)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Distinguish an absent parent from a reply-to-reply attempt.
		parent, err := e.repo.CommentByID(ctx, parentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("parent comment %d: %w", parentID, repository.ErrNotFound)
			}
			return nil, err
		}
		if parent.TrackID != trackID {
			return nil, fmt.Errorf("parent comment %d is not on track %d: %w", parentID, trackID, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("replies cannot be nested beyond one level: %w", ErrValidation)
	}
	e.cache.Invalidate(ctx, trackID)
	return e.repo.CommentByID(ctx, id)
}

// CloseThread performs the one-way close transition on a root comment of the
// given track.
func (e *Engine) CloseThread(ctx context.Context, commentID, trackID int64) error {
	closed, err := e.repo.CloseRoot(ctx, commentID, trackID)
	if err != nil {
		return err
	}
	if closed {
		e.cache.Invalidate(ctx, trackID)
		return nil
	}

	// Zero rows affected: decide between absent target and double close.
	c, err := e.repo.CommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("comment %d: %w", commentID, repository.ErrNotFound)
		}
		return err
	}
	if c.TrackID != trackID || !c.IsRoot() {
		return fmt.Errorf("comment %d is not a root comment of track %d: %w", commentID, trackID, repository.ErrNotFound)
	}
	return fmt.Errorf("comment %d: %w", commentID, ErrAlreadyClosed)
}

// List returns the track's comments ordered by (timestamp, created_at)
// ascending. With includeClosed false, closed roots and their replies are
// dropped; replies of open roots always survive.
func (e *Engine) List(ctx context.Context, trackID int64, includeClosed bool) ([]*model.Comment, error) {
	comments, ok := e.cache.Get(ctx, trackID)
	if !ok {
		var err error
		comments, err = e.repo.CommentsByTrack(ctx, trackID)
		if err != nil {
			return nil, err
		}
		e.cache.Set(ctx, trackID, comments)
	}

	if includeClosed {
		return comments, nil
	}

	closedRoots := make(map[int64]bool)
	for _, c := range comments {
		if c.IsRoot() && c.IsClosed {
			closedRoots[c.ID] = true
		}
	}
	visible := make([]*model.Comment, 0, len(comments))
	for _, c := range comments {
		if c.IsRoot() && c.IsClosed {
			continue
		}
		if !c.IsRoot() && closedRoots[*c.ParentID] {
			continue
		}
		visible = append(visible, c)
	}
	return visible, nil
}

// Thread is a root comment with its replies, for display grouping.
type Thread struct {
	Root    *model.Comment   `json:"root"`
	Replies []*model.Comment `json:"replies"`
}

// Threads groups a flat ordered comment list into root+replies. Replies
// whose root is absent from the list are dropped.
func Threads(comments []*model.Comment) []Thread {
	threads := make([]Thread, 0)
	index := make(map[int64]int)
	for _, c := range comments {
		if c.IsRoot() {
			index[c.ID] = len(threads)
			threads = append(threads, Thread{Root: c, Replies: make([]*model.Comment, 0)})
		}
	}
	for _, c := range comments {
		if c.IsRoot() {
			continue
		}
		if i, ok := index[*c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}
