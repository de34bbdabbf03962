package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"soundreview/logger"
	"soundreview/model"

	"github.com/go-redis/redis/v8"
)

// commentCacheTTL bounds staleness if an invalidation is ever missed.
const commentCacheTTL = 10 * time.Minute

// CommentCache caches the full ordered comment list per track. It is purely
// advisory: every failure is logged and treated as a miss, while writes to
// the comment tables invalidate the key. A nil *CommentCache is valid and
// caches nothing.
type CommentCache struct {
	rdb *redis.Client
}

// NewCommentCache wraps a Redis client; a nil client yields a nil cache.
func NewCommentCache(rdb *redis.Client) *CommentCache {
	if rdb == nil {
		return nil
	}
	return &CommentCache{rdb: rdb}
}

// commentKey builds the Redis key for a track's comment list.
func commentKey(trackID int64) string {
	return fmt.Sprintf("comments:%d", trackID)
}

// Get returns the cached comment list for a track, if present.
func (c *CommentCache) Get(ctx context.Context, trackID int64) ([]*model.Comment, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, commentKey(trackID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("Comment cache read failed", logger.Int64("trackId", trackID), logger.ErrorField(err))
		}
		return nil, false
	}
	var comments []*model.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		logger.Warn("Comment cache entry corrupt, dropping", logger.Int64("trackId", trackID), logger.ErrorField(err))
		c.rdb.Del(ctx, commentKey(trackID))
		return nil, false
	}
	return comments, true
}

// Set stores the full comment list for a track.
func (c *CommentCache) Set(ctx context.Context, trackID int64, comments []*model.Comment) {
	if c == nil {
		return
	}
	data, err := json.Marshal(comments)
	if err != nil {
		logger.Warn("Failed to marshal comments for cache", logger.Int64("trackId", trackID), logger.ErrorField(err))
		return
	}
	if err := c.rdb.Set(ctx, commentKey(trackID), data, commentCacheTTL).Err(); err != nil {
		logger.Warn("Comment cache write failed", logger.Int64("trackId", trackID), logger.ErrorField(err))
	}
}

// Invalidate drops the cached list after any comment write on the track.
func (c *CommentCache) Invalidate(ctx context.Context, trackID int64) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, commentKey(trackID)).Err(); err != nil {
		logger.Warn("Comment cache invalidation failed", logger.Int64("trackId", trackID), logger.ErrorField(err))
	}
}
