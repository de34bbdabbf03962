package model

import "time"

// Comment is a timestamped comment on a track. A root comment (ParentID nil)
// anchors a thread at an audio position; a reply carries a snapshot of its
// root's timestamp taken at insert time. The JSON field names match what the
// waveform widget consumes.
type Comment struct {
	ID        int64     `json:"id"`
	TrackID   int64     `json:"track_id"`
	ParentID  *int64    `json:"parent_id"`
	Timestamp float64   `json:"timestamp"` // audio position in seconds
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	IsClosed  bool      `json:"is_closed"`
	CreatedAt time.Time `json:"created_at"`
}

// IsRoot reports whether the comment anchors a thread.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}
