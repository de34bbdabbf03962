package model

import "time"

// Playlist is an ordered collection of tracks sharing the track's identity
// and credential semantics. The GORM tags serve the playlist repository; the
// core repositories use hand-written SQL against the same tables.
type Playlist struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID      string    `gorm:"column:uuid;uniqueIndex;size:36;not null" json:"uuid"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Tracks is populated on detail reads, ordered by membership position.
	Tracks []Track `gorm:"-" json:"tracks,omitempty"`
}

// TableName maps Playlist onto the shared playlists table.
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistTrack is one membership row. Position ordering is ascending and
// dense but gaps are tolerated; (playlist_id, track_id) is unique.
type PlaylistTrack struct {
	ID         int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID int64 `gorm:"column:playlist_id;not null;uniqueIndex:uq_playlist_track" json:"playlist_id"`
	TrackID    int64 `gorm:"column:track_id;not null;uniqueIndex:uq_playlist_track" json:"track_id"`
	Position   int   `gorm:"not null" json:"position"`
}

// TableName maps PlaylistTrack onto the shared playlist_tracks table.
func (PlaylistTrack) TableName() string {
	return "playlist_tracks"
}
