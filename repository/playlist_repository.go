package repository

import (
	"context"
	"errors"
	"fmt"

	"soundreview/logger"
	"soundreview/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines playlist CRUD and ordered track membership.
// IDByUUID doubles as the resource locator for playlists.
type PlaylistRepository interface {
	CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error)
	PlaylistByUUID(ctx context.Context, uuid string) (*model.Playlist, error)
	IDByUUID(ctx context.Context, uuid string) (int64, error)
	AllPlaylists(ctx context.Context) ([]*model.Playlist, error)
	DeletePlaylist(ctx context.Context, playlistID int64) error
	AddTrack(ctx context.Context, playlistID, trackID int64) (*model.PlaylistTrack, error)
	RemoveTrack(ctx context.Context, playlistID, trackID int64) error
	UpdateTrackPosition(ctx context.Context, playlistID, trackID int64, position int) error
	TracksForPlaylist(ctx context.Context, playlistID int64) ([]model.Track, error)
}

// gormPlaylistRepository implements PlaylistRepository with GORM.
type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

// CreatePlaylist adds a new playlist. A uuid collision surfaces as
// ErrDuplicateUUID so the caller can regenerate.
func (r *gormPlaylistRepository) CreatePlaylist(ctx context.Context, playlist *model.Playlist) (int64, error) {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateEntry(err) {
			return 0, fmt.Errorf("insert playlist uuid %s: %w", playlist.UUID, ErrDuplicateUUID)
		}
		return 0, fmt.Errorf("failed to create playlist: %w", err)
	}
	logger.Info("Playlist created", logger.Int64("playlistId", playlist.ID), logger.String("title", playlist.Title))
	return playlist.ID, nil
}

// PlaylistByUUID retrieves a playlist row by its public uuid. Tracks are not
// attached here; callers load them with TracksForPlaylist when needed.
func (r *gormPlaylistRepository) PlaylistByUUID(ctx context.Context, uuid string) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&playlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query playlist by uuid %s: %w", uuid, err)
	}
	return &playlist, nil
}

// IDByUUID resolves a playlist uuid to its internal id.
func (r *gormPlaylistRepository) IDByUUID(ctx context.Context, uuid string) (int64, error) {
	var id int64
	err := r.db.WithContext(ctx).Model(&model.Playlist{}).Where("uuid = ?", uuid).
		Select("id").Take(&id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to resolve playlist uuid %s: %w", uuid, err)
	}
	return id, nil
}

// AllPlaylists retrieves all playlists, newest first, for the admin listing.
func (r *gormPlaylistRepository) AllPlaylists(ctx context.Context) ([]*model.Playlist, error) {
	playlists := make([]*model.Playlist, 0)
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&playlists).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	return playlists, nil
}

// DeletePlaylist removes a playlist and, in the same transaction, its
// credential rows. Membership rows cascade via the foreign key; tracks and
// their comments are never touched.
func (r *gormPlaylistRepository) DeletePlaylist(ctx context.Context, playlistID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM credentials WHERE resource_type = ? AND resource_id = ?`,
			string(model.ResourcePlaylist), playlistID).Error; err != nil {
			return fmt.Errorf("failed to delete credentials for playlist %d: %w", playlistID, err)
		}
		res := tx.Delete(&model.Playlist{}, playlistID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist %d: %w", playlistID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("Playlist deleted", logger.Int64("playlistId", playlistID))
	return nil
}

// AddTrack appends a track at the end of the playlist. The unique constraint
// on (playlist_id, track_id) surfaces as ErrDuplicateTrack.
func (r *gormPlaylistRepository) AddTrack(ctx context.Context, playlistID, trackID int64) (*model.PlaylistTrack, error) {
	var membership model.PlaylistTrack
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxPos int
		if err := tx.Model(&model.PlaylistTrack{}).Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(position), -1)").Scan(&maxPos).Error; err != nil {
			return fmt.Errorf("failed to find max position for playlist %d: %w", playlistID, err)
		}

		membership = model.PlaylistTrack{
			PlaylistID: playlistID,
			TrackID:    trackID,
			Position:   maxPos + 1,
		}
		if err := tx.Create(&membership).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateEntry(err) {
				return fmt.Errorf("track %d in playlist %d: %w", trackID, playlistID, ErrDuplicateTrack)
			}
			return fmt.Errorf("failed to add track %d to playlist %d: %w", trackID, playlistID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &membership, nil
}

// RemoveTrack removes a track from the playlist.
func (r *gormPlaylistRepository) RemoveTrack(ctx context.Context, playlistID, trackID int64) error {
	res := r.db.WithContext(ctx).
		Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
		Delete(&model.PlaylistTrack{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove track %d from playlist %d: %w", trackID, playlistID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTrackPosition moves a track within the playlist. Positions are
// ascending and need not stay contiguous.
func (r *gormPlaylistRepository) UpdateTrackPosition(ctx context.Context, playlistID, trackID int64, position int) error {
	res := r.db.WithContext(ctx).Model(&model.PlaylistTrack{}).
		Where("playlist_id = ? AND track_id = ?", playlistID, trackID).
		Update("position", position)
	if res.Error != nil {
		return fmt.Errorf("failed to update position of track %d in playlist %d: %w", trackID, playlistID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TracksForPlaylist loads the playlist's tracks ordered by position.
func (r *gormPlaylistRepository) TracksForPlaylist(ctx context.Context, playlistID int64) ([]model.Track, error) {
	tracks := make([]model.Track, 0)
	err := r.db.WithContext(ctx).
		Table("tracks").
		Select("tracks.id, tracks.uuid, tracks.filename, tracks.title, tracks.duration, tracks.created_at, tracks.updated_at").
		Joins("JOIN playlist_tracks pt ON pt.track_id = tracks.id").
		Where("pt.playlist_id = ?", playlistID).
		Order("pt.position ASC").
		Scan(&tracks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for playlist %d: %w", playlistID, err)
	}
	return tracks, nil
}
