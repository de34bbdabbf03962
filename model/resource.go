package model

import (
	"errors"
	"fmt"
)

// ErrInvalidResourceType is returned for a resource type outside the enum.
var ErrInvalidResourceType = errors.New("invalid resource type")

// ResourceType identifies which kind of entity a credential or lookup refers
// to. It is a closed enum; the storage table for each kind is resolved here
// rather than by runtime string keys.
type ResourceType string

const (
	ResourceTrack    ResourceType = "track"
	ResourcePlaylist ResourceType = "playlist"
)

// Table returns the storage table holding rows of this resource type.
func (t ResourceType) Table() (string, error) {
	switch t {
	case ResourceTrack:
		return "tracks", nil
	case ResourcePlaylist:
		return "playlists", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, string(t))
}

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	return t == ResourceTrack || t == ResourcePlaylist
}

// ParseResourceType converts a path segment into a ResourceType.
func ParseResourceType(s string) (ResourceType, error) {
	t := ResourceType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidResourceType, s)
	}
	return t, nil
}
