package repository

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a row the operation targets does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateCredential is returned when a credential with the same
	// username already exists for the resource.
	ErrDuplicateCredential = errors.New("credential username already exists for this resource")

	// ErrDuplicateTrack is returned when a track is already a member of the
	// playlist.
	ErrDuplicateTrack = errors.New("track already in playlist")

	// ErrDuplicateUUID is returned when a generated uuid collides with an
	// existing row; callers regenerate and retry.
	ErrDuplicateUUID = errors.New("uuid already exists")
)

// isDuplicateEntry reports whether err is a MySQL unique constraint
// violation (error 1062).
func isDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "unique constraint")
}
