package model

import "time"

// Credential is one (username, password hash) pair granting access to a
// single resource. A resource with zero credentials is public; with one or
// more, any single matching credential grants access.
type Credential struct {
	ID           int64        `json:"id"`
	ResourceType ResourceType `json:"resource_type"`
	ResourceID   int64        `json:"resource_id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"` // never exposed in API responses
	CreatedAt    time.Time    `json:"created_at"`
}
