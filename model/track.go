package model

import "time"

// Track represents an uploaded audio file. Filename is the opaque key of the
// audio object in the blob store; the server never interprets the bytes.
type Track struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Filename  string    `json:"filename"`
	Title     string    `json:"title"`
	Duration  *float64  `json:"duration"` // seconds, nil until known
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
