package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"soundreview/config"
	"soundreview/core/feed"
	"soundreview/core/thread"
	"soundreview/logger"
	"soundreview/repository"
	"soundreview/storage"
)

// APIHandler handles all API requests.
type APIHandler struct {
	trackRepo    repository.TrackRepository
	playlistRepo repository.PlaylistRepository
	credRepo     repository.CredentialRepository
	threads      *thread.Engine
	audioStore   *storage.AudioStore
	feedHub      *feed.Hub
	cfg          *config.Config
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	trackRepo repository.TrackRepository,
	playlistRepo repository.PlaylistRepository,
	credRepo repository.CredentialRepository,
	threads *thread.Engine,
	audioStore *storage.AudioStore,
	feedHub *feed.Hub,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		trackRepo:    trackRepo,
		playlistRepo: playlistRepo,
		credRepo:     credRepo,
		threads:      threads,
		audioStore:   audioStore,
		feedHub:      feedHub,
		cfg:          cfg,
	}
}

// respondJSON writes a JSON response body with the given status.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response", logger.ErrorField(err))
	}
}

// respondError writes a JSON error body in the shape the widget expects.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// writeError maps typed failures onto HTTP statuses. Anything unrecognized
// is a storage failure and fails closed with a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, thread.ErrValidation):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, thread.ErrAlreadyClosed):
		respondError(w, http.StatusConflict, "Thread already closed")
	case errors.Is(err, repository.ErrDuplicateCredential):
		respondError(w, http.StatusConflict, "A credential with this username already exists for this resource")
	case errors.Is(err, repository.ErrDuplicateTrack):
		respondError(w, http.StatusConflict, "Track is already in this playlist")
	default:
		logger.Error("Request failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Database error")
	}
}

// challenge answers a gated request that lacked valid credentials.
func challenge(w http.ResponseWriter, realm string, authenticated bool) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
	if authenticated {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respondError(w, http.StatusUnauthorized, "Authentication required")
}
