package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"soundreview/logger"
	"soundreview/model"
	"soundreview/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

var allowedAudioExtensions = map[string]bool{
	".mp3": true,
	".wav": true,
	".ogg": true,
	".m4a": true,
}

// GetTrackHandler returns the track row fetched by the access middleware.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"track": track})
}

// TrackAudioHandler streams the track's audio bytes from the blob store.
// minio objects are seekable, so http.ServeContent handles Range requests
// from the waveform player.
func (h *APIHandler) TrackAudioHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	info, err := h.audioStore.Stat(r.Context(), track.Filename)
	if err != nil {
		logger.Error("Audio object missing",
			logger.String("uuid", track.UUID),
			logger.String("filename", track.Filename),
			logger.ErrorField(err))
		respondError(w, http.StatusNotFound, "Audio not found")
		return
	}

	object, err := h.audioStore.Get(r.Context(), track.Filename)
	if err != nil {
		writeError(w, err)
		return
	}
	defer object.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(track.Filename)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, track.Filename, info.LastModified, object)
}

// AdminListTracksHandler lists every track, newest first.
func (h *APIHandler) AdminListTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.AllTracks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

// AdminUploadTrackHandler accepts a multipart upload with an "audio" file
// field and a "title" field, stores the bytes in the blob store under a
// fresh uuid-based filename, and inserts the track row.
func (h *APIHandler) AdminUploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedAudioExtensions[ext] {
		respondError(w, http.StatusBadRequest, "Only audio files are allowed")
		return
	}

	id := uuid.NewString()
	filename := id + ext
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.audioStore.Put(r.Context(), filename, file, header.Size, contentType); err != nil {
		writeError(w, err)
		return
	}

	track := &model.Track{UUID: id, Filename: filename, Title: title}
	trackID, err := h.trackRepo.CreateTrack(r.Context(), track)
	if errors.Is(err, repository.ErrDuplicateUUID) {
		// A 128-bit collision is effectively impossible; regenerate once
		// rather than surfacing it to the uploader.
		track.UUID = uuid.NewString()
		trackID, err = h.trackRepo.CreateTrack(r.Context(), track)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	track.ID = trackID

	logger.Info("Track uploaded",
		logger.Int64("trackId", trackID),
		logger.String("uuid", track.UUID),
		logger.String("title", title))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Track uploaded successfully",
		"track":   track,
	})
}

// AdminDeleteTrackHandler deletes a track. Its comments, credentials, and
// playlist memberships go with it; the audio object is removed best-effort.
func (h *APIHandler) AdminDeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	track, err := h.trackRepo.TrackByUUID(r.Context(), uuid)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.trackRepo.DeleteTrack(r.Context(), track.ID); err != nil {
		writeError(w, err)
		return
	}

	if err := h.audioStore.Remove(r.Context(), track.Filename); err != nil {
		logger.Warn("Failed to remove audio object for deleted track",
			logger.String("filename", track.Filename), logger.ErrorField(err))
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Track deleted"})
}

// AdminSetTrackDurationHandler records the decoded duration of a track once
// a client has measured it.
func (h *APIHandler) AdminSetTrackDurationHandler(w http.ResponseWriter, r *http.Request) {
	uuid := mux.Vars(r)["uuid"]

	var req struct {
		Duration float64 `json:"duration"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if math.IsNaN(req.Duration) || math.IsInf(req.Duration, 0) || req.Duration < 0 {
		respondError(w, http.StatusBadRequest, "Duration must be a finite, non-negative number")
		return
	}

	trackID, err := h.trackRepo.IDByUUID(r.Context(), uuid)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.trackRepo.UpdateDuration(r.Context(), trackID, req.Duration); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Duration updated"})
}
