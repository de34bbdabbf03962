package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"soundreview/logger"
	"soundreview/model"
	"soundreview/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// GetPlaylistHandler returns the playlist fetched by the access middleware
// with its tracks attached in position order.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, ok := PlaylistFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Playlist not loaded")
		return
	}

	tracks, err := h.playlistRepo.TracksForPlaylist(r.Context(), playlist.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	playlist.Tracks = tracks

	respondJSON(w, http.StatusOK, map[string]interface{}{"playlist": playlist})
}

// AdminListPlaylistsHandler lists every playlist, newest first.
func (h *APIHandler) AdminListPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.playlistRepo.AllPlaylists(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"playlists": playlists})
}

// AdminCreatePlaylistHandler creates an empty playlist.
func (h *APIHandler) AdminCreatePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(w, http.StatusBadRequest, "Title is required")
		return
	}

	playlist := &model.Playlist{UUID: uuid.NewString(), Title: req.Title}
	_, err := h.playlistRepo.CreatePlaylist(r.Context(), playlist)
	if errors.Is(err, repository.ErrDuplicateUUID) {
		playlist.UUID = uuid.NewString()
		_, err = h.playlistRepo.CreatePlaylist(r.Context(), playlist)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Playlist created successfully",
		"playlist": playlist,
	})
}

// AdminDeletePlaylistHandler deletes a playlist and its credentials and
// membership rows. Tracks and their comments are never touched.
func (h *APIHandler) AdminDeletePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := h.playlistRepo.IDByUUID(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.playlistRepo.DeletePlaylist(r.Context(), playlistID); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Playlist deleted"})
}

// AdminAddPlaylistTrackHandler appends a track to the end of a playlist.
func (h *APIHandler) AdminAddPlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	playlistID, err := h.playlistRepo.IDByUUID(r.Context(), mux.Vars(r)["uuid"])
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		TrackUUID string `json:"track_uuid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	trackID, err := h.trackRepo.IDByUUID(r.Context(), req.TrackUUID)
	if err != nil {
		writeError(w, err)
		return
	}

	membership, err := h.playlistRepo.AddTrack(r.Context(), playlistID, trackID)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("Track added to playlist",
		logger.Int64("playlistId", playlistID),
		logger.Int64("trackId", trackID),
		logger.Int("position", membership.Position))
	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Track added to playlist",
		"membership": membership,
	})
}

// AdminRemovePlaylistTrackHandler removes a track from a playlist.
func (h *APIHandler) AdminRemovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	playlistID, err := h.playlistRepo.IDByUUID(r.Context(), vars["uuid"])
	if err != nil {
		writeError(w, err)
		return
	}
	trackID, err := h.trackRepo.IDByUUID(r.Context(), vars["track_uuid"])
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.playlistRepo.RemoveTrack(r.Context(), playlistID, trackID); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Track removed from playlist"})
}

// AdminMovePlaylistTrackHandler changes a track's position in a playlist.
func (h *APIHandler) AdminMovePlaylistTrackHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	playlistID, err := h.playlistRepo.IDByUUID(r.Context(), vars["uuid"])
	if err != nil {
		writeError(w, err)
		return
	}
	trackID, err := h.trackRepo.IDByUUID(r.Context(), vars["track_uuid"])
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		Position *int `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Position == nil {
		respondError(w, http.StatusBadRequest, "Position is required")
		return
	}
	if *req.Position < 0 {
		respondError(w, http.StatusBadRequest, "Position must be non-negative")
		return
	}

	if err := h.playlistRepo.UpdateTrackPosition(r.Context(), playlistID, trackID, *req.Position); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Track position updated"})
}
