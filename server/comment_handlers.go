package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"soundreview/core/feed"
	"soundreview/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The widget may be embedded on any origin; access is already gated by
	// the resource middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ListCommentsHandler returns the flat comment list the widget groups
// client-side. include_closed defaults to true, matching the widget's own
// filtering; include_closed=false applies the engine's read-side filter.
func (h *APIHandler) ListCommentsHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	includeClosed := true
	if raw := r.URL.Query().Get("include_closed"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "include_closed must be a boolean")
			return
		}
		includeClosed = parsed
	}

	comments, err := h.threads.List(r.Context(), track.ID, includeClosed)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"comments": comments})
}

// CreateCommentHandler adds a root comment anchored at an audio position.
func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	var req struct {
		Timestamp float64 `json:"timestamp"`
		Username  string  `json:"username"`
		Content   string  `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.threads.CreateRoot(r.Context(), track.ID, req.Timestamp, req.Username, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("Comment created",
		logger.Int64("trackId", track.ID),
		logger.Int64("commentId", comment.ID),
		logger.Float64("timestamp", comment.Timestamp))
	h.feedHub.Broadcast(feed.Event{Type: "comment", TrackID: track.ID, Comment: comment})
	respondJSON(w, http.StatusCreated, map[string]interface{}{"comment": comment})
}

// CreateReplyHandler adds a reply under a root comment. Closed threads still
// accept replies; closing only disables the close action itself.
func (h *APIHandler) CreateReplyHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	parentID, err := strconv.ParseInt(mux.Vars(r)["comment_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	var req struct {
		Username string `json:"username"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	comment, err := h.threads.CreateReply(r.Context(), track.ID, parentID, req.Username, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	logger.Info("Reply created",
		logger.Int64("trackId", track.ID),
		logger.Int64("commentId", comment.ID),
		logger.Int64("parentId", parentID))
	h.feedHub.Broadcast(feed.Event{Type: "reply", TrackID: track.ID, Comment: comment})
	respondJSON(w, http.StatusCreated, map[string]interface{}{"comment": comment})
}

// CloseThreadHandler performs the one-way close transition on a root
// comment. A second close is a conflict, not a no-op.
func (h *APIHandler) CloseThreadHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	commentID, err := strconv.ParseInt(mux.Vars(r)["comment_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid comment id")
		return
	}

	if err := h.threads.CloseThread(r.Context(), commentID, track.ID); err != nil {
		writeError(w, err)
		return
	}

	logger.Info("Thread closed",
		logger.Int64("trackId", track.ID),
		logger.Int64("commentId", commentID))
	h.feedHub.Broadcast(feed.Event{Type: "close", TrackID: track.ID, CommentID: commentID})
	respondJSON(w, http.StatusOK, map[string]string{"message": "Thread closed"})
}

// CommentFeedHandler upgrades to a websocket and streams comment events for
// the track until the client disconnects.
func (h *APIHandler) CommentFeedHandler(w http.ResponseWriter, r *http.Request) {
	track, ok := TrackFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusInternalServerError, "Track not loaded")
		return
	}

	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Feed upgrade failed", logger.Int64("trackId", track.ID), logger.ErrorField(err))
		return
	}
	h.feedHub.Subscribe(track.ID, conn)
}
