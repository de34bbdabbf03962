package server

import (
	"context"
	"net/http"

	"soundreview/core/access"
	"soundreview/core/auth"
	"soundreview/model"

	"github.com/gorilla/mux"
)

const (
	adminRealm    = "Admin Area"
	resourceRealm = "Resource Access"
)

// decodeRequestCredentials extracts Basic credentials from the request, nil
// when none were presented.
func decodeRequestCredentials(r *http.Request) *auth.BasicCredentials {
	creds, ok := auth.DecodeBasic(r.Header.Get("Authorization"))
	if !ok {
		return nil
	}
	return &creds
}

// AdminMiddleware gates the admin API behind the fixed admin credential pair
// from configuration. It is the same guard as the per-resource gate with a
// different credential source.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	source := access.Fixed{{Username: h.cfg.AdminUsername, Secret: h.cfg.AdminPassword}}
	return func(w http.ResponseWriter, r *http.Request) {
		provided := decodeRequestCredentials(r)
		decision, _, err := access.Authorize(r.Context(), source, provided)
		if err != nil {
			writeError(w, err)
			return
		}
		switch decision {
		case access.Allow:
			next.ServeHTTP(w, r)
		case access.RequireAuth:
			challenge(w, adminRealm, false)
		default:
			challenge(w, adminRealm, true)
		}
	}
}

// ResourceAccessMiddleware is the locate → authorize → fetch pipeline for a
// public resource endpoint. The uuid is resolved before the guard runs, so a
// nonexistent resource is a 404 regardless of credentials; the full row is
// fetched only after the guard allows.
func (h *APIHandler) ResourceAccessMiddleware(resourceType model.ResourceType, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uuid := mux.Vars(r)["uuid"]

		resourceID, err := h.locate(r.Context(), resourceType, uuid)
		if err != nil {
			writeError(w, err)
			return
		}

		provided := decodeRequestCredentials(r)
		source := access.ForResource(h.credRepo, resourceType, resourceID)
		decision, username, err := access.Authorize(r.Context(), source, provided)
		if err != nil {
			// Fail closed: a credential lookup error never means "public".
			writeError(w, err)
			return
		}
		switch decision {
		case access.RequireAuth:
			challenge(w, resourceRealm, false)
			return
		case access.Reject:
			challenge(w, resourceRealm, true)
			return
		}

		ctx := context.WithValue(r.Context(), "resourceID", resourceID)
		if username != "" {
			ctx = context.WithValue(ctx, "authenticatedUser", username)
		}

		ctx, err = h.fetch(ctx, resourceType, uuid)
		if err != nil {
			writeError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// locate resolves a public uuid to the internal id for either resource kind.
func (h *APIHandler) locate(ctx context.Context, resourceType model.ResourceType, uuid string) (int64, error) {
	if resourceType == model.ResourcePlaylist {
		return h.playlistRepo.IDByUUID(ctx, uuid)
	}
	return h.trackRepo.IDByUUID(ctx, uuid)
}

// fetch loads the full resource row into the request context once the guard
// has allowed the request.
func (h *APIHandler) fetch(ctx context.Context, resourceType model.ResourceType, uuid string) (context.Context, error) {
	if resourceType == model.ResourcePlaylist {
		playlist, err := h.playlistRepo.PlaylistByUUID(ctx, uuid)
		if err != nil {
			return ctx, err
		}
		return context.WithValue(ctx, "playlist", playlist), nil
	}
	track, err := h.trackRepo.TrackByUUID(ctx, uuid)
	if err != nil {
		return ctx, err
	}
	return context.WithValue(ctx, "track", track), nil
}

// TrackFromContext returns the track fetched by the access middleware.
func TrackFromContext(ctx context.Context) (*model.Track, bool) {
	track, ok := ctx.Value("track").(*model.Track)
	return track, ok
}

// PlaylistFromContext returns the playlist fetched by the access middleware.
func PlaylistFromContext(ctx context.Context) (*model.Playlist, bool) {
	playlist, ok := ctx.Value("playlist").(*model.Playlist)
	return playlist, ok
}

// AuthenticatedUserFromContext returns the username bound by the guard, if
// the resource was gated.
func AuthenticatedUserFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value("authenticatedUser").(string)
	return username, ok
}
