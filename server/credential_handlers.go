package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"soundreview/core/auth"
	"soundreview/logger"
	"soundreview/model"

	"github.com/gorilla/mux"
)

// resolveCredentialTarget parses the {resource_type}/{uuid} path segments
// and locates the resource the credential operation targets.
func (h *APIHandler) resolveCredentialTarget(ctx context.Context, r *http.Request) (model.ResourceType, int64, error) {
	vars := mux.Vars(r)
	resourceType, err := model.ParseResourceType(vars["resource_type"])
	if err != nil {
		return "", 0, err
	}
	resourceID, err := h.locate(ctx, resourceType, vars["uuid"])
	if err != nil {
		return "", 0, err
	}
	return resourceType, resourceID, nil
}

// AdminListCredentialsHandler lists the credentials guarding a resource.
// Hashes are never included in the response.
func (h *APIHandler) AdminListCredentialsHandler(w http.ResponseWriter, r *http.Request) {
	resourceType, resourceID, err := h.resolveCredentialTarget(r.Context(), r)
	if err != nil {
		h.writeCredentialTargetError(w, err)
		return
	}

	creds, err := h.credRepo.CredentialsForResource(r.Context(), resourceType, resourceID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"credentials": creds})
}

// AdminCreateCredentialHandler adds a credential to a resource, turning it
// private if it wasn't already. The password is hashed before any row is
// written; a hashing failure writes nothing.
func (h *APIHandler) AdminCreateCredentialHandler(w http.ResponseWriter, r *http.Request) {
	resourceType, resourceID, err := h.resolveCredentialTarget(r.Context(), r)
	if err != nil {
		h.writeCredentialTargetError(w, err)
		return
	}

	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("Failed to hash credential password", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "Failed to process password")
		return
	}

	cred := &model.Credential{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Username:     req.Username,
		PasswordHash: hash,
	}
	id, err := h.credRepo.CreateCredential(r.Context(), cred)
	if err != nil {
		writeError(w, err)
		return
	}
	cred.ID = id

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Credential created",
		"credential": cred,
	})
}

// AdminDeleteCredentialHandler removes one credential from a resource. When
// the last credential is removed the resource becomes public again.
func (h *APIHandler) AdminDeleteCredentialHandler(w http.ResponseWriter, r *http.Request) {
	resourceType, resourceID, err := h.resolveCredentialTarget(r.Context(), r)
	if err != nil {
		h.writeCredentialTargetError(w, err)
		return
	}

	credentialID, err := strconv.ParseInt(mux.Vars(r)["credential_id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid credential id")
		return
	}

	if err := h.credRepo.DeleteCredential(r.Context(), credentialID, resourceType, resourceID); err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Credential deleted"})
}

// writeCredentialTargetError maps target resolution failures: an unknown
// resource type is a client error, everything else goes through the usual
// mapping.
func (h *APIHandler) writeCredentialTargetError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrInvalidResourceType) {
		respondError(w, http.StatusBadRequest, "Resource type must be track or playlist")
		return
	}
	writeError(w, err)
}
