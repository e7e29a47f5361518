package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/civic-relay/internal/pkg/id"
)

// PhotoUploader stores a base64-encoded image and returns a fetchable URL.
type PhotoUploader interface {
	UploadBase64(ctx context.Context, key, b64Data string) (string, error)
}

// PhotoHandler handles complaint photo uploads.
type PhotoHandler struct {
	store PhotoUploader
}

func NewPhotoHandler(store PhotoUploader) *PhotoHandler {
	return &PhotoHandler{store: store}
}

func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		Data     string `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Data == "" {
		writeError(w, http.StatusBadRequest, "data required")
		return
	}
	if h.store == nil {
		writeError(w, http.StatusInternalServerError, "photo storage is not configured")
		return
	}

	ext := filepath.Ext(req.Filename)
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("complaints/%s%s", id.New(), ext)

	url, err := h.store.UploadBase64(r.Context(), key, req.Data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "photo upload failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"photo_url": url})
}
