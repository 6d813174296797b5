// Package media serves post thumbnails and user photos out of MinIO.
package media

import (
	"context"
	"io"
	"log"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/volunteerhub/backend/internal/api"
)

const maxUploadBytes = 10 << 20 // 10 MiB

// Store defines the interface for object storage.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

// Handler holds media HTTP handlers.
type Handler struct {
	media Store
}

func NewHandler(media Store) *Handler {
	return &Handler{media: media}
}

// Upload accepts a multipart "file" field, stores it under a fresh
// UUID key and returns the key plus its serving path.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read file")
		return
	}

	key := uuid.New().String() + filepath.Ext(header.Filename)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.media.Upload(r.Context(), key, data, contentType); err != nil {
		log.Printf("media upload error: %v", err)
		api.Error(w, http.StatusInternalServerError, "failed to store file")
		return
	}

	api.WriteJSON(w, http.StatusCreated, map[string]string{
		"key": key,
		"url": "/api/uploads/" + key,
	})
}

// Download streams an object back to the caller.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, contentType, err := h.media.Download(r.Context(), key)
	if err != nil {
		api.Error(w, http.StatusNotFound, "file not found")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
