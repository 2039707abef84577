package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"runtime"
	"strconv"

	"github.com/gorilla/mux"

	"photo-pipeline/internal/gallery"
	"photo-pipeline/internal/logging"
	"photo-pipeline/internal/media"
	"photo-pipeline/internal/store"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// maxUploadBytes caps ingest request bodies.
const maxUploadBytes = 64 << 20

// Handlers serves the HTTP API over one gallery.
type Handlers struct {
	gallery *gallery.Gallery
}

// New creates the handler set.
func New(g *gallery.Gallery) *Handlers {
	return &Handlers{gallery: g}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("handlers: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// HealthCheck responds 200 for liveness probes.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetVersion reports build and runtime versions.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version":   Version,
		"goVersion": runtime.Version(),
	})
}

// GetStats returns the aggregate statistics snapshot.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.Stats())
}

// ListImages returns every stored identifier.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	ids, err := h.gallery.List()
	if err != nil {
		logging.Error("handlers: list images: %v", err)
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"images": ids, "count": len(ids)})
}

// IngestImage stores an uploaded image and pre-generates its renditions.
func (h *Handlers) IngestImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	if err := h.gallery.Ingest(id, data); err != nil {
		switch {
		case errors.Is(err, store.ErrInvalidID):
			writeError(w, http.StatusBadRequest, "invalid identifier")
		case errors.Is(err, media.ErrUnsupportedFormat):
			writeError(w, http.StatusUnsupportedMediaType, "unsupported image format")
		default:
			logging.Error("handlers: ingest %s: %v", id, err)
			writeError(w, http.StatusInternalServerError, "ingest failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetImage serves the full-resolution image as PNG.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	buf, err := h.gallery.Original(r.Context(), id)
	if err != nil {
		h.writeImageError(w, id, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, buf.ToImage()); err != nil {
		logging.Warn("handlers: encode image %s: %v", id, err)
	}
}

// GetThumbnail serves a rendition as PNG. Width and height default to the
// preview size; ?w= and ?h= override.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	width := queryInt(r, "w", 300)
	height := queryInt(r, "h", width)
	if width < 1 || height < 1 || width > 4096 || height > 4096 {
		writeError(w, http.StatusBadRequest, "invalid dimensions")
		return
	}

	buf, err := h.gallery.Thumbnail(r.Context(), id, width, height)
	if err != nil {
		h.writeImageError(w, id, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, buf.ToImage()); err != nil {
		logging.Warn("handlers: encode thumbnail %s: %v", id, err)
	}
}

// DeleteImage removes an image from the store and caches.
func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.gallery.Remove(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		logging.Error("handlers: delete %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// preloadRequest is the body of POST /api/preload.
type preloadRequest struct {
	IDs          []string `json:"ids"`
	CurrentIndex int      `json:"currentIndex"`
	Radius       int      `json:"radius"`
}

// Preload schedules cache warming around the viewer's position.
func (h *Handlers) Preload(w http.ResponseWriter, r *http.Request) {
	var req preloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// The warms outlive this request: net/http cancels r.Context() as soon
	// as the 202 is written, which would abort every scheduled load.
	scheduled := h.gallery.PreloadVisible(context.WithoutCancel(r.Context()), req.IDs, req.CurrentIndex, req.Radius)
	writeJSON(w, http.StatusAccepted, map[string]int{"scheduled": scheduled})
}

func (h *Handlers) writeImageError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid identifier")
	case errors.Is(err, media.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported image format")
	default:
		logging.Error("handlers: serve %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, "load failed")
	}
}

func queryInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
