package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noxistence/noxistence/internal/apperr"
	"github.com/noxistence/noxistence/internal/assetstore"
	"github.com/noxistence/noxistence/internal/cache"
	"github.com/noxistence/noxistence/internal/gallery"
	"github.com/noxistence/noxistence/internal/lore"
	"github.com/noxistence/noxistence/internal/models"
	"github.com/noxistence/noxistence/internal/sse"
	"github.com/noxistence/noxistence/internal/syncengine"
)

const maxUploadBytes = 50 << 20 // 50 MB

// Handler holds API route handlers.
type Handler struct {
	gallery    *gallery.Service
	lore       *lore.Service
	engine     *syncengine.Engine
	cache      *cache.Cache
	broker     *sse.Broker
	signSecret string
	now        func() time.Time
}

// NewHandler creates a new Handler. broker may be nil.
func NewHandler(g *gallery.Service, l *lore.Service, e *syncengine.Engine,
	c *cache.Cache, b *sse.Broker, signSecret string) *Handler {
	return &Handler{
		gallery: g, lore: l, engine: e, cache: c, broker: b,
		signSecret: signSecret,
		now:        time.Now,
	}
}

func (h *Handler) publish(eventType, id string) {
	if h.broker != nil {
		h.broker.PublishChange(eventType, id)
	}
}

// writeErr maps domain errors onto HTTP statuses.
func writeErr(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, apperr.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, apperr.ErrStoreUnavailable):
		slog.Error(op+" failed: store unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "asset store unavailable")
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// ListCreatures handles GET /creatures.
func (h *Handler) ListCreatures(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.List(r.Context(), models.KindCreature))
}

// ListArt handles GET /art.
func (h *Handler) ListArt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.gallery.List(r.Context(), models.KindArt))
}

// readImageFile extracts the multipart "image" field, enforcing an
// image content type.
func readImageFile(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid multipart")
		return nil, "", false
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return nil, "", false
	}
	ct := header.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") && !strings.HasSuffix(strings.ToLower(header.Filename), ".svg") {
		writeError(w, http.StatusBadRequest, "only images are allowed")
		return nil, "", false
	}
	return data, header.Filename, true
}

// Upload handles POST /upload: multipart image plus name/world fields.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := readImageFile(w, r)
	if !ok {
		return
	}
	rec, err := h.gallery.Upload(r.Context(), gallery.UploadInput{
		Kind:     models.KindCreature,
		Data:     data,
		Filename: filename,
		Name:     r.FormValue("name"),
		World:    r.FormValue("world"),
	})
	if err != nil {
		writeErr(w, err, "upload creature")
		return
	}
	h.publish("creature.created", rec.ID)
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:  true,
		Creature: &rec,
		Message:  "image uploaded and catalog updated",
	})
}

// UploadArt handles POST /upload-art.
func (h *Handler) UploadArt(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := readImageFile(w, r)
	if !ok {
		return
	}
	rec, err := h.gallery.Upload(r.Context(), gallery.UploadInput{
		Kind:     models.KindArt,
		Data:     data,
		Filename: filename,
		Name:     r.FormValue("name"),
	})
	if err != nil {
		writeErr(w, err, "upload art")
		return
	}
	h.publish("art.created", rec.ID)
	writeJSON(w, http.StatusOK, UploadResponse{
		Success: true,
		Art:     &rec,
		Message: "art image uploaded",
	})
}

// SaveCreature handles PUT /creatures/{id}: metadata edits on an
// existing record, or cataloguing a record whose image already lives in
// the store.
func (h *Handler) SaveCreature(w http.ResponseWriter, r *http.Request) {
	var rec models.Record
	if err := decodeJSON(r, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec.ID = chi.URLParam(r, "id")
	saved, err := h.gallery.Save(r.Context(), rec)
	if err != nil {
		writeErr(w, err, "save creature")
		return
	}
	h.publish("creature.saved", saved.ID)
	writeJSON(w, http.StatusOK, UploadResponse{
		Success:  true,
		Creature: &saved,
		Message:  "creature saved",
	})
}

// DeleteCreature handles DELETE /creatures/{id}. The remote asset
// delete is best-effort inside the service; a store failure never
// blocks the local removal.
func (h *Handler) DeleteCreature(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "creature.deleted")
}

// DeleteArt handles DELETE /art/{id}.
func (h *Handler) DeleteArt(w http.ResponseWriter, r *http.Request) {
	h.deleteRecord(w, r, "art.deleted")
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request, event string) {
	id := chi.URLParam(r, "id")
	if _, err := h.gallery.Delete(r.Context(), id); err != nil {
		writeErr(w, err, "delete record")
		return
	}
	h.publish(event, id)
	writeJSON(w, http.StatusOK, OpResponse{Success: true, Message: "deleted"})
}

// SignUpload handles POST /api/sign-upload: returns a time-bounded
// signed payload for a direct browser-to-store upload.
func (h *Handler) SignUpload(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required")
		return
	}
	if req.ResourceType == "" {
		req.ResourceType = "image"
	}
	signed := assetstore.SignUpload(req.Folder, req.ResourceType, req.PublicID, h.signSecret, h.now())
	writeJSON(w, http.StatusOK, signed)
}

// Sync handles POST /api/sync: runs a reconciliation pass and returns
// the report with the merged record set. Sync always reports a result,
// even in full-failure cases.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	report, merged := h.engine.Sync(r.Context())
	h.publish("catalog.synced", "")
	writeJSON(w, http.StatusOK, SyncResponse{Report: report, Creatures: merged})
}

// CacheStats handles GET /api/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cache.Stats())
}

// ExportCache handles GET /api/cache/export.
func (h *Handler) ExportCache(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition",
		`attachment; filename="noxistence-creatures-`+h.now().Format("2006-01-02")+`.json"`)
	if err := h.cache.ExportRecords(w); err != nil {
		slog.Error("cache export failed", slog.String("error", err.Error()))
	}
}

// ImportCache handles POST /api/cache/import. Invalid records are
// dropped; an import with zero valid records leaves the cache untouched
// and reports failure.
func (h *Handler) ImportCache(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	recs, err := h.cache.ImportRecords(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.publish("catalog.imported", "")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"imported": len(recs),
	})
}
