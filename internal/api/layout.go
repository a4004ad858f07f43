package api

import (
	"net/http"

	"github.com/noxistence/noxistence/internal/editor"
)

// GetLayout handles GET /api/layout: returns the persisted layout
// snapshot, or the empty shape when none has been saved yet.
func (h *Handler) GetLayout(w http.ResponseWriter, _ *http.Request) {
	var l editor.Layout
	if !h.cache.LoadLayout(&l) {
		l = editor.Layout{Images: []editor.ImagePlacement{}, Texts: []editor.TextPlacement{}}
	}
	writeJSON(w, http.StatusOK, l)
}

// PutLayout handles PUT /api/layout: overwrites the snapshot wholesale,
// last-write-wins.
func (h *Handler) PutLayout(w http.ResponseWriter, r *http.Request) {
	var l editor.Layout
	if err := decodeJSON(r, &l); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := h.cache.SaveLayout(l); err != nil {
		writeErr(w, err, "save layout")
		return
	}
	h.publish("layout.saved", "")
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}
