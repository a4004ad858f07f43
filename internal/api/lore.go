package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noxistence/noxistence/internal/lore"
	"github.com/noxistence/noxistence/internal/models"
)

// loreForm extracts article fields and the optional thumbnail from a
// multipart form.
type loreForm struct {
	title      string
	content    string
	excerpt    string
	excerptSet bool
	author     string
	tags       []string
	tagsSet    bool
	thumbnail  []byte
}

func parseLoreForm(w http.ResponseWriter, r *http.Request) (loreForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return loreForm{}, false
	}

	var f loreForm
	f.title = r.FormValue("title")
	f.content = r.FormValue("content")
	f.author = r.FormValue("author")
	if vals, ok := r.MultipartForm.Value["excerpt"]; ok && len(vals) > 0 {
		f.excerpt = vals[0]
		f.excerptSet = true
	}
	if vals, ok := r.MultipartForm.Value["tags"]; ok {
		f.tags = vals
		f.tagsSet = true
	}

	if file, _, err := r.FormFile("thumbnail"); err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			writeError(w, http.StatusBadRequest, "failed to read thumbnail")
			return loreForm{}, false
		}
		f.thumbnail = data
	}
	return f, true
}

// ListArticles handles GET /api/lore.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.lore.List(r.Context())
	if err != nil {
		writeErr(w, err, "list articles")
		return
	}
	if articles == nil {
		articles = []models.Article{}
	}
	writeJSON(w, http.StatusOK, LoreDocument{Articles: articles})
}

// GetArticle handles GET /api/lore/{id}.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.lore.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, "get article")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// CreateArticle handles POST /api/lore: multipart thumbnail plus
// fields, title and content required.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	f, ok := parseLoreForm(w, r)
	if !ok {
		return
	}
	article, err := h.lore.Create(r.Context(), lore.Input{
		Title:     f.title,
		Content:   f.content,
		Excerpt:   f.excerpt,
		Author:    f.author,
		Tags:      f.tags,
		Thumbnail: f.thumbnail,
	})
	if err != nil {
		writeErr(w, err, "create article")
		return
	}
	h.publish("article.created", article.ID)
	writeJSON(w, http.StatusCreated, article)
}

// UpdateArticle handles PUT /api/lore/{id}: partial update, absent
// fields keep their stored values.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	f, ok := parseLoreForm(w, r)
	if !ok {
		return
	}
	in := lore.UpdateInput{
		Title:      f.title,
		Content:    f.content,
		Excerpt:    f.excerpt,
		ExcerptSet: f.excerptSet,
		Author:     f.author,
		Thumbnail:  f.thumbnail,
	}
	if f.tagsSet {
		in.Tags = f.tags
	}
	article, err := h.lore.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeErr(w, err, "update article")
		return
	}
	h.publish("article.updated", article.ID)
	writeJSON(w, http.StatusOK, article)
}

// DeleteArticle handles DELETE /api/lore/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lore.Delete(r.Context(), id); err != nil {
		writeErr(w, err, "delete article")
		return
	}
	h.publish("article.deleted", id)
	writeJSON(w, http.StatusOK, OpResponse{Success: true})
}
