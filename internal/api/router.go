package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AuthConfig carries the editor credential settings for the router.
type AuthConfig struct {
	Enabled bool
	User    string
	Pass    string
}

// NewRouter mounts all API routes. Read endpoints are public; mutating
// endpoints sit behind the editor basic-auth gate. sseHandler, if
// non-nil, is mounted at GET /api/events.
func NewRouter(h *Handler, auth AuthConfig, sseHandler http.Handler) chi.Router {
	guard := EditorAuth(auth.Enabled, auth.User, auth.Pass)

	r := chi.NewRouter()

	// Public catalog reads.
	r.Get("/creatures", h.ListCreatures)
	r.Get("/art", h.ListArt)

	// Editor-gated catalog mutations.
	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Post("/upload", h.Upload)
		r.Post("/upload-art", h.UploadArt)
		r.Put("/creatures/{id}", h.SaveCreature)
		r.Delete("/creatures/{id}", h.DeleteCreature)
		r.Delete("/art/{id}", h.DeleteArt)
	})

	r.Route("/api", func(r chi.Router) {
		// Lore reads are public, mutations gated.
		r.Get("/lore", h.ListArticles)
		r.Get("/lore/{id}", h.GetArticle)

		r.Group(func(r chi.Router) {
			r.Use(guard)
			r.Post("/lore", h.CreateArticle)
			r.Put("/lore/{id}", h.UpdateArticle)
			r.Delete("/lore/{id}", h.DeleteArticle)

			r.Post("/sign-upload", h.SignUpload)
			r.Post("/sync", h.Sync)
			r.Post("/cache/import", h.ImportCache)
			r.Put("/layout", h.PutLayout)
		})

		r.Get("/cache/export", h.ExportCache)
		r.Get("/cache/stats", h.CacheStats)
		r.Get("/layout", h.GetLayout)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
