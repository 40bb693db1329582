package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all bridge routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events, the only route that
// also accepts the token as a query parameter.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	root := chi.NewRouter()
	if sseHandler != nil {
		root.With(EventStreamAuth(authEnabled, token)).Get("/events", sseHandler.ServeHTTP)
	}

	root.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authEnabled, token))

		r.Get("/state", h.State)

		// Notes.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes/refresh", h.Refresh)
		r.Post("/notes", h.CreateNote)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)
		r.Post("/notes/{id}/favorite", h.ToggleFavorite)
		r.Post("/notes/{id}/archive", h.ToggleArchive)

		// UI state.
		r.Route("/ui", func(r chi.Router) {
			r.Put("/search", h.SetSearch)
			r.Put("/category", h.SetCategory)
			r.Put("/view-mode", h.SetViewMode)
			r.Put("/creating", h.SetCreating)
			r.Put("/selection", h.SetSelection)
		})

		// Editor session.
		r.Route("/editor", func(r chi.Router) {
			r.Get("/", h.EditorView)
			r.Patch("/", h.EditorUpdate)
			r.Post("/new", h.EditorNew)
			r.Post("/open/{id}", h.EditorOpen)
			r.Post("/save", h.EditorSave)
			r.Post("/close", h.EditorClose)
			r.Post("/ai/analyze", h.EditorAnalyze)
			r.Post("/ai/enhance", h.EditorEnhance)
			r.Post("/ai/title", h.EditorTitle)
			r.Post("/ai/category", h.EditorApplyCategory)
		})

		// Stateless assists.
		r.Post("/ai/analyze", h.Analyze)
		r.Post("/ai/enhance", h.Enhance)
		r.Post("/ai/title", h.SuggestTitle)
	})

	return root
}
