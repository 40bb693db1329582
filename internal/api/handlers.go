package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/editor"
	"github.com/starford/noteai/internal/filter"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/mutation"
	"github.com/starford/noteai/internal/notestate"
)

// Handler holds bridge route handlers.
type Handler struct {
	store  *notestate.Store
	notes  *mutation.Coordinator
	ai     *assist.Coordinator
	editor *editor.Session
}

// NewHandler creates a new Handler.
func NewHandler(store *notestate.Store, notes *mutation.Coordinator, ai *assist.Coordinator, ed *editor.Session) *Handler {
	return &Handler{store: store, notes: notes, ai: ai, editor: ed}
}

func noteID(r *http.Request) models.NoteID {
	return models.NoteID(chi.URLParam(r, "id"))
}

// State handles GET /state.
//
//	@Summary		Client state with derived values
//	@Tags			state
//	@Produce		json
//	@Success		200	{object}	notestate.Snapshot
//	@Security		BearerAuth
//	@Router			/state [get]
func (h *Handler) State(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// ListNotes handles GET /notes. Without query parameters it returns the
// notes visible under the current search and category; q and category
// filter the full list without touching client state.
//
//	@Summary		List notes
//	@Tags			notes
//	@Produce		json
//	@Param			q			query		string	false	"Search term"
//	@Param			category	query		string	false	"Category filter"
//	@Success		200			{object}	NotesResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var notes []models.Note
	if q.Has("q") || q.Has("category") {
		cat := models.CategoryFilter(q.Get("category"))
		if cat == "" {
			cat = models.FilterAll
		}
		if !cat.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody("unknown category filter"))
			return
		}
		notes = filter.Apply(h.store.Notes(), q.Get("q"), cat)
	} else {
		notes = h.store.FilteredNotes()
	}
	if notes == nil {
		notes = []models.Note{}
	}
	writeJSON(w, http.StatusOK, NotesResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /notes/{id}.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	n, ok := h.store.Note(noteID(r))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// Refresh handles POST /notes/refresh.
//
//	@Summary		Reload notes from the remote store
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	notestate.Snapshot
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.Refresh(r.Context()); err != nil {
		writeError(w, "refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// CreateNote handles POST /notes.
//
//	@Summary		Create a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Draft	true	"Note to create"
//	@Success		201		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var d models.Draft
	if !decodeJSON(w, r, &d) {
		return
	}
	n, err := h.notes.CreateNote(r.Context(), d)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// UpdateNote handles PUT /notes/{id}.
//
//	@Summary		Update fields of a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Note id"
//	@Param			body	body		models.NotePatch	true	"Fields to change"
//	@Success		200		{object}	models.Note
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var p models.NotePatch
	if !decodeJSON(w, r, &p) {
		return
	}
	if p.Empty() {
		writeJSON(w, http.StatusBadRequest, errorBody("no fields to update"))
		return
	}
	n, err := h.notes.UpdateNote(r.Context(), noteID(r), p)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	string	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.notes.DeleteNote(r.Context(), noteID(r)); err != nil {
		writeError(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleFavorite handles POST /notes/{id}/favorite.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.ToggleFavorite(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "toggle favorite", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// ToggleArchive handles POST /notes/{id}/archive.
func (h *Handler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	n, err := h.notes.ToggleArchive(r.Context(), noteID(r))
	if err != nil {
		writeError(w, "toggle archive", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// SetSearch handles PUT /ui/search.
func (h *Handler) SetSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.store.SetSearchTerm(req.Term)
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetCategory handles PUT /ui/category.
func (h *Handler) SetCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SelectCategory(models.CategoryFilter(req.Category)); err != nil {
		writeError(w, "select category", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetViewMode handles PUT /ui/view-mode.
func (h *Handler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	var req ViewModeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.store.SetViewMode(req.Mode); err != nil {
		writeError(w, "set view mode", err)
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetCreating handles PUT /ui/creating.
func (h *Handler) SetCreating(w http.ResponseWriter, r *http.Request) {
	var req CreatingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	h.store.SetIsCreating(req.Creating)
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SetSelection handles PUT /ui/selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == nil || *req.ID == "" {
		h.store.SelectNote(nil)
		writeJSON(w, http.StatusOK, h.store.Snapshot())
		return
	}
	n, ok := h.store.Note(*req.ID)
	if !ok {
		writeError(w, "select note", apperr.ErrNotFound)
		return
	}
	h.store.SelectNote(&n)
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}
