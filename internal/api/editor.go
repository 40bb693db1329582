package api

import (
	"net/http"

	"github.com/starford/noteai/internal/editor"
	"github.com/starford/noteai/internal/models"
)

// EditorView handles GET /editor.
func (h *Handler) EditorView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.View())
}

// EditorNew handles POST /editor/new.
func (h *Handler) EditorNew(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.editor.OpenNew())
}

// EditorOpen handles POST /editor/open/{id}.
func (h *Handler) EditorOpen(w http.ResponseWriter, r *http.Request) {
	v, err := h.editor.OpenNote(noteID(r))
	if err != nil {
		writeError(w, "open editor", err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// EditorUpdate handles PATCH /editor.
//
//	@Summary		Edit the draft
//	@Tags			editor
//	@Accept			json
//	@Produce		json
//	@Param			body	body		editor.DraftUpdate	true	"Draft fields to overwrite"
//	@Success		200		{object}	editor.View
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/editor [patch]
func (h *Handler) EditorUpdate(w http.ResponseWriter, r *http.Request) {
	var u editor.DraftUpdate
	if !decodeJSON(w, r, &u) {
		return
	}
	if err := h.editor.Update(u); err != nil {
		writeError(w, "update draft", err)
		return
	}
	writeJSON(w, http.StatusOK, h.editor.View())
}

// EditorSave handles POST /editor/save.
func (h *Handler) EditorSave(w http.ResponseWriter, r *http.Request) {
	n, err := h.editor.Save(r.Context())
	if err != nil {
		writeError(w, "save draft", err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// EditorClose handles POST /editor/close.
func (h *Handler) EditorClose(w http.ResponseWriter, _ *http.Request) {
	h.editor.Close()
	w.WriteHeader(http.StatusNoContent)
}

// EditorAnalyze handles POST /editor/ai/analyze.
func (h *Handler) EditorAnalyze(w http.ResponseWriter, r *http.Request) {
	a, err := h.editor.Analyze(r.Context())
	if err != nil {
		writeError(w, "analyze draft", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// EditorEnhance handles POST /editor/ai/enhance.
func (h *Handler) EditorEnhance(w http.ResponseWriter, r *http.Request) {
	out, err := h.editor.Enhance(r.Context())
	if err != nil {
		writeError(w, "enhance draft", err)
		return
	}
	writeJSON(w, http.StatusOK, EnhanceResponse{EnhancedContent: out})
}

// EditorTitle handles POST /editor/ai/title.
func (h *Handler) EditorTitle(w http.ResponseWriter, r *http.Request) {
	out, err := h.editor.SuggestTitle(r.Context())
	if err != nil {
		writeError(w, "suggest title", err)
		return
	}
	writeJSON(w, http.StatusOK, TitleResponse{SuggestedTitle: out})
}

// EditorApplyCategory handles POST /editor/ai/category.
func (h *Handler) EditorApplyCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.editor.ApplyCategory(models.Category(req.Category)); err != nil {
		writeError(w, "apply category", err)
		return
	}
	writeJSON(w, http.StatusOK, h.editor.View())
}
