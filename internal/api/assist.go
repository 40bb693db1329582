package api

import "net/http"

// Analyze handles POST /ai/analyze.
//
//	@Summary		Analyze content without touching the editor
//	@Tags			ai
//	@Accept			json
//	@Produce		json
//	@Param			body	body		AssistRequest	true	"Content to analyze"
//	@Success		200		{object}	AnalyzeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		502		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/ai/analyze [post]
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	a, t, err := h.ai.Analyze(r.Context(), req.Content, req.Title)
	if err != nil {
		writeError(w, "analyze", err)
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeResponse{Analysis: a, Ticket: t})
}

// Enhance handles POST /ai/enhance.
func (h *Handler) Enhance(w http.ResponseWriter, r *http.Request) {
	var req AssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, t, err := h.ai.Enhance(r.Context(), req.Content)
	if err != nil {
		writeError(w, "enhance", err)
		return
	}
	writeJSON(w, http.StatusOK, EnhanceResponse{EnhancedContent: out, Ticket: &t})
}

// SuggestTitle handles POST /ai/title.
func (h *Handler) SuggestTitle(w http.ResponseWriter, r *http.Request) {
	var req AssistRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, t, err := h.ai.SuggestTitle(r.Context(), req.Content)
	if err != nil {
		writeError(w, "suggest title", err)
		return
	}
	writeJSON(w, http.StatusOK, TitleResponse{SuggestedTitle: out, Ticket: &t})
}
