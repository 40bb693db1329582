package api

import (
	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/models"
)

// SearchRequest is the body of PUT /ui/search.
type SearchRequest struct {
	Term string `json:"term" example:"meeting"`
}

// CategoryRequest is the body of PUT /ui/category and POST /editor/ai/category.
type CategoryRequest struct {
	Category string `json:"category" example:"work" validate:"required"`
}

// ViewModeRequest is the body of PUT /ui/view-mode.
type ViewModeRequest struct {
	Mode models.ViewMode `json:"mode" example:"grid" validate:"required"`
}

// CreatingRequest is the body of PUT /ui/creating.
type CreatingRequest struct {
	Creating bool `json:"creating"`
}

// SelectionRequest is the body of PUT /ui/selection. A null id clears the
// selection.
type SelectionRequest struct {
	ID *models.NoteID `json:"id"`
}

// AssistRequest is the body of the stateless /ai endpoints.
type AssistRequest struct {
	Content string `json:"content" validate:"required"`
	Title   string `json:"title,omitempty"`
}

// AnalyzeResponse is returned by POST /ai/analyze.
type AnalyzeResponse struct {
	Analysis models.Analysis `json:"analysis"`
	Ticket   assist.Ticket   `json:"ticket"`
}

// EnhanceResponse is returned by POST /ai/enhance and POST /editor/ai/enhance.
type EnhanceResponse struct {
	EnhancedContent string         `json:"enhanced_content"`
	Ticket          *assist.Ticket `json:"ticket,omitempty"`
}

// TitleResponse is returned by POST /ai/title and POST /editor/ai/title.
type TitleResponse struct {
	SuggestedTitle string         `json:"suggested_title"`
	Ticket         *assist.Ticket `json:"ticket,omitempty"`
}

// NotesResponse wraps a note listing.
type NotesResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42"`
}
