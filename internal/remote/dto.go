package remote

import (
	"fmt"
	"time"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/models"
)

// wireNote mirrors the remote note shape. Pointers distinguish a missing
// field from a zero value.
type wireNote struct {
	ID         *models.NoteID `json:"id"`
	Title      *string        `json:"title"`
	Content    *string        `json:"content"`
	Category   *string        `json:"category"`
	IsFavorite *bool          `json:"is_favorite"`
	IsArchived *bool          `json:"is_archived"`
	CreatedAt  *time.Time     `json:"created_at"`
	UpdatedAt  *time.Time     `json:"updated_at"`
}

func (w wireNote) toNote() (models.Note, error) {
	switch {
	case w.ID == nil || *w.ID == "":
		return models.Note{}, missing("id")
	case w.Title == nil:
		return models.Note{}, missing("title")
	case w.Content == nil:
		return models.Note{}, missing("content")
	case w.CreatedAt == nil:
		return models.Note{}, missing("created_at")
	}
	n := models.Note{
		ID:        *w.ID,
		Title:     *w.Title,
		Content:   *w.Content,
		CreatedAt: *w.CreatedAt,
	}
	if w.Category != nil {
		n.Category = models.Category(*w.Category)
	}
	if w.IsFavorite != nil {
		n.IsFavorite = *w.IsFavorite
	}
	if w.IsArchived != nil {
		n.IsArchived = *w.IsArchived
	}
	if w.UpdatedAt != nil {
		n.UpdatedAt = *w.UpdatedAt
	}
	return n, nil
}

type analysisBody struct {
	SuggestedCategories *[]string `json:"suggested_categories"`
	Summary             *string   `json:"summary"`
	Enhancements        *[]string `json:"enhancements"`
}

// analyzeResponse accepts the flat shape and the {"ai_suggestions": {...}}
// envelope.
type analyzeResponse struct {
	analysisBody
	Envelope *analysisBody `json:"ai_suggestions"`
}

func (r analyzeResponse) toAnalysis() (models.Analysis, error) {
	body := r.analysisBody
	if body.SuggestedCategories == nil && r.Envelope != nil {
		body = *r.Envelope
	}
	if body.SuggestedCategories == nil {
		return models.Analysis{}, fmt.Errorf("POST /ai/analyze: %w", missing("suggested_categories"))
	}
	a := models.Analysis{SuggestedCategories: *body.SuggestedCategories}
	if body.Summary != nil {
		a.Summary = *body.Summary
	}
	if body.Enhancements != nil {
		a.Enhancements = *body.Enhancements
	}
	return a, nil
}

type enhanceBody struct {
	EnhancedContent *string `json:"enhanced_content"`
}

// enhanceResponse accepts {"enhanced_content": ...} and the
// {"enhancement": {"enhanced_content": ...}} envelope.
type enhanceResponse struct {
	enhanceBody
	Envelope *enhanceBody `json:"enhancement"`
}

func (r enhanceResponse) enhanced() (string, error) {
	if r.EnhancedContent != nil {
		return *r.EnhancedContent, nil
	}
	if r.Envelope != nil && r.Envelope.EnhancedContent != nil {
		return *r.Envelope.EnhancedContent, nil
	}
	return "", fmt.Errorf("POST /ai/enhance: %w", missing("enhanced_content"))
}

type titleResponse struct {
	SuggestedTitle *string `json:"suggested_title"`
}

func missing(field string) error {
	return fmt.Errorf("%w: required field %q missing", apperr.ErrParse, field)
}
