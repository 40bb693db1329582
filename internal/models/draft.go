package models

import (
	"fmt"
	"strings"

	"github.com/starford/noteai/internal/apperr"
)

// Draft is the unsaved state of the editor.
type Draft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category,omitempty"`
}

// DraftFromNote loads a draft from a persisted note.
func DraftFromNote(n Note) Draft {
	return Draft{Title: n.Title, Content: n.Content, Category: n.Category}
}

// CreateRequest converts the draft into a create body. The title is trimmed.
func (d Draft) CreateRequest() CreateNoteRequest {
	return CreateNoteRequest{
		Title:    strings.TrimSpace(d.Title),
		Content:  d.Content,
		Category: d.Category,
	}
}

// Patch converts the draft into an update that overwrites title, content
// and category.
func (d Draft) Patch() NotePatch {
	title := strings.TrimSpace(d.Title)
	content := d.Content
	category := d.Category
	return NotePatch{Title: &title, Content: &content, Category: &category}
}

// SuggestionKind names the draft field a suggestion targets.
type SuggestionKind string

// Suggestion kinds.
const (
	SuggestTitle    SuggestionKind = "title"
	SuggestContent  SuggestionKind = "content"
	SuggestCategory SuggestionKind = "category"
)

// Suggestion is an AI result the user accepted.
type Suggestion struct {
	Kind  SuggestionKind `json:"kind"`
	Value string         `json:"value"`
}

// Apply merges s into the draft. It never saves anything.
func (d *Draft) Apply(s Suggestion) error {
	switch s.Kind {
	case SuggestTitle:
		d.Title = s.Value
	case SuggestContent:
		d.Content = s.Value
	case SuggestCategory:
		c, err := ParseCategory(s.Value)
		if err != nil {
			return apperr.Invalid("category", err.Error())
		}
		d.Category = c
	default:
		return apperr.Invalid("kind", fmt.Sprintf("unknown suggestion kind %q", s.Kind))
	}
	return nil
}
