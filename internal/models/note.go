// Package models defines the domain types for NoteAI.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// NoteID is the opaque identifier the remote store assigns on creation.
// Remotes may send it as a JSON number or a string; it is carried as text.
type NoteID string

// String returns the id as text.
func (id NoteID) String() string { return string(id) }

// UnmarshalJSON accepts both numeric and string ids.
func (id *NoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NoteID(s)
		return nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("note id: not an integer: %s", n)
	}
	*id = NoteID(n.String())
	return nil
}

// MarshalJSON emits integer ids as JSON numbers so integer-keyed remotes
// get back what they sent.
func (id NoteID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(string(id)), nil
	}
	return json.Marshal(string(id))
}

// Note is a persisted note as held in client state.
type Note struct {
	ID         NoteID    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   Category  `json:"category,omitempty"`
	IsFavorite bool      `json:"is_favorite"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at,omitzero"`
}

// NotePatch carries the fields of a partial update. Nil fields are left
// untouched by the remote.
type NotePatch struct {
	Title      *string   `json:"title,omitempty"`
	Content    *string   `json:"content,omitempty"`
	Category   *Category `json:"category,omitempty"`
	IsFavorite *bool     `json:"is_favorite,omitempty"`
	IsArchived *bool     `json:"is_archived,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p NotePatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Category == nil && p.IsFavorite == nil && p.IsArchived == nil
}

// CreateNoteRequest is the body sent to create a note.
type CreateNoteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category Category `json:"category,omitempty"`
}

// Analysis is the suggestion bundle returned by the analyze operation.
type Analysis struct {
	SuggestedCategories []string `json:"suggested_categories"`
	Summary             string   `json:"summary,omitempty"`
	Enhancements        []string `json:"enhancements,omitempty"`
}
