// Package notestate holds the canonical client-side view of a user's notes
// and the UI selection that goes with it.
package notestate

import (
	"github.com/starford/noteai/internal/filter"
	"github.com/starford/noteai/internal/models"
)

// State is the mutable client state. It is owned by Store and only changed
// through actions.
type State struct {
	Notes            []models.Note         `json:"notes"`
	SearchTerm       string                `json:"search_term"`
	SelectedCategory models.CategoryFilter `json:"selected_category"`
	SelectedNote     *models.Note          `json:"selected_note"`
	IsCreating       bool                  `json:"is_creating"`
	ViewMode         models.ViewMode       `json:"view_mode"`
	Loading          bool                  `json:"loading"`
}

// initialState is the state of a fresh session.
func initialState() State {
	return State{
		Notes:            []models.Note{},
		SelectedCategory: models.FilterAll,
		ViewMode:         models.ViewGrid,
	}
}

func (s State) clone() State {
	out := s
	out.Notes = append(make([]models.Note, 0, len(s.Notes)), s.Notes...)
	if s.SelectedNote != nil {
		n := *s.SelectedNote
		out.SelectedNote = &n
	}
	return out
}

func (s State) indexOf(id models.NoteID) int {
	for i, n := range s.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is a copy of the state together with the values derived from it.
// Derived fields are computed when the snapshot is taken.
type Snapshot struct {
	State
	FilteredNotes []models.Note                 `json:"filtered_notes"`
	EditorOpen    bool                          `json:"editor_open"`
	Counts        map[models.CategoryFilter]int `json:"counts"`
}

func newSnapshot(s State) Snapshot {
	return Snapshot{
		State:         s,
		FilteredNotes: filter.Apply(s.Notes, s.SearchTerm, s.SelectedCategory),
		EditorOpen:    s.IsCreating || s.SelectedNote != nil,
		Counts:        filter.Counts(s.Notes),
	}
}
