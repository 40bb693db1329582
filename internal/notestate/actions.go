package notestate

import (
	"fmt"
	"log/slog"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/models"
)

// Action is one state transition. apply runs under the store lock and must
// leave the state untouched when it returns an error.
type Action interface {
	Name() string
	apply(s *State, log *slog.Logger) error
}

// notesAction marks actions that change the note list.
type notesAction interface {
	touchesNotes() bool
}

// SetLoading sets the loading flag.
type SetLoading struct{ Loading bool }

func (SetLoading) Name() string { return "set_loading" }

func (a SetLoading) apply(s *State, _ *slog.Logger) error {
	s.Loading = a.Loading
	return nil
}

// SetNotes replaces the note list and clears loading.
type SetNotes struct{ Notes []models.Note }

func (SetNotes) Name() string       { return "set_notes" }
func (SetNotes) touchesNotes() bool { return true }

func (a SetNotes) apply(s *State, log *slog.Logger) error {
	seen := make(map[models.NoteID]struct{}, len(a.Notes))
	notes := make([]models.Note, 0, len(a.Notes))
	for _, n := range a.Notes {
		if _, dup := seen[n.ID]; dup {
			log.Warn("set notes: duplicate id dropped", slog.String("id", n.ID.String()))
			continue
		}
		seen[n.ID] = struct{}{}
		notes = append(notes, n)
	}
	s.Notes = notes
	s.Loading = false
	return nil
}

// AddNote prepends a newly created note.
type AddNote struct{ Note models.Note }

func (AddNote) Name() string       { return "add_note" }
func (AddNote) touchesNotes() bool { return true }

func (a AddNote) apply(s *State, log *slog.Logger) error {
	if s.indexOf(a.Note.ID) >= 0 {
		log.Warn("add note: id already present, keeping existing entry", slog.String("id", a.Note.ID.String()))
		return fmt.Errorf("add note %s: %w", a.Note.ID, apperr.ErrAlreadyExists)
	}
	s.Notes = append([]models.Note{a.Note}, s.Notes...)
	return nil
}

// UpdateNote replaces the note with the same id and refreshes the selection
// when that note is selected.
type UpdateNote struct{ Note models.Note }

func (UpdateNote) Name() string       { return "update_note" }
func (UpdateNote) touchesNotes() bool { return true }

func (a UpdateNote) apply(s *State, log *slog.Logger) error {
	i := s.indexOf(a.Note.ID)
	if i < 0 {
		log.Warn("update note: id not held locally", slog.String("id", a.Note.ID.String()))
		return fmt.Errorf("update note %s: %w", a.Note.ID, apperr.ErrInconsistency)
	}
	s.Notes[i] = a.Note
	if s.SelectedNote != nil && s.SelectedNote.ID == a.Note.ID {
		n := a.Note
		s.SelectedNote = &n
	}
	return nil
}

// DeleteNote removes a note and clears the selection if it pointed at it.
type DeleteNote struct{ ID models.NoteID }

func (DeleteNote) Name() string       { return "delete_note" }
func (DeleteNote) touchesNotes() bool { return true }

func (a DeleteNote) apply(s *State, log *slog.Logger) error {
	i := s.indexOf(a.ID)
	if i < 0 {
		log.Warn("delete note: id not held locally", slog.String("id", a.ID.String()))
		return fmt.Errorf("delete note %s: %w", a.ID, apperr.ErrInconsistency)
	}
	s.Notes = append(s.Notes[:i], s.Notes[i+1:]...)
	if s.SelectedNote != nil && s.SelectedNote.ID == a.ID {
		s.SelectedNote = nil
	}
	return nil
}

// SetSearchTerm sets the search filter.
type SetSearchTerm struct{ Term string }

func (SetSearchTerm) Name() string { return "set_search_term" }

func (a SetSearchTerm) apply(s *State, _ *slog.Logger) error {
	s.SearchTerm = a.Term
	return nil
}

// SelectCategory sets the sidebar filter.
type SelectCategory struct{ Category models.CategoryFilter }

func (SelectCategory) Name() string { return "select_category" }

func (a SelectCategory) apply(s *State, _ *slog.Logger) error {
	if !a.Category.Valid() {
		return apperr.Invalid("category", fmt.Sprintf("unknown filter %q", a.Category))
	}
	s.SelectedCategory = a.Category
	return nil
}

// SelectNote sets or clears the selected note.
type SelectNote struct{ Note *models.Note }

func (SelectNote) Name() string { return "select_note" }

func (a SelectNote) apply(s *State, _ *slog.Logger) error {
	if a.Note == nil {
		s.SelectedNote = nil
		return nil
	}
	n := *a.Note
	s.SelectedNote = &n
	return nil
}

// SetViewMode sets the list display mode.
type SetViewMode struct{ Mode models.ViewMode }

func (SetViewMode) Name() string { return "set_view_mode" }

func (a SetViewMode) apply(s *State, _ *slog.Logger) error {
	if !a.Mode.Valid() {
		return apperr.Invalid("view_mode", fmt.Sprintf("unknown mode %q", a.Mode))
	}
	s.ViewMode = a.Mode
	return nil
}

// SetIsCreating toggles create mode.
type SetIsCreating struct{ Creating bool }

func (SetIsCreating) Name() string { return "set_is_creating" }

func (a SetIsCreating) apply(s *State, _ *slog.Logger) error {
	s.IsCreating = a.Creating
	return nil
}
