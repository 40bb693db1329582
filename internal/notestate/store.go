package notestate

import (
	"log/slog"
	"sync"

	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/filter"
	"github.com/starford/noteai/internal/models"
)

// Store owns the client state. Transitions are serialized: each Dispatch
// runs to completion before the next one starts, and reads never observe a
// half-applied action.
type Store struct {
	mu    sync.Mutex
	state State

	logger *slog.Logger
	sink   events.Sink
}

// NewStore creates a store holding an empty session state.
func NewStore(logger *slog.Logger, sink events.Sink) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &Store{state: initialState(), logger: logger, sink: sink}
}

// Dispatch applies a. On error the state is unchanged.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	err := a.apply(&s.state, s.logger)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	notes := false
	if na, ok := a.(notesAction); ok {
		notes = na.touchesNotes()
	}
	s.sink.StateChanged(a.Name(), notes)
	return nil
}

// Snapshot returns a copy of the state with derived values.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	st := s.state.clone()
	s.mu.Unlock()
	return newSnapshot(st)
}

// Notes returns a copy of the note list.
func (s *Store) Notes() []models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Note(nil), s.state.Notes...)
}

// FilteredNotes derives the visible notes from the current state.
func (s *Store) FilteredNotes() []models.Note {
	s.mu.Lock()
	notes := append([]models.Note(nil), s.state.Notes...)
	term, cat := s.state.SearchTerm, s.state.SelectedCategory
	s.mu.Unlock()
	return filter.Apply(notes, term, cat)
}

// Note looks a note up by id.
func (s *Store) Note(id models.NoteID) (models.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.state.indexOf(id); i >= 0 {
		return s.state.Notes[i], true
	}
	return models.Note{}, false
}

// SelectedNote returns a copy of the selection, or nil.
func (s *Store) SelectedNote() *models.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.SelectedNote == nil {
		return nil
	}
	n := *s.state.SelectedNote
	return &n
}

// IsCreating reports whether the editor is in create mode.
func (s *Store) IsCreating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsCreating
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(loading bool) { _ = s.Dispatch(SetLoading{Loading: loading}) }

// SetNotes replaces the note list and clears loading.
func (s *Store) SetNotes(notes []models.Note) { _ = s.Dispatch(SetNotes{Notes: notes}) }

// AddNote prepends n. It fails with apperr.ErrAlreadyExists if the id is held.
func (s *Store) AddNote(n models.Note) error { return s.Dispatch(AddNote{Note: n}) }

// UpdateNote replaces the note with n.ID. It fails with
// apperr.ErrInconsistency if the id is not held.
func (s *Store) UpdateNote(n models.Note) error { return s.Dispatch(UpdateNote{Note: n}) }

// DeleteNote removes id. It fails with apperr.ErrInconsistency if the id is
// not held.
func (s *Store) DeleteNote(id models.NoteID) error { return s.Dispatch(DeleteNote{ID: id}) }

// SetSearchTerm sets the search term.
func (s *Store) SetSearchTerm(term string) { _ = s.Dispatch(SetSearchTerm{Term: term}) }

// SelectCategory sets the category filter, rejecting unknown keys.
func (s *Store) SelectCategory(c models.CategoryFilter) error {
	return s.Dispatch(SelectCategory{Category: c})
}

// SelectNote selects n, or clears the selection when n is nil.
func (s *Store) SelectNote(n *models.Note) { _ = s.Dispatch(SelectNote{Note: n}) }

// SetViewMode sets grid or list mode, rejecting other values.
func (s *Store) SetViewMode(m models.ViewMode) error { return s.Dispatch(SetViewMode{Mode: m}) }

// SetIsCreating marks whether a new note is being composed.
func (s *Store) SetIsCreating(creating bool) { _ = s.Dispatch(SetIsCreating{Creating: creating}) }
