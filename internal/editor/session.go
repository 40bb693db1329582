// Package editor owns the draft of the open note editor and ties it to
// the note mutations and AI assists.
package editor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/notestate"
)

// ErrDiscarded is returned when a result arrives after the editor was
// closed or switched to another note. The result is not applied.
var ErrDiscarded = fmt.Errorf("editor changed while request was in flight: %w", apperr.ErrConflict)

// ErrClosed is returned by draft operations while no editor is open.
var ErrClosed = fmt.Errorf("editor is not open: %w", apperr.ErrConflict)

// Notes is the mutation surface the session saves through.
type Notes interface {
	CreateNote(ctx context.Context, d models.Draft) (models.Note, error)
	UpdateNote(ctx context.Context, id models.NoteID, patch models.NotePatch) (models.Note, error)
}

// Assistant is the AI surface the session requests suggestions from.
type Assistant interface {
	Analyze(ctx context.Context, content, title string) (models.Analysis, assist.Ticket, error)
	Enhance(ctx context.Context, content string) (string, assist.Ticket, error)
	SuggestTitle(ctx context.Context, content string) (string, assist.Ticket, error)
	Current(t assist.Ticket) bool
}

// Mode is what the editor is doing.
type Mode string

// Editor modes.
const (
	ModeClosed Mode = "closed"
	ModeNew    Mode = "new"
	ModeEdit   Mode = "edit"
)

const saveKind = "save"

// View is a copy of the session for presentation.
type View struct {
	Mode     Mode             `json:"mode"`
	NoteID   models.NoteID    `json:"note_id,omitempty"`
	Draft    models.Draft     `json:"draft"`
	Dirty    bool             `json:"dirty"`
	Busy     []string         `json:"busy"`
	Analysis *models.Analysis `json:"analysis,omitempty"`
}

// DraftUpdate carries the draft fields to overwrite.
type DraftUpdate struct {
	Title    *string          `json:"title,omitempty"`
	Content  *string          `json:"content,omitempty"`
	Category *models.Category `json:"category,omitempty"`
}

// Session is the single editor of a client.
type Session struct {
	store     *notestate.Store
	notes     Notes
	assistant Assistant
	sink      events.Sink
	logger    *slog.Logger

	mu       sync.Mutex
	mode     Mode
	noteID   models.NoteID
	epoch    uint64
	base     models.Draft
	draft    models.Draft
	busy     map[string]bool
	analysis *models.Analysis
}

// NewSession creates a closed session.
func NewSession(store *notestate.Store, notes Notes, assistant Assistant, sink events.Sink, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &Session{
		store:     store,
		notes:     notes,
		assistant: assistant,
		sink:      sink,
		logger:    logger,
		mode:      ModeClosed,
		busy:      make(map[string]bool),
	}
}

// OpenNew opens the editor on an empty draft.
func (s *Session) OpenNew() View {
	s.mu.Lock()
	s.reset(ModeNew, "", models.Draft{})
	v := s.viewLocked()
	s.mu.Unlock()

	s.store.SelectNote(nil)
	s.store.SetIsCreating(true)
	return v
}

// OpenNote opens the editor on an existing note.
func (s *Session) OpenNote(id models.NoteID) (View, error) {
	n, ok := s.store.Note(id)
	if !ok {
		return View{}, fmt.Errorf("note %s: %w", id, apperr.ErrNotFound)
	}

	s.mu.Lock()
	s.reset(ModeEdit, id, models.DraftFromNote(n))
	v := s.viewLocked()
	s.mu.Unlock()

	s.store.SetIsCreating(false)
	s.store.SelectNote(&n)
	return v, nil
}

// Close discards the draft and closes the editor.
func (s *Session) Close() {
	s.mu.Lock()
	s.reset(ModeClosed, "", models.Draft{})
	s.mu.Unlock()

	s.store.SetIsCreating(false)
	s.store.SelectNote(nil)
}

// reset starts a new epoch. In-flight results of the previous one are
// dropped when they arrive. Caller holds s.mu.
func (s *Session) reset(mode Mode, id models.NoteID, d models.Draft) {
	s.epoch++
	s.mode = mode
	s.noteID = id
	s.base = d
	s.draft = d
	s.analysis = nil
	clear(s.busy)
}

// View returns the current session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		Mode:   s.mode,
		NoteID: s.noteID,
		Draft:  s.draft,
		Dirty:  s.dirtyLocked(),
		Busy:   []string{},
	}
	for _, k := range []string{saveKind, string(assist.KindAnalyze), string(assist.KindEnhance), string(assist.KindTitle)} {
		if s.busy[k] {
			v.Busy = append(v.Busy, k)
		}
	}
	if s.analysis != nil {
		a := *s.analysis
		v.Analysis = &a
	}
	return v
}

// Draft returns a copy of the draft.
func (s *Session) Draft() models.Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// Dirty reports unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyLocked()
}

func (s *Session) dirtyLocked() bool {
	switch s.mode {
	case ModeNew:
		return strings.TrimSpace(s.draft.Title) != "" || strings.TrimSpace(s.draft.Content) != ""
	case ModeEdit:
		return s.draft != s.base
	}
	return false
}

// SetTitle replaces the draft title.
func (s *Session) SetTitle(title string) error {
	return s.Update(DraftUpdate{Title: &title})
}

// SetContent replaces the draft content.
func (s *Session) SetContent(content string) error {
	return s.Update(DraftUpdate{Content: &content})
}

// SetCategory replaces the draft category.
func (s *Session) SetCategory(c models.Category) error {
	return s.Update(DraftUpdate{Category: &c})
}

// Update overwrites the given draft fields.
func (s *Session) Update(u DraftUpdate) error {
	if u.Category != nil && !u.Category.Valid() {
		return apperr.Invalid("category", fmt.Sprintf("unknown category %q", *u.Category))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeClosed {
		return ErrClosed
	}
	if u.Title != nil {
		s.draft.Title = *u.Title
	}
	if u.Content != nil {
		s.draft.Content = *u.Content
	}
	if u.Category != nil {
		s.draft.Category = *u.Category
	}
	return nil
}

// started is the editor as it was when a request began.
type started struct {
	draft  models.Draft
	epoch  uint64
	mode   Mode
	noteID models.NoteID
}

// begin marks kind busy and captures the editor the request works on.
func (s *Session) begin(kind string) (started, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeClosed {
		return started{}, ErrClosed
	}
	if s.busy[kind] {
		return started{}, fmt.Errorf("%s: %w", kind, apperr.ErrBusy)
	}
	s.busy[kind] = true
	return started{draft: s.draft, epoch: s.epoch, mode: s.mode, noteID: s.noteID}, nil
}

// end clears kind and reports whether the session is still on epoch.
// On true the caller still holds s.mu and must unlock it.
func (s *Session) end(kind string, epoch uint64) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	delete(s.busy, kind)
	return true
}

// Save creates the note (then keeps editing it under its real id) or
// updates the note being edited.
func (s *Session) Save(ctx context.Context) (models.Note, error) {
	st, err := s.begin(saveKind)
	if err != nil {
		return models.Note{}, err
	}
	return s.save(ctx, st)
}

// save persists st.draft to the note st was captured on, whatever the
// editor shows by the time it runs.
func (s *Session) save(ctx context.Context, st started) (models.Note, error) {
	d, mode := st.draft, st.mode

	var n models.Note
	var err error
	switch mode {
	case ModeNew:
		n, err = s.notes.CreateNote(ctx, d)
	case ModeEdit:
		n, err = s.notes.UpdateNote(ctx, st.noteID, d.Patch())
	default:
		if s.end(saveKind, st.epoch) {
			s.mu.Unlock()
		}
		return models.Note{}, ErrClosed
	}

	if !s.end(saveKind, st.epoch) {
		if err != nil {
			return models.Note{}, err
		}
		s.logger.Debug("editor: save completed after editor changed", slog.String("id", n.ID.String()))
		return n, nil
	}
	if err != nil {
		s.mu.Unlock()
		return models.Note{}, err
	}
	s.mode = ModeEdit
	s.noteID = n.ID
	s.base = models.DraftFromNote(n)
	if s.draft == d {
		s.draft = s.base
	}
	s.mu.Unlock()

	if mode == ModeNew {
		s.store.SetIsCreating(false)
		s.store.SelectNote(&n)
	}
	return n, nil
}

// Analyze requests suggestions for the draft and keeps them on the
// session until the editor changes.
func (s *Session) Analyze(ctx context.Context) (models.Analysis, error) {
	kind := string(assist.KindAnalyze)
	st, err := s.begin(kind)
	if err != nil {
		return models.Analysis{}, err
	}
	a, t, err := s.assistant.Analyze(ctx, st.draft.Content, st.draft.Title)
	if !s.end(kind, st.epoch) {
		return models.Analysis{}, discardedOr(err)
	}
	defer s.mu.Unlock()
	if err != nil {
		return models.Analysis{}, err
	}
	if !s.assistant.Current(t) {
		return models.Analysis{}, ErrDiscarded
	}
	s.analysis = &a
	return a, nil
}

// Enhance replaces the draft content with an enhanced version.
func (s *Session) Enhance(ctx context.Context) (string, error) {
	return s.suggest(ctx, assist.KindEnhance, models.SuggestContent, s.assistant.Enhance)
}

// SuggestTitle replaces the draft title with a suggested one.
func (s *Session) SuggestTitle(ctx context.Context) (string, error) {
	return s.suggest(ctx, assist.KindTitle, models.SuggestTitle, s.assistant.SuggestTitle)
}

func (s *Session) suggest(ctx context.Context, k assist.Kind, target models.SuggestionKind,
	call func(context.Context, string) (string, assist.Ticket, error)) (string, error) {
	kind := string(k)
	st, err := s.begin(kind)
	if err != nil {
		return "", err
	}
	out, t, err := call(ctx, st.draft.Content)
	if !s.end(kind, st.epoch) {
		return "", discardedOr(err)
	}
	defer s.mu.Unlock()
	if err != nil {
		return "", err
	}
	if !s.assistant.Current(t) {
		return "", ErrDiscarded
	}
	if err := s.draft.Apply(models.Suggestion{Kind: target, Value: out}); err != nil {
		return "", err
	}
	return out, nil
}

// ApplyCategory sets the draft category to a picked suggestion.
func (s *Session) ApplyCategory(c models.Category) error {
	s.mu.Lock()
	if s.mode == ModeClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	err := s.draft.Apply(models.Suggestion{Kind: models.SuggestCategory, Value: string(c)})
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.sink.Notify(apperr.Notice{Level: apperr.LevelSuccess, Message: fmt.Sprintf("Category %q applied!", string(c))})
	return nil
}

func discardedOr(err error) error {
	if err != nil {
		return err
	}
	return ErrDiscarded
}
