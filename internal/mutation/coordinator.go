// Package mutation performs note create, update and delete against the
// remote store and folds confirmed results into the client state.
//
// Every operation either fully applies (remote success followed by the
// local fold) or leaves the client state untouched. Operations on the same
// note id are serialized; a refresh that raced a create, update or delete
// is reconciled before it replaces the note list.
package mutation

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/notestate"
)

// Remote is the subset of the remote store client used for mutations.
type Remote interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error)
	UpdateNote(ctx context.Context, id models.NoteID, patch models.NotePatch) (models.Note, error)
	DeleteNote(ctx context.Context, id models.NoteID) error
	ToggleFavorite(ctx context.Context, id models.NoteID) (models.Note, error)
	ToggleArchive(ctx context.Context, id models.NoteID) (models.Note, error)
}

// Coordinator runs mutations remote-first.
type Coordinator struct {
	remote Remote
	store  *notestate.Store
	sink   events.Sink
	logger *slog.Logger
	locks  *keyedMutex

	// mu guards the reconciliation log below. It is held across every
	// store fold so a refresh payload is reconciled against a consistent
	// view.
	mu         sync.Mutex
	gen        uint64
	refreshing int
	deleted    map[models.NoteID]uint64
	created    map[models.NoteID]logEntry
	updated    map[models.NoteID]logEntry
}

type logEntry struct {
	gen  uint64
	note models.Note
}

// New creates a coordinator.
func New(remote Remote, store *notestate.Store, sink events.Sink, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &Coordinator{
		remote:  remote,
		store:   store,
		sink:    sink,
		logger:  logger,
		locks:   newKeyedMutex(),
		deleted: make(map[models.NoteID]uint64),
		created: make(map[models.NoteID]logEntry),
		updated: make(map[models.NoteID]logEntry),
	}
}

// Refresh replaces the note list with the remote's. On failure loading is
// cleared and the previous list is kept.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	start := c.gen
	c.refreshing++
	c.mu.Unlock()

	c.store.SetLoading(true)
	notes, err := c.remote.ListNotes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endRefresh()

	if err != nil {
		c.store.SetLoading(false)
		c.logger.Error("refresh notes failed", slog.String("error", err.Error()))
		c.sink.Notify(apperr.Notification("Failed to fetch notes", err))
		return err
	}

	c.store.SetNotes(c.reconcile(notes, start))
	c.logger.Debug("notes refreshed", slog.Int("count", len(notes)))
	return nil
}

// reconcile drops notes deleted, re-adds notes created and keeps the
// newer version of notes updated after the refresh started. Caller holds
// c.mu.
func (c *Coordinator) reconcile(notes []models.Note, start uint64) []models.Note {
	out := make([]models.Note, 0, len(notes))
	seen := make(map[models.NoteID]struct{}, len(notes))
	for _, n := range notes {
		if g, ok := c.deleted[n.ID]; ok && g > start {
			c.logger.Debug("refresh: dropping deleted note", slog.String("id", n.ID.String()))
			continue
		}
		if u, ok := c.updated[n.ID]; ok && u.gen > start {
			c.logger.Debug("refresh: keeping note updated in flight", slog.String("id", n.ID.String()))
			n = u.note
		}
		seen[n.ID] = struct{}{}
		out = append(out, n)
	}

	var born []logEntry
	for id, e := range c.created {
		if e.gen <= start {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		if _, gone := c.deleted[id]; gone {
			continue
		}
		if u, ok := c.updated[id]; ok && u.gen > e.gen {
			e.note = u.note
		}
		born = append(born, e)
	}
	if len(born) == 0 {
		return out
	}
	// Newest first, matching the prepend order of AddNote.
	slices.SortFunc(born, func(a, b logEntry) int { return cmp.Compare(b.gen, a.gen) })
	res := make([]models.Note, 0, len(out)+len(born))
	for _, e := range born {
		c.logger.Debug("refresh: keeping note created in flight", slog.String("id", e.note.ID.String()))
		res = append(res, e.note)
	}
	return append(res, out...)
}

// endRefresh forgets the reconciliation log once no refresh needs it.
// Caller holds c.mu.
func (c *Coordinator) endRefresh() {
	c.refreshing--
	if c.refreshing == 0 {
		clear(c.deleted)
		clear(c.created)
		clear(c.updated)
	}
}

// CreateNote validates the draft, creates the note remotely and prepends
// it to the list.
func (c *Coordinator) CreateNote(ctx context.Context, d models.Draft) (models.Note, error) {
	if err := ValidateDraft(d); err != nil {
		c.sink.Notify(apperr.Notification("Failed to create note", err))
		return models.Note{}, err
	}

	n, err := c.remote.CreateNote(ctx, d.CreateRequest())
	if err != nil {
		c.logger.Error("create note failed", slog.String("error", err.Error()))
		c.sink.Notify(apperr.Notification("Failed to create note", err))
		return models.Note{}, err
	}

	c.mu.Lock()
	c.gen++
	if c.refreshing > 0 {
		c.created[n.ID] = logEntry{gen: c.gen, note: n}
	}
	if err := c.store.AddNote(n); err != nil && !errors.Is(err, apperr.ErrAlreadyExists) {
		c.mu.Unlock()
		return models.Note{}, err
	}
	c.mu.Unlock()

	c.logger.Info("note created", slog.String("id", n.ID.String()))
	c.sink.Notify(apperr.Notice{Level: apperr.LevelSuccess, Message: "Note created successfully!"})
	return n, nil
}

// UpdateNote sends patch and folds the returned note. A fold that finds
// the note gone (deleted meanwhile) is logged and not treated as failure.
func (c *Coordinator) UpdateNote(ctx context.Context, id models.NoteID, patch models.NotePatch) (models.Note, error) {
	if err := ValidatePatch(patch); err != nil {
		c.sink.Notify(apperr.Notification("Failed to update note", err))
		return models.Note{}, err
	}

	unlock := c.locks.Lock(id)
	defer unlock()

	n, err := c.remote.UpdateNote(ctx, id, patch)
	if err != nil {
		c.logger.Error("update note failed", slog.String("id", id.String()), slog.String("error", err.Error()))
		c.sink.Notify(apperr.Notification("Failed to update note", err))
		return models.Note{}, err
	}
	c.fold(n)
	c.sink.Notify(apperr.Notice{Level: apperr.LevelSuccess, Message: "Note updated successfully!"})
	return n, nil
}

// ToggleFavorite flips the favorite flag remotely and folds the result.
func (c *Coordinator) ToggleFavorite(ctx context.Context, id models.NoteID) (models.Note, error) {
	return c.toggle(ctx, id, "favorite", c.remote.ToggleFavorite)
}

// ToggleArchive flips the archived flag remotely and folds the result.
func (c *Coordinator) ToggleArchive(ctx context.Context, id models.NoteID) (models.Note, error) {
	return c.toggle(ctx, id, "archive", c.remote.ToggleArchive)
}

func (c *Coordinator) toggle(ctx context.Context, id models.NoteID, what string,
	call func(context.Context, models.NoteID) (models.Note, error)) (models.Note, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	n, err := call(ctx, id)
	if err != nil {
		c.logger.Error("toggle failed", slog.String("flag", what), slog.String("id", id.String()), slog.String("error", err.Error()))
		c.sink.Notify(apperr.Notification("Failed to update note", err))
		return models.Note{}, err
	}
	c.fold(n)
	return n, nil
}

// fold applies an update result. Updates for notes deleted meanwhile are
// discarded.
func (c *Coordinator) fold(n models.Note) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, gone := c.deleted[n.ID]; gone {
		c.logger.Warn("discarding update for deleted note", slog.String("id", n.ID.String()))
		return
	}
	c.gen++
	if c.refreshing > 0 {
		c.updated[n.ID] = logEntry{gen: c.gen, note: n}
	}
	if err := c.store.UpdateNote(n); err != nil {
		c.logger.Warn("update fold skipped", slog.String("id", n.ID.String()), slog.String("error", err.Error()))
	}
}

// DeleteNote deletes remotely, then removes the note locally.
func (c *Coordinator) DeleteNote(ctx context.Context, id models.NoteID) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	if err := c.remote.DeleteNote(ctx, id); err != nil {
		c.logger.Error("delete note failed", slog.String("id", id.String()), slog.String("error", err.Error()))
		c.sink.Notify(apperr.Notification("Failed to delete note", err))
		return err
	}

	c.mu.Lock()
	c.gen++
	if c.refreshing > 0 {
		c.deleted[id] = c.gen
	}
	if err := c.store.DeleteNote(id); err != nil {
		c.logger.Warn("delete fold skipped", slog.String("id", id.String()), slog.String("error", err.Error()))
	}
	c.mu.Unlock()

	c.logger.Info("note deleted", slog.String("id", id.String()))
	c.sink.Notify(apperr.Notice{Level: apperr.LevelSuccess, Message: "Note deleted successfully!"})
	return nil
}

// ValidateDraft checks a draft before it is sent for creation.
func ValidateDraft(d models.Draft) error {
	return apperr.FromValidation(validation.Errors{
		"title":    validation.Validate(strings.TrimSpace(d.Title), validation.Required),
		"category": validation.Validate(string(d.Category), validation.In(categoryValues()...)),
	}.Filter())
}

// ValidatePatch checks the fields a patch carries.
func ValidatePatch(p models.NotePatch) error {
	errs := validation.Errors{}
	if p.Title != nil {
		errs["title"] = validation.Validate(strings.TrimSpace(*p.Title), validation.Required)
	}
	if p.Category != nil {
		errs["category"] = validation.Validate(string(*p.Category), validation.In(categoryValues()...))
	}
	return apperr.FromValidation(errs.Filter())
}

func categoryValues() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = string(c)
	}
	return out
}
