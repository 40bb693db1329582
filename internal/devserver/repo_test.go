package devserver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteai/internal/apperr"
)

func testDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dev.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, path
}

func strp(s string) *string { return &s }

func TestOpenIsExclusive(t *testing.T) {
	_, path := testDB(t)

	done := make(chan error, 1)
	go func() {
		_, err := Open(context.Background(), path)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrLocked)
	case <-time.After(2 * time.Second):
		t.Fatal("second Open blocked instead of reporting the lock")
	}
}

func TestReopenAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	_, err = db.CreateNote(context.Background(), NoteInput{Title: strp("a"), Content: strp("b")})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db2.Close()
	notes, err := db2.ListNotes(context.Background(), ListQuery{})
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestCreateGetUpdateDelete(t *testing.T) {
	db, _ := testDB(t)
	ctx := context.Background()

	n, err := db.CreateNote(ctx, NoteInput{Title: strp("Plan"), Content: strp("<p>x</p>"), Category: strp("work")})
	require.NoError(t, err)
	assert.NotZero(t, n.ID)
	assert.Equal(t, "work", n.Category)
	assert.False(t, n.CreatedAt.IsZero())

	got, err := db.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plan", got.Title)

	up, err := db.UpdateNote(ctx, n.ID, NoteInput{Title: strp("Plan 2"), Category: strp("")})
	require.NoError(t, err)
	assert.Equal(t, "Plan 2", up.Title)
	assert.Equal(t, "<p>x</p>", up.Content)
	assert.Equal(t, "", up.Category)
	assert.False(t, up.UpdatedAt.Before(n.UpdatedAt))

	require.NoError(t, db.DeleteNote(ctx, n.ID))
	_, err = db.GetNote(ctx, n.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, db.DeleteNote(ctx, n.ID), apperr.ErrNotFound)
	_, err = db.UpdateNote(ctx, n.ID, NoteInput{Title: strp("x")})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestToggleFlag(t *testing.T) {
	db, _ := testDB(t)
	ctx := context.Background()
	n, err := db.CreateNote(ctx, NoteInput{Title: strp("a"), Content: strp("b")})
	require.NoError(t, err)

	n, err = db.ToggleFlag(ctx, n.ID, "is_favorite")
	require.NoError(t, err)
	assert.True(t, n.IsFavorite)
	n, err = db.ToggleFlag(ctx, n.ID, "is_favorite")
	require.NoError(t, err)
	assert.False(t, n.IsFavorite)

	n, err = db.ToggleFlag(ctx, n.ID, "is_archived")
	require.NoError(t, err)
	assert.True(t, n.IsArchived)

	_, err = db.ToggleFlag(ctx, n.ID, "title")
	assert.Error(t, err)
	_, err = db.ToggleFlag(ctx, 999, "is_archived")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListOrderAndFilters(t *testing.T) {
	db, _ := testDB(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	db.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	a, err := db.CreateNote(ctx, NoteInput{Title: strp("Alpha"), Content: strp("team agenda"), Category: strp("meeting")})
	require.NoError(t, err)
	b, err := db.CreateNote(ctx, NoteInput{Title: strp("Beta"), Content: strp("shopping list"), Category: strp("personal")})
	require.NoError(t, err)
	c, err := db.CreateNote(ctx, NoteInput{Title: strp("Gamma"), Content: strp("new idea")})
	require.NoError(t, err)

	all, err := db.ListNotes(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, []int64{c.ID, b.ID, a.ID}, rowIDs(all))

	// Editing bumps a note to the top.
	_, err = db.UpdateNote(ctx, a.ID, NoteInput{Content: strp("team agenda v2")})
	require.NoError(t, err)
	all, err = db.ListNotes(ctx, ListQuery{Category: "all"})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, b.ID}, rowIDs(all))

	meeting, err := db.ListNotes(ctx, ListQuery{Category: "meeting"})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, rowIDs(meeting))

	_, err = db.ToggleFlag(ctx, b.ID, "is_favorite")
	require.NoError(t, err)
	favs, err := db.ListNotes(ctx, ListQuery{Category: "favorites"})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, rowIDs(favs))

	found, err := db.ListNotes(ctx, ListQuery{Search: "shopping"})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, rowIDs(found))

	none, err := db.ListNotes(ctx, ListQuery{Search: "zzz"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func rowIDs(rows []NoteRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}
