package devserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/noteai/internal/apperr"
)

// NoteRow represents a row in the notes table.
type NoteRow struct {
	ID         int64
	Title      string
	Content    string
	Category   string
	IsFavorite bool
	IsArchived bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NoteInput carries the writable fields of a note. Nil fields are left
// untouched on update; an empty Category clears it.
type NoteInput struct {
	Title    *string
	Content  *string
	Category *string
}

// ListQuery narrows a listing the way the remote's query parameters do.
type ListQuery struct {
	Category string
	Search   string
}

const noteColumns = `id, title, content, category, is_favorite, is_archived, created_at, updated_at`

func scanNote(sc interface{ Scan(...any) error }) (NoteRow, error) {
	var n NoteRow
	var cat sql.NullString
	err := sc.Scan(&n.ID, &n.Title, &n.Content, &cat, &n.IsFavorite, &n.IsArchived, &n.CreatedAt, &n.UpdatedAt)
	n.Category = cat.String
	return n, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ListNotes returns notes newest first.
func (db *DB) ListNotes(ctx context.Context, q ListQuery) ([]NoteRow, error) {
	var where []string
	var args []any
	switch q.Category {
	case "", "all":
	case "favorites":
		where = append(where, "is_favorite = 1")
	case "archived":
		where = append(where, "is_archived = 1")
	default:
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Search != "" {
		clause, searchArgs := searchClause(q.Search)
		where = append(where, clause)
		args = append(args, searchArgs...)
	}

	query := `SELECT ` + noteColumns + ` FROM notes`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY updated_at DESC, created_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("devserver: list notes: %w", err)
	}
	defer rows.Close()

	out := []NoteRow{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetNote returns a single note.
func (db *DB) GetNote(ctx context.Context, id int64) (NoteRow, error) {
	n, err := scanNote(db.conn.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return NoteRow{}, apperr.ErrNotFound
	}
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: get note: %w", err)
	}
	return n, nil
}

// CreateNote inserts a note. Title and Content must be set.
func (db *DB) CreateNote(ctx context.Context, in NoteInput) (NoteRow, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	now := db.now()
	cat := ""
	if in.Category != nil {
		cat = *in.Category
	}
	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes (title, content, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, deref(in.Title), deref(in.Content), nullable(cat), now, now)
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return NoteRow{}, err
	}
	if err := ftsUpsert(tx, id, deref(in.Title), deref(in.Content)); err != nil {
		return NoteRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return NoteRow{}, err
	}
	return db.GetNote(ctx, id)
}

// UpdateNote applies the set fields of in.
func (db *DB) UpdateNote(ctx context.Context, id int64, in NoteInput) (NoteRow, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	sets := []string{"updated_at = ?"}
	args := []any{db.now()}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *in.Content)
	}
	if in.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, nullable(*in.Category))
	}
	args = append(args, id)

	res, err := tx.ExecContext(ctx, `UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NoteRow{}, apperr.ErrNotFound
	}

	var title, content string
	if err := tx.QueryRowContext(ctx, `SELECT title, content FROM notes WHERE id = ?`, id).Scan(&title, &content); err != nil {
		return NoteRow{}, err
	}
	if err := ftsUpsert(tx, id, title, content); err != nil {
		return NoteRow{}, err
	}
	if err := tx.Commit(); err != nil {
		return NoteRow{}, err
	}
	return db.GetNote(ctx, id)
}

// ToggleFlag flips is_favorite or is_archived.
func (db *DB) ToggleFlag(ctx context.Context, id int64, column string) (NoteRow, error) {
	if column != "is_favorite" && column != "is_archived" {
		return NoteRow{}, fmt.Errorf("devserver: unknown flag %q", column)
	}
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notes SET `+column+` = 1 - `+column+`, updated_at = ? WHERE id = ?`, db.now(), id)
	if err != nil {
		return NoteRow{}, fmt.Errorf("devserver: toggle %s: %w", column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return NoteRow{}, apperr.ErrNotFound
	}
	return db.GetNote(ctx, id)
}

// DeleteNote removes a note and its search entry.
func (db *DB) DeleteNote(ctx context.Context, id int64) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("devserver: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("devserver: delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	ftsDelete(tx, id)
	return tx.Commit()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
