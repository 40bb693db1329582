//go:build !sqlite_fts5

package devserver

import (
	"database/sql"
	"strings"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; search uses LIKE on the notes table.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ int64, _, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ int64) {}

// searchClause is a case-insensitive substring match on title or content.
func searchClause(term string) (string, []any) {
	esc := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	like := "%" + esc + "%"
	return `(title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`, []any{like, like}
}
