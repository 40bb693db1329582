// Package filter derives the visible note subset from client state.
// Everything here is pure: results depend only on the arguments.
package filter

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/starford/noteai/internal/models"
)

// strict removes every tag; it is safe for concurrent use once built.
var strict = bluemonday.StrictPolicy()

// PlainText projects rich content to the text a reader sees, so markup the
// user never typed cannot produce search hits.
func PlainText(content string) string {
	if !strings.ContainsAny(content, "<&") {
		return content
	}
	return html.UnescapeString(strict.Sanitize(content))
}

// Apply returns the notes matching both searchTerm and category, in the
// order of notes.
func Apply(notes []models.Note, searchTerm string, category models.CategoryFilter) []models.Note {
	needle := strings.ToLower(searchTerm)
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if MatchesCategory(n, category) && matchesSearch(n, needle) {
			out = append(out, n)
		}
	}
	return out
}

// MatchesSearch reports whether term is a case-insensitive substring of the
// note title or of its plain-text content. An empty term matches.
func MatchesSearch(n models.Note, term string) bool {
	return matchesSearch(n, strings.ToLower(term))
}

func matchesSearch(n models.Note, needle string) bool {
	if needle == "" {
		return true
	}
	if strings.Contains(strings.ToLower(n.Title), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(PlainText(n.Content)), needle)
}

// MatchesCategory applies the sidebar predicate. Favorites and archived test
// the note flags; literal keys test the category field.
func MatchesCategory(n models.Note, category models.CategoryFilter) bool {
	switch category {
	case models.FilterAll, "":
		return true
	case models.FilterFavorites:
		return n.IsFavorite
	case models.FilterArchived:
		return n.IsArchived
	default:
		return n.Category != models.CategoryNone && string(n.Category) == string(category)
	}
}

// Counts returns, for every filter key, how many notes its category
// predicate matches. The search term is ignored.
func Counts(notes []models.Note) map[models.CategoryFilter]int {
	out := make(map[models.CategoryFilter]int, len(models.CategoryFilters))
	for _, key := range models.CategoryFilters {
		out[key] = 0
	}
	for _, n := range notes {
		for _, key := range models.CategoryFilters {
			if MatchesCategory(n, key) {
				out[key]++
			}
		}
	}
	return out
}
