package models

import "fmt"

// Category is the optional label stored on a note. The empty value means
// the note has no category.
type Category string

// Fixed category set.
const (
	CategoryNone     Category = ""
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryIdeas    Category = "ideas"
	CategoryProject  Category = "project"
	CategoryMeeting  Category = "meeting"
)

// Categories lists every assignable category in display order.
var Categories = []Category{CategoryWork, CategoryPersonal, CategoryIdeas, CategoryProject, CategoryMeeting}

// Valid reports whether c is empty or one of the fixed categories.
func (c Category) Valid() bool {
	if c == CategoryNone {
		return true
	}
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// ParseCategory validates s as a category.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return CategoryNone, fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// CategoryFilter is the sidebar selection. Besides the literal categories
// it has "all" and the two flag filters, which test is_favorite and
// is_archived instead of the category field.
type CategoryFilter string

// Filter keys that are not literal categories.
const (
	FilterAll       CategoryFilter = "all"
	FilterFavorites CategoryFilter = "favorites"
	FilterArchived  CategoryFilter = "archived"
)

// CategoryFilters lists every filter key in sidebar order.
var CategoryFilters = []CategoryFilter{
	FilterAll,
	CategoryFilter(CategoryWork),
	CategoryFilter(CategoryPersonal),
	CategoryFilter(CategoryIdeas),
	CategoryFilter(CategoryProject),
	CategoryFilter(CategoryMeeting),
	FilterFavorites,
	FilterArchived,
}

// Valid reports whether f is a known filter key.
func (f CategoryFilter) Valid() bool {
	for _, k := range CategoryFilters {
		if f == k {
			return true
		}
	}
	return false
}

// ViewMode is the display mode of the note list.
type ViewMode string

// View modes.
const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewGrid || m == ViewList
}
