package mcpserver

// NoteFormatContract describes the note fields and their rules for LLM
// consumers creating or editing notes.
const NoteFormatContract = `# NoteAI Note Format

Every note has these fields:

| Field        | Type    | Notes |
|--------------|---------|-------|
| id           | string  | Assigned by the store on creation; never changes. |
| title        | string  | REQUIRED. Must not be blank; surrounding whitespace is trimmed. |
| content      | string  | HTML produced by a rich-text editor (e.g. "<p>text</p>"). |
| category     | string  | OPTIONAL. One of: work, personal, ideas, project, meeting. |
| is_favorite  | boolean | Toggled with toggle_favorite. |
| is_archived  | boolean | Toggled with toggle_archive. |

## Rules

1. **Title is required.** create_note and update_note reject blank titles
   before contacting the store.
2. **Content is HTML.** Wrap paragraphs in <p>. Search ignores markup, so
   "<b>plan</b>" matches a search for "plan".
3. **Category is a fixed set.** Any other value is rejected. Omit it to
   leave a note uncategorized.
4. **Analysis needs substance.** analyze_note requires at least 10
   characters of content; enhance_content and suggest_title require
   non-blank content.
5. **AI results are suggestions.** They are returned, never saved. Call
   update_note to keep one.

## Filters

list_notes accepts a category filter: all, work, personal, ideas, project,
meeting, favorites (is_favorite set) or archived (is_archived set). A note
without a category only appears under all, favorites or archived.
`
