// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/filter"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/mutation"
	"github.com/starford/noteai/internal/notestate"
)

const (
	categoriesURI = "noteai://categories"
	formatURI     = "noteai://note-format"
	previewRunes  = 160
)

// Server wraps the MCP server with the note tools.
type Server struct {
	mcp   *server.MCPServer
	store *notestate.Store
	notes *mutation.Coordinator
	ai    *assist.Coordinator
}

// New creates a new MCP server with all tools registered.
func New(store *notestate.Store, notes *mutation.Coordinator, ai *assist.Coordinator, version string) *Server {
	s := &Server{store: store, notes: notes, ai: ai}

	s.mcp = server.NewMCPServer(
		"NoteAI",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	filterKeys := make([]string, len(models.CategoryFilters))
	for i, f := range models.CategoryFilters {
		filterKeys[i] = string(f)
	}
	categoryKeys := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		categoryKeys[i] = string(c)
	}

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, optionally narrowed by a search term and a category filter. "+
			"Returns id, title, category, flags and a plain-text preview."),
		mcp.WithString("query", mcp.Description("Case-insensitive search over title and text")),
		mcp.WithString("category", mcp.Description("Category filter (default all)"), mcp.Enum(filterKeys...)),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note with its full HTML content and a plain-text rendering."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Read the format first via get_note_contract or "+formatURI+"."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Non-blank title")),
		mcp.WithString("content", mcp.Description("HTML content, e.g. <p>text</p>")),
		mcp.WithString("category", mcp.Description("Optional category"), mcp.Enum(categoryKeys...)),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Change the title, content or category of a note. Omitted fields are kept; "+
			"an empty category clears it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Description("New non-blank title")),
		mcp.WithString("content", mcp.Description("New HTML content")),
		mcp.WithString("category", mcp.Description("New category, or empty to clear")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note permanently."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Flip the favorite flag of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleFavorite)

	s.mcp.AddTool(mcp.NewTool("toggle_archive",
		mcp.WithDescription("Flip the archived flag of a note."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleArchive)

	s.mcp.AddTool(mcp.NewTool("refresh_notes",
		mcp.WithDescription("Reload all notes from the note store."),
	), s.refreshNotes)

	s.mcp.AddTool(mcp.NewTool("analyze_note",
		mcp.WithDescription("Suggest categories, a summary and improvements for some content (at least 10 characters)."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to analyze")),
		mcp.WithString("title", mcp.Description("Optional current title")),
	), s.analyzeNote)

	s.mcp.AddTool(mcp.NewTool("suggest_title",
		mcp.WithDescription("Suggest a title for some content."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content")),
	), s.suggestTitle)

	s.mcp.AddTool(mcp.NewTool("enhance_content",
		mcp.WithDescription("Return an improved version of some content. Nothing is saved."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note content")),
	), s.enhanceContent)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format and its rules. "+
			"Call this before creating or updating notes."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource(categoriesURI, "Categories",
			mcp.WithResourceDescription("The fixed category set and the list filter keys."),
			mcp.WithMIMEType("application/json"),
		),
		s.readCategoriesResource,
	)
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format",
			mcp.WithResourceDescription("Note fields and the rules they must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteSummary is the list_notes item shape.
type noteSummary struct {
	ID         models.NoteID   `json:"id"`
	Title      string          `json:"title"`
	Category   models.Category `json:"category,omitempty"`
	IsFavorite bool            `json:"is_favorite"`
	IsArchived bool            `json:"is_archived"`
	Preview    string          `json:"preview"`
}

type noteDetail struct {
	models.Note
	PlainText string `json:"plain_text"`
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult renders core errors for the model. Validation messages are
// passed through so the model can correct its input.
func errorResult(op string, err error) *mcp.CallToolResult {
	var re *apperr.RemoteError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return mcp.NewToolResultError(fmt.Sprintf("%s: invalid input: %v", op, err))
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("%s: note not found", op))
	case errors.As(err, &re):
		return mcp.NewToolResultError(fmt.Sprintf("%s: note store rejected the request: %s", op, re.Message))
	case errors.Is(err, apperr.ErrNetwork):
		return mcp.NewToolResultError(fmt.Sprintf("%s: note store unreachable", op))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", op, err))
	}
}

func preview(content string) string {
	r := []rune(filter.PlainText(content))
	if len(r) <= previewRunes {
		return string(r)
	}
	return string(r[:previewRunes]) + "…"
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := models.CategoryFilter(req.GetString("category", string(models.FilterAll)))
	if cat == "" {
		cat = models.FilterAll
	}
	if !cat.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown category filter %q", cat)), nil
	}
	notes := filter.Apply(s.store.Notes(), req.GetString("query", ""), cat)
	out := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteSummary{
			ID:         n.ID,
			Title:      n.Title,
			Category:   n.Category,
			IsFavorite: n.IsFavorite,
			IsArchived: n.IsArchived,
			Preview:    preview(n.Content),
		})
	}
	return jsonResult(out), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, ok := s.store.Note(models.NoteID(id))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(noteDetail{Note: n, PlainText: filter.PlainText(n.Content)}), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := models.Draft{
		Title:    title,
		Content:  req.GetString("content", ""),
		Category: models.Category(req.GetString("category", "")),
	}
	n, err := s.notes.CreateNote(ctx, d)
	if err != nil {
		return errorResult("create_note", err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var p models.NotePatch
	args := req.GetArguments()
	if v, ok := args["title"].(string); ok {
		p.Title = &v
	}
	if v, ok := args["content"].(string); ok {
		p.Content = &v
	}
	if v, ok := args["category"].(string); ok {
		c := models.Category(v)
		p.Category = &c
	}
	if p.Empty() {
		return mcp.NewToolResultError("nothing to update: pass title, content or category"), nil
	}

	n, err := s.notes.UpdateNote(ctx, models.NoteID(id), p)
	if err != nil {
		return errorResult("update_note", err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.DeleteNote(ctx, models.NoteID(id)); err != nil {
		return errorResult("delete_note", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) toggleFavorite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.notes.ToggleFavorite(ctx, models.NoteID(id))
	if err != nil {
		return errorResult("toggle_favorite", err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) toggleArchive(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.notes.ToggleArchive(ctx, models.NoteID(id))
	if err != nil {
		return errorResult("toggle_archive", err), nil
	}
	return jsonResult(n), nil
}

func (s *Server) refreshNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.notes.Refresh(ctx); err != nil {
		return errorResult("refresh_notes", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("loaded %d notes", len(s.store.Notes()))), nil
}

func (s *Server) analyzeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, _, err := s.ai.Analyze(ctx, content, req.GetString("title", ""))
	if err != nil {
		return errorResult("analyze_note", err), nil
	}
	return jsonResult(a), nil
}

func (s *Server) suggestTitle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, _, err := s.ai.SuggestTitle(ctx, content)
	if err != nil {
		return errorResult("suggest_title", err), nil
	}
	return mcp.NewToolResultText(title), nil
}

func (s *Server) enhanceContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _, err := s.ai.Enhance(ctx, content)
	if err != nil {
		return errorResult("enhance_content", err), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readCategoriesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	body, err := json.Marshal(map[string]any{
		"categories": models.Categories,
		"filters":    models.CategoryFilters,
	})
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      categoriesURI,
			MIMEType: "application/json",
			Text:     string(body),
		},
	}, nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
