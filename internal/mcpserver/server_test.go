package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/mutation"
	"github.com/starford/noteai/internal/notestate"
	"github.com/starford/noteai/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, client := testutil.TestRemote(t)
	store := notestate.NewStore(nil, events.Nop{})
	notes := mutation.New(client, store, events.Nop{}, nil)
	ai := assist.New(client, events.Nop{}, nil)
	return New(store, notes, ai, "test")
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "toggle_favorite":
		result, err = srv.toggleFavorite(ctx, req)
	case "toggle_archive":
		result, err = srv.toggleArchive(ctx, req)
	case "refresh_notes":
		result, err = srv.refreshNotes(ctx, req)
	case "analyze_note":
		result, err = srv.analyzeNote(ctx, req)
	case "suggest_title":
		result, err = srv.suggestTitle(ctx, req)
	case "enhance_content":
		result, err = srv.enhanceContent(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func createNote(t *testing.T, srv *Server, args map[string]interface{}) models.Note {
	t.Helper()
	r := callTool(t, srv, "create_note", args)
	require.False(t, r.IsError, resultText(r))
	var n models.Note
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &n))
	return n
}

func TestCreateAndReadNote(t *testing.T) {
	srv := testServer(t)

	n := createNote(t, srv, map[string]interface{}{
		"title":    "  Groceries ",
		"content":  "<p>Buy <b>milk</b></p>",
		"category": "personal",
	})
	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "Groceries", n.Title)
	assert.Equal(t, models.CategoryPersonal, n.Category)

	r := callTool(t, srv, "read_note", map[string]interface{}{"id": n.ID.String()})
	require.False(t, r.IsError, resultText(r))
	var got noteDetail
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &got))
	assert.Equal(t, "<p>Buy <b>milk</b></p>", got.Content)
	assert.Equal(t, "Buy milk", got.PlainText)
}

func TestCreateNoteBlankTitle(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "   ", "content": "<p>x</p>"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "invalid input")
}

func TestCreateNoteUnknownCategory(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title": "x", "content": "<p>x</p>", "category": "shopping",
	})
	assert.True(t, r.IsError)
}

func TestListNotes(t *testing.T) {
	srv := testServer(t)
	createNote(t, srv, map[string]interface{}{"title": "Standup", "content": "<p>Team sync</p>", "category": "meeting"})
	createNote(t, srv, map[string]interface{}{"title": "Garden", "content": "<p>Plant tomatoes</p>"})

	list := func(args map[string]interface{}) []noteSummary {
		r := callTool(t, srv, "list_notes", args)
		require.False(t, r.IsError, resultText(r))
		var out []noteSummary
		require.NoError(t, json.Unmarshal([]byte(resultText(r)), &out))
		return out
	}

	assert.Len(t, list(map[string]interface{}{}), 2)

	meetings := list(map[string]interface{}{"category": "meeting"})
	require.Len(t, meetings, 1)
	assert.Equal(t, "Standup", meetings[0].Title)
	assert.Equal(t, "Team sync", meetings[0].Preview)

	found := list(map[string]interface{}{"query": "TOMATO"})
	require.Len(t, found, 1)
	assert.Equal(t, "Garden", found[0].Title)

	r := callTool(t, srv, "list_notes", map[string]interface{}{"category": "nope"})
	assert.True(t, r.IsError)
}

func TestReadNoteMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": "999"})
	assert.True(t, r.IsError)
}

func TestUpdateNote(t *testing.T) {
	srv := testServer(t)
	n := createNote(t, srv, map[string]interface{}{"title": "Draft", "content": "<p>one</p>", "category": "work"})

	r := callTool(t, srv, "update_note", map[string]interface{}{
		"id":       n.ID.String(),
		"title":    "Final",
		"category": "ideas",
	})
	require.False(t, r.IsError, resultText(r))

	got, ok := srv.store.Note(n.ID)
	require.True(t, ok)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, "<p>one</p>", got.Content)
	assert.Equal(t, models.CategoryIdeas, got.Category)

	r = callTool(t, srv, "update_note", map[string]interface{}{"id": n.ID.String()})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "nothing to update")

	r = callTool(t, srv, "update_note", map[string]interface{}{"id": n.ID.String(), "title": " "})
	assert.True(t, r.IsError)
}

func TestToggleAndDelete(t *testing.T) {
	srv := testServer(t)
	n := createNote(t, srv, map[string]interface{}{"title": "Keep", "content": "<p>x</p>"})

	r := callTool(t, srv, "toggle_favorite", map[string]interface{}{"id": n.ID.String()})
	require.False(t, r.IsError, resultText(r))
	r = callTool(t, srv, "toggle_archive", map[string]interface{}{"id": n.ID.String()})
	require.False(t, r.IsError, resultText(r))

	got, _ := srv.store.Note(n.ID)
	assert.True(t, got.IsFavorite)
	assert.True(t, got.IsArchived)

	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": n.ID.String()})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "deleted: "+n.ID.String(), resultText(r))
	_, ok := srv.store.Note(n.ID)
	assert.False(t, ok)

	r = callTool(t, srv, "delete_note", map[string]interface{}{"id": n.ID.String()})
	assert.True(t, r.IsError)
}

func TestRefreshNotes(t *testing.T) {
	srv := testServer(t)
	createNote(t, srv, map[string]interface{}{"title": "A", "content": "<p>a</p>"})
	srv.store.SetNotes(nil)

	r := callTool(t, srv, "refresh_notes", map[string]interface{}{})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "loaded 1 notes", resultText(r))
	assert.Len(t, srv.store.Notes(), 1)
}

func TestAnalyzeNote(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "analyze_note", map[string]interface{}{"content": "too short"})
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "invalid input")

	r = callTool(t, srv, "analyze_note", map[string]interface{}{
		"content": "<p>Agenda for the team meeting.</p>",
	})
	require.False(t, r.IsError, resultText(r))
	var a models.Analysis
	require.NoError(t, json.Unmarshal([]byte(resultText(r)), &a))
	assert.Contains(t, a.SuggestedCategories, "meeting")
}

func TestSuggestTitleAndEnhance(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "suggest_title", map[string]interface{}{"content": "<p>Weekly review. More later</p>"})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "Weekly review", resultText(r))

	r = callTool(t, srv, "enhance_content", map[string]interface{}{"content": "so i think"})
	require.False(t, r.IsError, resultText(r))
	assert.Equal(t, "so I think.", resultText(r))

	r = callTool(t, srv, "enhance_content", map[string]interface{}{"content": "  "})
	assert.True(t, r.IsError)
}

func TestGetNoteContract(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]interface{}{})
	text := resultText(r)
	assert.Contains(t, text, "# NoteAI Note Format")
	assert.Contains(t, text, "meeting")
}

func TestCategoriesResource(t *testing.T) {
	srv := testServer(t)
	contents, err := srv.readCategoriesResource(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	tc, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.True(t, strings.Contains(tc.Text, `"favorites"`))
	assert.True(t, strings.Contains(tc.Text, `"project"`))
}
