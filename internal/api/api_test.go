package api

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/editor"
	"github.com/starford/noteai/internal/models"
	"github.com/starford/noteai/internal/mutation"
	"github.com/starford/noteai/internal/notestate"
	"github.com/starford/noteai/internal/testutil"
)

// testEnv wires the core against an in-process development remote.
// An empty authToken means disabled auth.
func testEnv(t *testing.T, authToken string) (*notestate.Store, http.Handler) {
	t.Helper()
	_, client := testutil.TestRemote(t)

	store := notestate.NewStore(nil, nil)
	notes := mutation.New(client, store, nil, nil)
	ai := assist.New(client, nil, nil)
	ed := editor.NewSession(store, notes, ai, nil, nil)

	h := NewHandler(store, notes, ai, ed)
	return store, NewRouter(h, authToken != "", authToken, nil)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createNote(t *testing.T, h http.Handler, title, content string, cat models.Category) models.Note {
	t.Helper()
	w := do(t, h, http.MethodPost, "/notes", models.Draft{Title: title, Content: content, Category: cat})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[models.Note](t, w)
}

func TestAuthMiddleware(t *testing.T) {
	_, router := testEnv(t, "bridge-token")

	w := do(t, router, http.MethodGet, "/state", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	req.Header.Set("Authorization", "Bearer bridge-token")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Only the event stream takes the token from the query string.
	w = do(t, router, http.MethodGet, "/state?access_token=bridge-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Bearer realm="noteai"`, w.Header().Get("WWW-Authenticate"))
}

func streamRouter(t *testing.T, token string) http.Handler {
	t.Helper()
	sse := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return NewRouter(NewHandler(nil, nil, nil, nil), true, token, sse)
}

func TestEventStreamAcceptsQueryToken(t *testing.T) {
	router := streamRouter(t, "bridge-token")

	w := do(t, router, http.MethodGet, "/events?access_token=bridge-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/events?access_token=wrong", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, router, http.MethodGet, "/events", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLoggerMasksQueryToken(t *testing.T) {
	var buf bytes.Buffer
	r := chi.NewRouter()
	r.Use(RequestLogger(log.New(&buf, "", 0)))
	r.Mount("/api", streamRouter(t, "s3cret-token"))

	w := do(t, r, http.MethodGet, "/api/events?access_token=s3cret-token&x=1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	out := buf.String()
	assert.NotContains(t, out, "s3cret-token")
	assert.Contains(t, out, "access_token=REDACTED")
	assert.Contains(t, out, "/api/events")
}

func TestStateDefaults(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, w.Code)
	snap := decode[map[string]any](t, w)
	assert.Equal(t, "all", snap["selected_category"])
	assert.Equal(t, "grid", snap["view_mode"])
	assert.Equal(t, false, snap["editor_open"])
}

func TestCreateListRefresh(t *testing.T) {
	store, router := testEnv(t, "")

	a := createNote(t, router, "Alpha", "<p>team agenda</p>", models.CategoryMeeting)
	b := createNote(t, router, "Beta", "<p>groceries</p>", models.CategoryNone)

	w := do(t, router, http.MethodGet, "/notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[NotesResponse](t, w)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, b.ID, list.Notes[0].ID)
	assert.Equal(t, a.ID, list.Notes[1].ID)

	w = do(t, router, http.MethodGet, "/notes?q=AGENDA", nil)
	list = decode[NotesResponse](t, w)
	require.Len(t, list.Notes, 1)
	assert.Equal(t, a.ID, list.Notes[0].ID)

	w = do(t, router, http.MethodGet, "/notes?category=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	store.SetNotes(nil)
	w = do(t, router, http.MethodPost, "/notes/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.Notes(), 2)
}

func TestCreateValidation(t *testing.T) {
	store, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", models.Draft{Title: "  ", Content: "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.Notes())

	w = do(t, router, http.MethodPost, "/notes", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoteRejectionIsBadGateway(t *testing.T) {
	store, router := testEnv(t, "")

	// The development remote rejects blank content.
	w := do(t, router, http.MethodPost, "/notes", models.Draft{Title: "t", Content: " "})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Content cannot be empty.")
	assert.Empty(t, store.Notes())
}

func TestUpdateDeleteToggle(t *testing.T) {
	store, router := testEnv(t, "")
	n := createNote(t, router, "Alpha", "body", models.CategoryNone)
	path := "/notes/" + n.ID.String()

	w := do(t, router, http.MethodPut, path, map[string]any{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got, _ := store.Note(n.ID)
	assert.Equal(t, "Renamed", got.Title)

	w = do(t, router, http.MethodPut, path, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, path+"/favorite", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, _ = store.Note(n.ID)
	assert.True(t, got.IsFavorite)

	w = do(t, router, http.MethodPost, path+"/archive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got, _ = store.Note(n.ID)
	assert.True(t, got.IsArchived)

	w = do(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, store.Notes())

	w = do(t, router, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = do(t, router, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUIState(t *testing.T) {
	store, router := testEnv(t, "")
	n := createNote(t, router, "Alpha", "body", models.CategoryWork)

	w := do(t, router, http.MethodPut, "/ui/search", SearchRequest{Term: "alp"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alp", store.Snapshot().SearchTerm)

	w = do(t, router, http.MethodPut, "/ui/category", CategoryRequest{Category: "personal"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.FilteredNotes())

	w = do(t, router, http.MethodPut, "/ui/category", CategoryRequest{Category: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CategoryFilter("personal"), store.Snapshot().SelectedCategory)

	w = do(t, router, http.MethodPut, "/ui/view-mode", ViewModeRequest{Mode: models.ViewList})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ViewList, store.Snapshot().ViewMode)

	w = do(t, router, http.MethodPut, "/ui/creating", CreatingRequest{Creating: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, store.IsCreating())

	w = do(t, router, http.MethodPut, "/ui/selection", map[string]any{"id": n.ID})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.SelectedNote())
	assert.Equal(t, n.ID, store.SelectedNote().ID)

	w = do(t, router, http.MethodPut, "/ui/selection", map[string]any{"id": nil})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, store.SelectedNote())

	w = do(t, router, http.MethodPut, "/ui/selection", map[string]any{"id": "999999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditorFlow(t *testing.T) {
	store, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/editor/new", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, editor.ModeNew, decode[editor.View](t, w).Mode)

	title := "Standup"
	content := "<p>Team meeting agenda. Discuss the project deadline.</p>"
	w = do(t, router, http.MethodPatch, "/editor", editor.DraftUpdate{Title: &title, Content: &content})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[editor.View](t, w).Dirty)

	w = do(t, router, http.MethodPost, "/editor/ai/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	a := decode[models.Analysis](t, w)
	require.NotEmpty(t, a.SuggestedCategories)

	w = do(t, router, http.MethodPost, "/editor/ai/category", CategoryRequest{Category: a.SuggestedCategories[0]})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Category(a.SuggestedCategories[0]), decode[editor.View](t, w).Draft.Category)

	w = do(t, router, http.MethodPost, "/editor/save", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	saved := decode[models.Note](t, w)

	w = do(t, router, http.MethodGet, "/editor", nil)
	v := decode[editor.View](t, w)
	assert.Equal(t, editor.ModeEdit, v.Mode)
	assert.Equal(t, saved.ID, v.NoteID)
	assert.False(t, store.IsCreating())

	w = do(t, router, http.MethodPost, "/editor/ai/title", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Team meeting agenda", decode[TitleResponse](t, w).SuggestedTitle)

	w = do(t, router, http.MethodPost, "/editor/close", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Snapshot().EditorOpen)

	w = do(t, router, http.MethodPost, "/editor/open/"+saved.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, saved.ID, store.SelectedNote().ID)

	w = do(t, router, http.MethodPost, "/editor/open/424242", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEditorClosedConflicts(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/editor/save", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestStatelessAssists(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/ai/analyze", AssistRequest{Content: "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/ai/analyze", AssistRequest{Content: "Brainstorm a new concept for the app"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[AnalyzeResponse](t, w)
	assert.Equal(t, []string{"ideas"}, resp.Analysis.SuggestedCategories)
	assert.Equal(t, assist.KindAnalyze, resp.Ticket.Kind)

	w = do(t, router, http.MethodPost, "/ai/enhance", AssistRequest{Content: "so i think"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "so I think.", decode[EnhanceResponse](t, w).EnhancedContent)

	w = do(t, router, http.MethodPost, "/ai/title", AssistRequest{Content: ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
