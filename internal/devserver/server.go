package devserver

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/models"
)

// Server serves the remote note store contract.
type Server struct {
	db     *DB
	token  string
	logger *slog.Logger
}

// NewServer creates a server over db. A non-empty token is required as a
// Bearer credential on every request.
func NewServer(db *DB, token string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{db: db, token: token, logger: logger}
}

// Handler returns the routes, mounted under /api like the production
// remote.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/notes", s.listNotes)
		r.Post("/notes", s.createNote)
		r.Get("/notes/{id}", s.getNote)
		r.Put("/notes/{id}", s.updateNote)
		r.Patch("/notes/{id}", s.updateNote)
		r.Delete("/notes/{id}", s.deleteNote)
		r.Delete("/notes/delete/{id}", s.deleteNote)
		r.Patch("/notes/{id}/favorite", s.toggle("is_favorite"))
		r.Patch("/notes/{id}/archive", s.toggle("is_archived"))

		r.Post("/ai/analyze", s.aiAnalyze)
		r.Post("/ai/enhance", s.aiEnhance)
		r.Post("/ai/title", s.aiTitle)
	})
	return r
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" {
			next.ServeHTTP(w, r)
			return
		}
		got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(s.token)) != 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// noteDTO is the wire shape of a note. category is null when unset and
// author is echoed like the production remote does.
type noteDTO struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   *string   `json:"category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	IsFavorite bool      `json:"is_favorite"`
	IsArchived bool      `json:"is_archived"`
	Author     string    `json:"author"`
}

func toDTO(n NoteRow) noteDTO {
	d := noteDTO{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
		IsFavorite: n.IsFavorite,
		IsArchived: n.IsArchived,
		Author:     "dev",
	}
	if n.Category != "" {
		c := n.Category
		d.Category = &c
	}
	return d
}

type noteInputDTO struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

// validate mirrors the production serializer: title and content must not
// be blank, category must be one of the fixed set. Title is stored trimmed.
func (in *noteInputDTO) validate(create bool) error {
	errs := validation.Errors{}
	if create || in.Title != nil {
		errs["title"] = validation.Validate(strings.TrimSpace(deref(in.Title)),
			validation.Required.Error("Title cannot be empty."))
	}
	if create || in.Content != nil {
		errs["content"] = validation.Validate(strings.TrimSpace(deref(in.Content)),
			validation.Required.Error("Content cannot be empty."))
	}
	if in.Category != nil && !models.Category(*in.Category).Valid() {
		errs["category"] = fmt.Errorf("%q is not a valid choice.", *in.Category)
	}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
	}
	return errs.Filter()
}

func (in noteInputDTO) input() NoteInput {
	return NoteInput{Title: in.Title, Content: in.Content, Category: in.Category}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

// writeValidation renders field errors as {"field": ["message"]}.
func writeValidation(w http.ResponseWriter, err error) {
	out := map[string][]string{}
	var errs validation.Errors
	if errors.As(err, &errs) {
		for k, e := range errs {
			if e != nil {
				out[k] = []string{e.Error()}
			}
		}
	} else {
		out["non_field_errors"] = []string{err.Error()}
	}
	writeJSON(w, http.StatusBadRequest, out)
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
		return
	}
	s.logger.Error("devserver: "+op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return false
	}
	return true
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := s.db.ListNotes(r.Context(), ListQuery{Category: q.Get("category"), Search: q.Get("search")})
	if err != nil {
		s.fail(w, "list notes", err)
		return
	}
	out := make([]noteDTO, 0, len(rows))
	for _, n := range rows {
		out = append(out, toDTO(n))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	n, err := s.db.GetNote(r.Context(), id)
	if err != nil {
		s.fail(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(n))
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var in noteInputDTO
	if !decode(w, r, &in) {
		return
	}
	if err := in.validate(true); err != nil {
		writeValidation(w, err)
		return
	}
	n, err := s.db.CreateNote(r.Context(), in.input())
	if err != nil {
		s.fail(w, "create note", err)
		return
	}
	s.logger.Debug("devserver: note created", slog.Int64("id", n.ID))
	writeJSON(w, http.StatusCreated, toDTO(n))
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in noteInputDTO
	if !decode(w, r, &in) {
		return
	}
	if err := in.validate(false); err != nil {
		writeValidation(w, err)
		return
	}
	n, err := s.db.UpdateNote(r.Context(), id, in.input())
	if err != nil {
		s.fail(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, toDTO(n))
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.db.DeleteNote(r.Context(), id); err != nil {
		s.fail(w, "delete note", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) toggle(column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		n, err := s.db.ToggleFlag(r.Context(), id, column)
		if err != nil {
			s.fail(w, "toggle", err)
			return
		}
		writeJSON(w, http.StatusOK, toDTO(n))
	}
}

type aiRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

func (s *Server) aiAnalyze(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Content is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ai_suggestions": analyze(req.Content, req.Title)})
}

func (s *Server) aiEnhance(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Content is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"enhancement": map[string]any{
			"enhanced_content": enhance(req.Content),
			"ai_powered":       true,
		},
	})
}

func (s *Server) aiTitle(w http.ResponseWriter, r *http.Request) {
	var req aiRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Content is required"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggested_title": suggestTitle(req.Content)})
}
