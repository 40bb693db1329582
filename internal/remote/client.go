// Package remote is the HTTP client for the remote note store and its AI
// endpoints.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/models"
)

const defaultTimeout = 15 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 10 << 20

// TokenSource supplies the bearer credential attached to every request.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed bearer credential.
type StaticToken string

// Token returns the token.
func (t StaticToken) Token() (string, error) { return string(t), nil }

// Client talks to the remote store.
type Client struct {
	baseURL       string
	trailingSlash bool
	tokens        TokenSource
	http          *http.Client
	logger        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithTrailingSlash appends "/" to every path, for remotes that route
// "/notes/" but not "/notes".
func WithTrailingSlash(on bool) Option {
	return func(c *Client) { c.trailingSlash = on }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the remote rooted at baseURL (e.g.
// "https://notes.example.com/api").
func New(baseURL string, tokens TokenSource, opts ...Option) *Client {
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListNotes fetches every note (GET /notes).
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var raw []wireNote
	if err := c.doJSON(ctx, http.MethodGet, "/notes", nil, &raw); err != nil {
		return nil, err
	}
	notes := make([]models.Note, 0, len(raw))
	for i, w := range raw {
		n, err := w.toNote()
		if err != nil {
			return nil, fmt.Errorf("GET /notes: item %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// CreateNote creates a note (POST /notes) and returns it as persisted.
func (c *Client) CreateNote(ctx context.Context, req models.CreateNoteRequest) (models.Note, error) {
	return c.noteCall(ctx, http.MethodPost, "/notes", req)
}

// UpdateNote applies patch to note id (PUT /notes/{id}).
func (c *Client) UpdateNote(ctx context.Context, id models.NoteID, patch models.NotePatch) (models.Note, error) {
	return c.noteCall(ctx, http.MethodPut, notePath(id), patch)
}

// DeleteNote deletes note id (DELETE /notes/{id}).
func (c *Client) DeleteNote(ctx context.Context, id models.NoteID) error {
	return c.doJSON(ctx, http.MethodDelete, notePath(id), nil, nil)
}

// ToggleFavorite flips is_favorite (PATCH /notes/{id}/favorite).
func (c *Client) ToggleFavorite(ctx context.Context, id models.NoteID) (models.Note, error) {
	return c.noteCall(ctx, http.MethodPatch, notePath(id)+"/favorite", nil)
}

// ToggleArchive flips is_archived (PATCH /notes/{id}/archive).
func (c *Client) ToggleArchive(ctx context.Context, id models.NoteID) (models.Note, error) {
	return c.noteCall(ctx, http.MethodPatch, notePath(id)+"/archive", nil)
}

// Analyze requests category, summary and enhancement suggestions
// (POST /ai/analyze).
func (c *Client) Analyze(ctx context.Context, content, title string) (models.Analysis, error) {
	var resp analyzeResponse
	body := map[string]string{"content": content, "title": title}
	if err := c.doJSON(ctx, http.MethodPost, "/ai/analyze", body, &resp); err != nil {
		return models.Analysis{}, err
	}
	return resp.toAnalysis()
}

// Enhance requests a rewritten version of content (POST /ai/enhance).
func (c *Client) Enhance(ctx context.Context, content string) (string, error) {
	var resp enhanceResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai/enhance", map[string]string{"content": content}, &resp); err != nil {
		return "", err
	}
	return resp.enhanced()
}

// SuggestTitle requests a title for content (POST /ai/title).
func (c *Client) SuggestTitle(ctx context.Context, content string) (string, error) {
	var resp titleResponse
	if err := c.doJSON(ctx, http.MethodPost, "/ai/title", map[string]string{"content": content}, &resp); err != nil {
		return "", err
	}
	if resp.SuggestedTitle == nil {
		return "", fmt.Errorf("POST /ai/title: suggested_title missing: %w", apperr.ErrParse)
	}
	return *resp.SuggestedTitle, nil
}

func notePath(id models.NoteID) string {
	return "/notes/" + url.PathEscape(id.String())
}

func (c *Client) noteCall(ctx context.Context, method, path string, body any) (models.Note, error) {
	var w wireNote
	if err := c.doJSON(ctx, method, path, body, &w); err != nil {
		return models.Note{}, err
	}
	n, err := w.toNote()
	if err != nil {
		return models.Note{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return n, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	op := method + " " + path

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if c.trailingSlash {
		target += "/"
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("%s: load token: %w", op, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("remote request failed",
			slog.String("op", op),
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		return &apperr.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("remote request",
		slog.String("op", op),
		slog.String("request_id", reqID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeRemoteError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return &apperr.NetworkError{Op: op, Err: err}
		}
		return fmt.Errorf("%s: %w: %v", op, apperr.ErrParse, err)
	}
	return nil
}

// decodeRemoteError extracts the most useful message from an error body.
// It understands {"error": "..."}, {"detail": "..."} and per-field
// {"title": ["..."]} shapes.
func decodeRemoteError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := ""
	var payload map[string]any
	if json.Unmarshal(data, &payload) == nil {
		msg = messageFrom(payload)
	}
	if msg == "" {
		msg = resp.Status
	}
	return &apperr.RemoteError{StatusCode: resp.StatusCode, Message: msg}
}

func messageFrom(payload map[string]any) string {
	for _, key := range []string{"error", "detail", "message"} {
		if s, ok := payload[key].(string); ok && s != "" {
			return s
		}
	}
	for key, v := range payload {
		switch val := v.(type) {
		case string:
			return key + ": " + val
		case []any:
			if len(val) > 0 {
				if s, ok := val[0].(string); ok {
					return key + ": " + s
				}
			}
		}
	}
	return ""
}
