// Package assist requests AI suggestions for a draft. It never touches the
// note list: callers merge accepted results into their draft with
// models.Draft.Apply.
package assist

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/noteai/internal/apperr"
	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/models"
)

// MinAnalyzeLength is the shortest content, in characters, worth analyzing.
const MinAnalyzeLength = 10

// Remote is the AI surface of the remote store client.
type Remote interface {
	Analyze(ctx context.Context, content, title string) (models.Analysis, error)
	Enhance(ctx context.Context, content string) (string, error)
	SuggestTitle(ctx context.Context, content string) (string, error)
}

// Kind names an assist operation.
type Kind string

// Assist kinds.
const (
	KindAnalyze Kind = "analyze"
	KindEnhance Kind = "enhance"
	KindTitle   Kind = "title"
)

// Ticket identifies one request. Only the newest ticket of a kind is
// current; results of older ones are superseded.
type Ticket struct {
	Kind Kind   `json:"kind"`
	Seq  uint64 `json:"seq"`
}

// Coordinator validates input, calls the AI endpoints and reports
// outcomes.
type Coordinator struct {
	remote Remote
	sink   events.Sink
	logger *slog.Logger

	mu     sync.Mutex
	latest map[Kind]uint64
}

// New creates a coordinator.
func New(remote Remote, sink events.Sink, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = events.Nop{}
	}
	return &Coordinator{remote: remote, sink: sink, logger: logger, latest: make(map[Kind]uint64)}
}

func (c *Coordinator) issue(k Kind) Ticket {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest[k]++
	return Ticket{Kind: k, Seq: c.latest[k]}
}

// Current reports whether t is the newest ticket of its kind.
func (c *Coordinator) Current(t Ticket) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t.Seq != 0 && c.latest[t.Kind] == t.Seq
}

// Analyze asks for category suggestions, a summary and enhancement hints.
// Content shorter than MinAnalyzeLength is rejected without a request.
func (c *Coordinator) Analyze(ctx context.Context, content, title string) (models.Analysis, Ticket, error) {
	if err := apperr.FromValidation(validation.Errors{
		"content": validation.Validate(content, validation.Required, validation.RuneLength(MinAnalyzeLength, 0)),
	}.Filter()); err != nil {
		c.sink.Notify(apperr.Notice{Level: apperr.LevelWarning, Message: "Please write some content first"})
		return models.Analysis{}, Ticket{}, err
	}

	t := c.issue(KindAnalyze)
	a, err := c.remote.Analyze(ctx, content, title)
	if err != nil {
		c.fail(t, "AI analysis failed", err)
		return models.Analysis{}, t, err
	}
	c.succeed(t, "AI analysis complete!")
	return a, t, nil
}

// Enhance asks for a rewritten version of content.
func (c *Coordinator) Enhance(ctx context.Context, content string) (string, Ticket, error) {
	if err := requireContent(content); err != nil {
		return "", Ticket{}, err
	}

	t := c.issue(KindEnhance)
	out, err := c.remote.Enhance(ctx, content)
	if err != nil {
		c.fail(t, "Content enhancement failed", err)
		return "", t, err
	}
	c.succeed(t, "Content enhanced by AI!")
	return out, t, nil
}

// SuggestTitle asks for a title that fits content.
func (c *Coordinator) SuggestTitle(ctx context.Context, content string) (string, Ticket, error) {
	if err := requireContent(content); err != nil {
		return "", Ticket{}, err
	}

	t := c.issue(KindTitle)
	out, err := c.remote.SuggestTitle(ctx, content)
	if err != nil {
		c.fail(t, "Title generation failed", err)
		return "", t, err
	}
	c.succeed(t, "Smart title generated!")
	return out, t, nil
}

func requireContent(content string) error {
	return apperr.FromValidation(validation.Errors{
		"content": validation.Validate(strings.TrimSpace(content), validation.Required),
	}.Filter())
}

func (c *Coordinator) fail(t Ticket, msg string, err error) {
	c.logger.Error("assist request failed",
		slog.String("kind", string(t.Kind)),
		slog.String("error", err.Error()))
	if c.Current(t) {
		c.sink.Notify(apperr.Notification(msg, err))
	}
}

func (c *Coordinator) succeed(t Ticket, msg string) {
	if c.Current(t) {
		c.sink.Notify(apperr.Notice{Level: apperr.LevelSuccess, Message: msg})
	}
}
