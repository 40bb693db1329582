package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileToken reads the bearer credential from a file and re-reads it when
// the file changes. The last good token is kept if a reload fails.
type FileToken struct {
	path   string
	logger *slog.Logger

	mu    sync.RWMutex
	token string
}

// NewFileToken loads the token at path. An empty or unreadable file is an
// error.
func NewFileToken(path string, logger *slog.Logger) (*FileToken, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("token file: %w", err)
	}
	f := &FileToken{path: abs, logger: logger}
	if err := f.reload(); err != nil {
		return nil, err
	}
	return f, nil
}

// Token returns the current token.
func (f *FileToken) Token() (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.token, nil
}

func (f *FileToken) reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("token file: %w", err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return errors.New("token file: empty")
	}
	f.mu.Lock()
	f.token = tok
	f.mu.Unlock()
	return nil
}

// Watch reloads the token whenever its file is written, created or
// replaced, until ctx is cancelled. The parent directory is watched so
// editors that swap the file by rename are picked up.
func (f *FileToken) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(f.path)); err != nil {
		return fmt.Errorf("token watcher: %w", err)
	}
	f.logger.Info("token watcher: started", slog.String("path", f.path))

	// Debounce bursts of events from a single save.
	var debounce *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			f.logger.Info("token watcher: stopped")
			return nil

		case <-debounceCh:
			debounceCh = nil
			if err := f.reload(); err != nil {
				f.logger.Warn("token watcher: reload failed", slog.String("error", err.Error()))
				continue
			}
			f.logger.Info("token watcher: token reloaded")

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(50 * time.Millisecond)
			} else {
				debounce.Reset(50 * time.Millisecond)
			}
			debounceCh = debounce.C

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			f.logger.Error("token watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
