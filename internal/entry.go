// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/noteai/internal/api"
	"github.com/starford/noteai/internal/assist"
	"github.com/starford/noteai/internal/devserver"
	"github.com/starford/noteai/internal/editor"
	"github.com/starford/noteai/internal/events"
	"github.com/starford/noteai/internal/mcpserver"
	"github.com/starford/noteai/internal/mutation"
	"github.com/starford/noteai/internal/notestate"
	"github.com/starford/noteai/internal/remote"
)

var errConfigRequired = errors.New("config is required")

// core is the client core shared by the bridge and the MCP server.
type core struct {
	store  *notestate.Store
	notes  *mutation.Coordinator
	ai     *assist.Coordinator
	editor *editor.Session
	// watch keeps the token file current; nil for a static token.
	watch func(context.Context) error
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newCore(cfg *Config, sink events.Sink, logger *slog.Logger) (*core, error) {
	if err := cfg.Remote.RequireCredential(); err != nil {
		return nil, err
	}
	c := &core{}

	var tokens remote.TokenSource
	if cfg.Remote.Token != "" {
		tokens = remote.StaticToken(cfg.Remote.Token)
	} else {
		ft, err := remote.NewFileToken(cfg.Remote.TokenFile, logger)
		if err != nil {
			return nil, fmt.Errorf("init token file: %w", err)
		}
		tokens = ft
		c.watch = ft.Watch
	}

	client := remote.New(cfg.Remote.BaseURL, tokens,
		remote.WithTimeout(cfg.Remote.Timeout),
		remote.WithTrailingSlash(cfg.Remote.TrailingSlash),
		remote.WithLogger(logger),
	)

	c.store = notestate.NewStore(logger, sink)
	c.notes = mutation.New(client, c.store, sink, logger)
	c.ai = assist.New(client, sink, logger)
	c.editor = editor.NewSession(c.store, c.notes, c.ai, sink, logger)
	return c, nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Run starts the bridge: the client core behind an HTTP API with an SSE
// event stream.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	logger.Info("configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("remote_base_url", cfg.Remote.BaseURL),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := events.NewBroker(cfg.Events.Throttle, cfg.Events.Buffer)
	broker.Heartbeat = 15 * time.Second
	defer broker.Close()

	c, err := newCore(cfg, broker, logger)
	if err != nil {
		return err
	}

	h := api.NewHandler(c.store, c.notes, c.ai, c.editor)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(log.New(os.Stdout, "", log.LstdFlags)))
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", healthHandler)

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if c.watch != nil {
		g.Go(func() error {
			if err := c.watch(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("token watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Initial load. A failure is already notified; the user can refresh.
	g.Go(func() error {
		if err := c.notes.Refresh(gCtx); err != nil {
			logger.Warn("initial refresh failed", slog.String("error", err.Error()))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return shutdownOnSignal(gCtx, logger, httpServer)
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped successfully")
	return nil
}

// RunMCP serves the client core as MCP tools over stdio. Logs go to
// stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(os.Stderr, cfg.App.LogLevel)

	c, err := newCore(cfg, events.Nop{}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c.watch != nil {
		go func() {
			if err := c.watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("token watcher stopped", slog.String("error", err.Error()))
			}
		}()
	}

	if err := c.notes.Refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(c.store, c.notes, c.ai, app.version)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}

// RunDevServer starts the development remote backed by SQLite.
func RunDevServer(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := newLogger(os.Stdout, cfg.App.LogLevel)
	logger.Info("development remote configured",
		slog.String("address", cfg.DevServer.Address()),
		slog.String("sqlite_path", cfg.DevServer.SQLitePath),
		slog.Bool("token_required", cfg.DevServer.Token != ""))

	db, err := devserver.Open(ctx, cfg.DevServer.SQLitePath)
	if err != nil {
		return fmt.Errorf("init dev database: %w", err)
	}
	defer db.Close()

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", healthHandler)
	r.Mount("/", devserver.NewServer(db, cfg.DevServer.Token, logger).Handler())

	httpServer := &http.Server{
		Addr:              cfg.DevServer.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting development remote", slog.String("address", cfg.DevServer.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return shutdownOnSignal(gCtx, logger, httpServer)
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}
	logger.Info("development remote stopped")
	return nil
}

func shutdownOnSignal(ctx context.Context, logger *slog.Logger, srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context cancelled, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
	}
	return nil
}
