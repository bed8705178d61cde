// Package http implements the HTTP transport for glass.
//
// It serves the web UI, the JSON assistant API under /api/, the health
// endpoints and the Swagger UI. Every API response is JSON; unmatched API
// paths get a JSON 404 and everything else an HTML page.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/nadzzz/glass/internal/capture"
	"github.com/nadzzz/glass/internal/config"
	"github.com/nadzzz/glass/internal/health"
	"github.com/nadzzz/glass/internal/message"
	"github.com/nadzzz/glass/internal/settings"
	"github.com/nadzzz/glass/internal/speech"
)

// Asker runs assistant requests and reports usage statistics.
type Asker interface {
	Handle(ctx context.Context, req message.AskRequest) *message.Result
	Stats() message.Stats
}

// Screenshotter captures the screen.
type Screenshotter interface {
	Take(ctx context.Context) (*capture.Shot, error)
}

// Listener records and transcribes one spoken phrase.
type Listener interface {
	Available() bool
	Listen(ctx context.Context) (string, error)
}

// Speaker reads text aloud.
type Speaker interface {
	Available() bool
	Speak(ctx context.Context, text string) (*speech.SpeakResult, error)
}

// Deps are the components the API routes delegate to. Screens, Listener and
// Speaker may be nil when the feature is not available on this host.
type Deps struct {
	Assistant Asker
	Screens   Screenshotter
	Listener  Listener
	Speaker   Speaker
	Settings  settings.Store
	Health    *health.Checker
}

// Transport implements transport.Transport over HTTP.
type Transport struct {
	cfg   config.ServerConfig
	deps  Deps
	pages *pages
	now   func() time.Time

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// New creates a new HTTP transport.
func New(cfg config.ServerConfig, deps Deps) (*Transport, error) {
	if deps.Assistant == nil {
		return nil, errors.New("http transport: assistant is required")
	}
	if deps.Settings == nil {
		deps.Settings = settings.NewMemory(message.DefaultSettings(false))
	}
	if deps.Health == nil {
		deps.Health = health.New()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 16 << 20
	}
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Transport{cfg: cfg, deps: deps, pages: p, now: time.Now}, nil
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the fully wrapped router.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", t.handleIndex)
	mux.HandleFunc("GET /detached", t.handleDetached)

	mux.HandleFunc("POST /api/screenshot", t.handleScreenshot)
	mux.HandleFunc("POST /api/listen", t.handleListen)
	mux.HandleFunc("POST /api/ask", t.handleAsk)
	mux.HandleFunc("POST /api/speak", t.handleSpeak)
	mux.HandleFunc("GET /api/settings", t.handleGetSettings)
	mux.HandleFunc("POST /api/settings", t.handleSaveSettings)
	mux.HandleFunc("GET /api/stats", t.handleStats)
	mux.HandleFunc("/api/", t.handleAPINotFound)

	t.deps.Health.Register(mux)

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	mux.HandleFunc("/", t.handlePageNotFound)

	return t.logRequests(t.recoverPanics(t.limitBody(mux)))
}

// Addr returns the listener address, or nil before Listen.
func (t *Transport) Addr() net.Addr {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.addr
}

// Listen starts the HTTP server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	lis, err := net.Listen("tcp", t.cfg.Address())
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}

	server := &http.Server{
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      t.cfg.WriteTimeout,
	}

	t.mu.Lock()
	t.server = server
	t.addr = lis.Addr()
	t.mu.Unlock()

	slog.Info("http transport listening", "addr", lis.Addr().String())

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http serve: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	server := t.server
	t.mu.Unlock()
	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func (t *Transport) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, t.cfg.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (t *Transport) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			slog.Error("internal server error", "method", r.Method, "path", r.URL.Path, "panic", rec)
			if isAPI(r) {
				t.writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error"})
				return
			}
			t.pages.render(w, http.StatusInternalServerError, "500.html", pageData{Path: r.URL.Path})
		}()
		next.ServeHTTP(w, r)
	})
}

func (t *Transport) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		level := slog.LevelInfo
		switch {
		case m.Code >= 500:
			level = slog.LevelError
		case r.URL.Path == "/health" || r.URL.Path == "/healthz" || r.URL.Path == "/readyz" ||
			strings.HasPrefix(r.URL.Path, "/swagger/"):
			level = slog.LevelDebug
		}
		slog.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration_ms", m.Duration.Milliseconds())
	})
}
