package server

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmr-tortoise/cardpunch/internal/engine"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Defaults for Config fields left at their zero value.
const (
	DefaultAddr      = ":8080"
	DefaultMaxUpload = 8000
	DefaultMaxRepeat = 50
	DefaultDPI       = 150

	shutdownTimeout = 5 * time.Second
)

// Config holds the server's tunables.
type Config struct {
	// Addr is the listen address.
	Addr string

	// MaxUpload is the largest accepted payload in bytes.
	MaxUpload int64

	// MaxRepeat caps vertical_repeat so one request cannot ask for an
	// unbounded drawing.
	MaxRepeat int

	// DPI is the resolution of PNG responses.
	DPI float64

	// Logger receives request logs. Nil discards them.
	Logger *slog.Logger

	// Now stamps generated file names. Nil uses time.Now.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.MaxUpload <= 0 {
		c.MaxUpload = DefaultMaxUpload
	}
	if c.MaxRepeat <= 0 {
		c.MaxRepeat = DefaultMaxRepeat
	}
	if c.DPI <= 0 {
		c.DPI = DefaultDPI
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Server serves the card generator over HTTP.
type Server struct {
	engine  *engine.Engine
	cfg     Config
	handler http.Handler
	server  *http.Server
}

// New returns a Server for the given engine.
func New(e *engine.Engine, cfg Config) *Server {
	s := &Server{engine: e, cfg: cfg.withDefaults()}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleForm)
	mux.HandleFunc("GET /pcgenerator/{$}", s.handleForm)
	mux.HandleFunc("POST /pcgenerator/{$}", s.handleGenerate)
	mux.HandleFunc("GET /calculator/{$}", s.handleCalculator)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.handler = s.withRequestLog(mux)
	return s
}

// Handler returns the server's root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.cfg.Addr
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()
	s.cfg.Logger.Info("server.started", "addr", s.cfg.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.cfg.Logger.Info("server.stopping")
	return s.server.Shutdown(shutdownCtx)
}
