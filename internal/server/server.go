// Package server is the HTTP front door that accepts resume submissions.
//
// Routes:
//
//	POST    /         → accept a submission, answer 202 with its id
//	POST    /submit   → same as /
//	OPTIONS /, /submit → CORS preflight
//	GET     /health   → liveness
//	GET     /metrics  → Prometheus metrics
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/ppiankov/skilldiff/internal/logging"
	"github.com/ppiankov/skilldiff/internal/model"
	"github.com/ppiankov/skilldiff/internal/pipeline"
	"github.com/ppiankov/skilldiff/internal/worker"
)

// Runner processes one submission
type Runner interface {
	Run(ctx context.Context, sub model.Submission) *pipeline.Outcome
}

// Config tunes the front door
type Config struct {
	Addr              string
	Workers           int
	QueueSize         int
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
	RunTimeout        time.Duration
}

// ConfigFromModel maps the server config section
func ConfigFromModel(c model.ServerConfig) Config {
	return Config{
		Addr:              c.Addr,
		Workers:           c.Workers,
		QueueSize:         c.QueueSize,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		MaxBodyBytes:      c.MaxBodyBytes,
		RunTimeout:        c.RunTimeout,
	}
}

// Server accepts submissions and dispatches pipeline runs onto a worker pool
type Server struct {
	config  Config
	runner  Runner
	pool    *worker.Pool
	limiter *rate.Limiter
	logger  *slog.Logger
	newID   func() string
}

// New creates a server. Call Start (or ListenAndServe) before serving.
func New(config Config, runner Runner, logger *slog.Logger) *Server {
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.Workers * 16
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 10 << 20
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Server{
		config:  config,
		runner:  runner,
		pool:    worker.NewPool(config.Workers, config.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Handler returns the routed, CORS-wrapped handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleSubmit)
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return withCORS(mux)
}

// Start starts the worker pool
func (s *Server) Start() {
	s.pool.Start()
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight runs
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.Start()

	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr, "workers", s.config.Workers)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", "error", err)
	}
	return s.Shutdown(shutdownCtx)
}

// Shutdown stops accepting runs and waits for queued ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.pool.Shutdown(ctx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
