package function

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrymomot/lambdakit/core/logger"
	"github.com/dmitrymomot/lambdakit/core/router"
)

// LocalConfig configures the local development server.
type LocalConfig struct {
	Addr            string        `env:"LOCAL_ADDR" envDefault:":8080"`
	ReadTimeout     time.Duration `env:"LOCAL_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"LOCAL_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"LOCAL_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// LocalServer serves a dispatcher over HTTP with graceful shutdown.
// Safe for concurrent use.
type LocalServer struct {
	mu       sync.Mutex
	cfg      LocalConfig
	server   *http.Server
	logger   *slog.Logger
	running  bool
	shutdown time.Duration
}

// LocalOption configures a LocalServer.
type LocalOption func(*LocalServer)

// WithLocalLogger sets the server logger.
func WithLocalLogger(l *slog.Logger) LocalOption {
	return func(s *LocalServer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewLocalServer creates a LocalServer from cfg.
func NewLocalServer(cfg LocalConfig, opts ...LocalOption) (*LocalServer, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}
	s := &LocalServer{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		shutdown: cfg.ShutdownTimeout,
	}
	if s.shutdown <= 0 {
		s.shutdown = 10 * time.Second
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run serves d until ctx is cancelled, then shuts down gracefully.
// It returns nil on a clean shutdown.
func (s *LocalServer) Run(ctx context.Context, d *router.Dispatcher) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true
	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      HTTPHandler(d),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	srv := s.server
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "starting local server", logger.Component("function"), slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down local server", logger.Duration(s.shutdown))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("local server shutdown failed", logger.Error(err))
		return err
	}
	return nil
}
