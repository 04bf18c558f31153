package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ppiankov/fnolroute/internal/model"
	"github.com/ppiankov/fnolroute/internal/worker"
)

const limiterIdle = 10 * time.Minute

// Server is the HTTP transport around the claim pipeline
type Server struct {
	httpServer *http.Server
	limiter    *worker.Limiter
	logger     *slog.Logger
}

// New wires handlers, middleware and the per-client limiter from cfg.
func New(cfg model.ServerConfig, processor Processor, extensions []string, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *worker.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}

	processH := NewProcessHandler(processor, cfg.MaxUploadMB<<20, "", logger)
	healthH := NewHealthHandler(version, extensions)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           Setup(processH, healthH, limiter, logger),
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Handler exposes the engine, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if s.limiter != nil {
		go s.pruneLimiter(ctx)
	}

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(limiterIdle); n > 0 {
				s.logger.Debug("pruned idle rate limiters", "clients", n)
			}
		}
	}
}
