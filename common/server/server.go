package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lyzr/compressor/common/logger"
)

// writeSlack is added to the job deadline so the transport never cuts off a
// response the engine is still allowed to produce
const writeSlack = 30 * time.Second

// Server wraps HTTP server with graceful shutdown
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
	name       string
	grace      time.Duration
}

// New creates a new server. jobTimeout bounds how long a single request may
// run inside the engine.
func New(name string, port int, handler http.Handler, jobTimeout time.Duration, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       2 * time.Minute, // large uploads
			WriteTimeout:      jobTimeout + writeSlack,
			IdleTimeout:       60 * time.Second,
		},
		log:   log,
		name:  name,
		grace: jobTimeout + writeSlack,
	}
}

// WriteTimeout returns the configured response write timeout
func (s *Server) WriteTimeout() time.Duration {
	return s.httpServer.WriteTimeout
}

// Start starts the server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is done, then drains in-flight jobs
func (s *Server) Run(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.log.Info(fmt.Sprintf("%s starting", s.name), "addr", s.httpServer.Addr)
		serverErrors <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		s.log.Info("shutdown signal received")

		// in-flight jobs may legitimately run up to the job deadline
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.Error("graceful shutdown failed", "error", err)
			if err := s.httpServer.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}

		s.log.Info("shutdown complete")
	}

	return nil
}
