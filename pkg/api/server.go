// Package api serves clustering and evaluation over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/gilchrisn/leiden-runner/pkg/config"
	"github.com/gilchrisn/leiden-runner/pkg/monitoring"
	"github.com/gilchrisn/leiden-runner/pkg/pipeline"
)

// Server is the HTTP front end of a pipeline
type Server struct {
	cfg     *config.Config
	logger  zerolog.Logger
	handler http.Handler
}

// NewServer builds the router, middleware stack and CORS policy
func NewServer(cfg *config.Config, p *pipeline.Pipeline, metrics *monitoring.Registry, logger zerolog.Logger) *Server {
	handlers := NewHandlers(p, Defaults{
		Objective:    cfg.Objective(),
		Resolution:   cfg.Resolution(),
		Seed:         cfg.Seed(),
		Iterations:   cfg.Iterations(),
		MaxRounds:    cfg.MaxRounds(),
		Engine:       cfg.Engine(),
		OneIndexed:   cfg.OneIndexed(),
		MaxBodyBytes: cfg.MaxBodyBytes(),
	})

	router := mux.NewRouter()
	var metricsHandler http.Handler
	if metrics != nil {
		metricsHandler = metrics.Handler()
	}
	SetupRoutes(router, handlers, metricsHandler)

	// Add middleware stack
	router.Use(RequestIDMiddleware(logger))
	router.Use(LoggingMiddleware(metrics))
	router.Use(RecoveryMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: false,
	})

	return &Server{cfg: cfg, logger: logger, handler: c.Handler(router)}
}

// Handler returns the complete HTTP handler
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address until ctx is done, then shuts down
// gracefully within the configured timeout
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ServerAddress())
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout(),
		WriteTimeout: s.cfg.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("address", ln.Addr().String()).
			Msg("HTTP server starting")
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("Shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
