// Package server exposes dashboards over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/younsl/costboard/pkg/pipeline"
)

// Options configures a Server
type Options struct {
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Server serves dashboards and views built from a DashboardSource, and
// utilization timelines from a TimelineSource
type Server struct {
	engine     *gin.Engine
	dashboards pipeline.DashboardSource
	timelines  pipeline.TimelineSource
	metrics    *Metrics
	logger     zerolog.Logger
	opts       Options
}

// New creates a Server and registers its routes
func New(dashboards pipeline.DashboardSource, timelines pipeline.TimelineSource, metrics *Metrics, opts Options, logger zerolog.Logger) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(logger, metrics),
		cors(opts.AllowedOrigins),
	)

	s := &Server{
		engine:     engine,
		dashboards: dashboards,
		timelines:  timelines,
		metrics:    metrics,
		logger:     logger.With().Str("component", "server").Logger(),
		opts:       opts,
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/version", s.handleVersion)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := s.engine.Group("/api")
	api.GET("/getEC2Data", s.handleDashboard)
	api.POST("/view", s.handleView)
	api.GET("/trend/spikes", s.handleSpikes)
	api.GET("/options", s.handleOptions)
	api.GET("/instances/:id/utilization", s.handleTimeline)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Shutting down server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
