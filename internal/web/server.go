// Package web serves the browser client: a single page driven by the view
// controller, plus a JSON state endpoint and the distribution chart as PNG.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/derickschaefer/eqviz/internal/view"
)

// Options configures a Server.
type Options struct {
	// Listen is the host:port to bind.
	Listen string
	// APIHost prefixes relative report paths in links.
	APIHost string
	// AccessLog enables gin's request logger.
	AccessLog bool
}

// Server bundles router and dependencies for the browser client.
type Server struct {
	opts   Options
	ctrl   *view.Controller
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(opts Options, ctrl *view.Controller) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	if opts.AccessLog {
		engine.Use(gin.Logger())
	}

	server := &Server{opts: opts, ctrl: ctrl, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/", s.handleIndex)
	s.engine.GET("/chart.png", s.handleChart)
	s.engine.GET("/api/state", s.handleState)
	s.engine.POST("/credentials", s.handleCredentials)
	s.engine.POST("/upload", s.handleUpload)
	s.engine.POST("/refresh", s.handleRefresh)
}
