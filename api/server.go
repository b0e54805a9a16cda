package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/RyanBlaney/sonido-coach/api/controller"
	"github.com/RyanBlaney/sonido-coach/api/route"
	"github.com/RyanBlaney/sonido-coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
)

const shutdownTimeout = 10 * time.Second

// Server is the HTTP front end of an analyzer
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	logger logging.Logger
}

func NewServer(cfg *config.Config, analyzer controller.Analyzer) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	route.Setup(cfg, analyzer, engine)

	return &Server{
		cfg:    cfg,
		engine: engine,
		logger: logging.WithFields(logging.Fields{
			"component": "server",
		}),
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", logging.Fields{"addr": s.cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
