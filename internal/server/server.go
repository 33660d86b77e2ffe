// Package server exposes discovery results over HTTP for browser clients.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"faq_scrap/internal/app"
	"faq_scrap/internal/config"
	"faq_scrap/internal/faq"
	"faq_scrap/internal/logger"
	"faq_scrap/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Runner produces a fresh result set. *app.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (app.Result, error)
}

type Server struct {
	router *gin.Engine
	http   *http.Server
	log    logger.Logger
}

func New(cfg config.Server, runner Runner, m *metrics.Metrics, log logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RecoveryMiddleware(log))
	router.Use(LoggerMiddleware(log))
	router.Use(CORSMiddleware(cfg.CORSOrigins))

	h := &handlers{runner: runner, log: log}
	router.GET("/healthz", h.health)
	router.GET("/api/faqs", h.faqs)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler returns the router for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Starting HTTP server", logger.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

type handlers struct {
	runner Runner
	log    logger.Logger
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// faqs recomputes the result set on every request.
func (h *handlers) faqs(c *gin.Context) {
	res, err := h.runner.Run(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		status := http.StatusInternalServerError
		if faq.KindOf(err) == faq.KindConfig {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	items := res.Items
	if items == nil {
		items = []faq.Item{}
	}
	c.Header("X-Run-ID", res.Report.RunID)
	c.JSON(http.StatusOK, items)
}
