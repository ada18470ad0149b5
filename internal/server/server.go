// Package server exposes audits over HTTP: submit an audit, browse the
// audit history, leave feedback and read aggregate stats.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/siteauditor/site-auditor/internal/audit"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	serviceName     = "site-auditor"
	shutdownTimeout = 10 * time.Second
	maxRequestBody  = 1 << 20
)

// Auditor runs a single audit. *audit.Orchestrator satisfies it.
type Auditor interface {
	Run(ctx context.Context, req audit.Request) (*report.AuditReport, error)
}

type Server struct {
	cfg      config.ServerConfig
	auditor  Auditor
	audits   store.AuditRepository
	feedback store.FeedbackRepository
	log      logrus.FieldLogger
	router   *gin.Engine
}

func New(cfg config.ServerConfig, auditor Auditor, audits store.AuditRepository, feedback store.FeedbackRepository, log logrus.FieldLogger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestID(), logging(log), recovery(log))

	s := &Server{
		cfg:      cfg,
		auditor:  auditor,
		audits:   audits,
		feedback: feedback,
		log:      log,
		router:   router,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/audit", s.handleAudit)
	api.GET("/audits", s.handleListAudits)
	api.GET("/audits/:id", s.handleGetAudit)
	api.POST("/feedback", s.handleAddFeedback)
	api.GET("/feedback/all", s.handleListFeedback)
	api.GET("/feedback/:auditId", s.handleAuditFeedback)
	api.GET("/stats", s.handleStats)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", srv.Addr).Info("Listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
