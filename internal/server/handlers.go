package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/siteauditor/site-auditor/internal/audit"
	"github.com/siteauditor/site-auditor/internal/authprobe"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/siteauditor/site-auditor/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	defaultAuditPage      = 20
	defaultFeedbackPage   = 100
	maxFeedbackPerAudit   = 50
	feedbackThanksMessage = "Feedback received. Thank you for helping improve the auditor."
)

type auditRequest struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	MaxPages int    `json:"maxPages"`
}

type feedbackRequest struct {
	AuditID  string   `json:"auditId"`
	URL      string   `json:"url"`
	Rating   *float64 `json:"rating"`
	Feedback string   `json:"feedback"`
	Category string   `json:"category"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": serviceName, "version": audit.Version})
}

func (s *Server) handleAudit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBody)

	var body auditRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required."})
		return
	}

	req := audit.Request{URL: body.URL, MaxPages: body.MaxPages}
	if body.Username != "" || body.Password != "" {
		req.Credentials = &authprobe.Credentials{Username: body.Username, Password: body.Password}
	}

	log := s.log.WithFields(logrus.Fields{"url": body.URL, "request_id": RequestIDFromContext(c.Request.Context())})
	log.Info("Starting audit")

	result, err := s.auditor.Run(c.Request.Context(), req)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}

	if err := s.audits.Save(c.Request.Context(), result); err != nil {
		log.WithError(err).Warn("Could not store audit")
	}
	log.WithFields(logrus.Fields{"audit_id": result.ID, "rating": result.Rating}).Info("Audit complete")
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListAudits(c *gin.Context) {
	limit := queryInt(c, "limit", defaultAuditPage)
	skip := queryInt(c, "skip", 0)

	audits, total, err := s.audits.List(c.Request.Context(), skip, limit)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"audits":  audits,
		"total":   total,
		"hasMore": skip+limit < total,
	})
}

func (s *Server) handleGetAudit(c *gin.Context) {
	result, err := s.audits.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Audit not found"})
		return
	}
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleAddFeedback(c *gin.Context) {
	var body feedbackRequest
	if err := c.ShouldBindJSON(&body); err != nil || body.AuditID == "" || body.Feedback == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "auditId and feedback are required."})
		return
	}

	entry, err := s.feedback.Add(c.Request.Context(), store.Feedback{
		AuditID:  body.AuditID,
		URL:      body.URL,
		Rating:   body.Rating,
		Feedback: body.Feedback,
		Category: body.Category,
	})
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	s.log.WithFields(logrus.Fields{"audit_id": entry.AuditID, "category": entry.Category}).Info("Feedback received")
	c.JSON(http.StatusOK, gin.H{"success": true, "message": feedbackThanksMessage})
}

func (s *Server) handleAuditFeedback(c *gin.Context) {
	auditID := c.Param("auditId")
	feedback, total, err := s.feedback.ForAudit(c.Request.Context(), auditID, maxFeedbackPerAudit)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auditId": auditID, "feedbacks": feedback, "total": total})
}

func (s *Server) handleListFeedback(c *gin.Context) {
	feedback, total, err := s.feedback.List(c.Request.Context(), queryInt(c, "limit", defaultFeedbackPage))
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedbacks": feedback, "total": total})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := store.ComputeStats(c.Request.Context(), s.audits, s.feedback)
	if err != nil {
		s.renderServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) renderServiceError(c *gin.Context, err error) {
	var appErr *errs.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch appErr.Kind {
		case errs.InvalidInput:
			status = http.StatusBadRequest
		case errs.Timeout:
			status = http.StatusGatewayTimeout
		}
		c.JSON(status, gin.H{"error": appErr.Message})
		return
	}

	s.log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Audit failed while scanning the website. Please try again shortly.",
		"message": err.Error(),
	})
}

// queryInt reads a positive integer query parameter, falling back to def
// when it is missing or malformed.
func queryInt(c *gin.Context, name string, def int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
