package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"dialer-crm/internal/auth"
	"dialer-crm/internal/calls"
	"dialer-crm/internal/catalog"
	"dialer-crm/internal/dispositions"
	"dialer-crm/internal/metrics"
	"dialer-crm/internal/rbac"
	"dialer-crm/internal/reach"
	"dialer-crm/pkg/logger"
	"dialer-crm/pkg/storage"

	"github.com/gin-gonic/gin"
)

// Server carries the handler dependencies. Route wiring lives in routes.go.
type Server struct {
	Dispositions *dispositions.Router
	Catalog      *catalog.Service
	Summary      *metrics.SummaryService
	Reach        *reach.Service

	// Locker serializes per-lead disposition processing. Nil disables it.
	Locker *storage.LeadLocker

	// WebhookSecret guards /webhooks/*; empty disables the check.
	WebhookSecret string
}

// functionEnvelope is the dispatch wrapper for the function-style endpoint:
// the action field selects the operation and the remaining fields are the
// operation payload.
type functionEnvelope struct {
	Action string `json:"action"`
}

const actionProcessDisposition = "process_disposition"

// handleDispositionFunction is the single function-style endpoint. An
// unknown action is an error before any work happens; clients depend on
// that for safe retries.
func (s *Server) handleDispositionFunction(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unreadable body"})
		return
	}

	var env functionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid JSON body"})
		return
	}
	if env.Action != actionProcessDisposition {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unknown action: " + env.Action})
		return
	}

	var req dispositions.Request
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid JSON body"})
		return
	}

	// Regular users may only disposition their own leads; automation and
	// super_admin act on behalf of the userId in the payload.
	callerID, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	role, _ := auth.Role(c.Request.Context())
	if !rbac.IsSuperAdmin(role) && role != rbac.RoleAutomation {
		req.UserID = callerID
	}
	if req.SetBy == "" {
		req.SetBy = "manual"
	}

	s.process(c, req)
}

// handleCallEndedWebhook receives the dialer's call-ended event and runs the
// cascade with setBy=ai.
func (s *Server) handleCallEndedWebhook(c *gin.Context) {
	if s.WebhookSecret != "" && c.GetHeader("X-Webhook-Secret") != s.WebhookSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
		return
	}

	var ev calls.CallEndedEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := ev.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.process(c, dispositions.Request{
		LeadID:          ev.LeadID,
		UserID:          ev.UserID,
		DispositionID:   ev.DispositionID,
		DispositionName: ev.Disposition,
		CallOutcome:     ev.Outcome,
		Transcript:      ev.Transcript,
		CallID:          ev.CallID,
		AIConfidence:    ev.AnalysisConfidence,
		SetBy:           "ai",
	})
}

func (s *Server) process(c *gin.Context, req dispositions.Request) {
	ctx := c.Request.Context()

	// Advisory lock against concurrent dispositions for the same lead
	// (duplicate webhook deliveries). Degrades to unlocked when Redis is
	// unavailable.
	release, held, err := s.Locker.Acquire(ctx, req.UserID, req.LeadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not serialize request"})
		return
	}
	defer release()
	if !held {
		logger.FromGin(c).Warn("processing disposition without lead lock",
			"lead_id", req.LeadID)
	}

	res, err := s.Dispositions.Process(ctx, req)
	if err != nil {
		logger.FromGin(c).Error("disposition cascade failed",
			"lead_id", req.LeadID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleListDispositions(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	out, err := s.Catalog.List(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list dispositions"})
		return
	}
	if out == nil {
		out = []catalog.Disposition{}
	}
	c.JSON(http.StatusOK, gin.H{"dispositions": out})
}

// handleDispositionSummary aggregates disposition metrics over a time range.
// from/to are RFC3339 query params; the default window is the last 30 days.
func (s *Server) handleDispositionSummary(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now
	if v := c.Query("from"); v != "" {
		from, err = time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from timestamp"})
			return
		}
	}
	if v := c.Query("to"); v != "" {
		to, err = time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to timestamp"})
			return
		}
	}

	sum, err := s.Summary.Summarize(c.Request.Context(), metrics.SummaryRequest{
		UserID: uid,
		From:   from,
		To:     to,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not summarize"})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// handleLeadReachability returns the lead's audit timeline, newest first.
func (s *Server) handleLeadReachability(c *gin.Context) {
	uid, err := auth.UserID(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user_id required"})
		return
	}
	events, err := s.Reach.History(c.Request.Context(), uid, c.Param("leadId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load events"})
		return
	}
	if events == nil {
		events = []reach.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
