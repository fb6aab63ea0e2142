package httpapi

import (
	"log/slog"
	"time"

	"dialer-crm/internal/auth"
	"dialer-crm/internal/rbac"
	"dialer-crm/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewEngine wires the HTTP surface:
//
//	POST /functions/disposition-router   authed function-style endpoint
//	POST /webhooks/call-ended            shared-secret webhook from the dialer
//	GET  /v1/dispositions                catalog read
//	GET  /v1/metrics/dispositions/summary
//	GET  /healthz
func NewEngine(s *Server, authMgr *auth.Manager, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(logger.Middleware(log))
	r.Use(gin.Recovery())

	// Browser-facing endpoints; the webhook is server-to-server only.
	corsMW := cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	})

	r.GET("/healthz", s.handleHealth)

	r.POST("/webhooks/call-ended", s.handleCallEndedWebhook)

	fn := r.Group("/functions", corsMW, auth.RequireAccessToken(authMgr), rbac.RequireUser())
	fn.POST("/disposition-router",
		rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAutomation),
		s.handleDispositionFunction)

	v1 := r.Group("/v1", corsMW, auth.RequireAccessToken(authMgr), rbac.RequireUser())
	v1.GET("/dispositions",
		rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAnalyst),
		s.handleListDispositions)
	v1.GET("/leads/:leadId/reachability",
		rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAgent, rbac.RoleAnalyst),
		s.handleLeadReachability)
	v1.GET("/metrics/dispositions/summary",
		rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleAnalyst),
		s.handleDispositionSummary)

	return r
}
