package main

import (
	"communitylog/internal/httpapi"
	"communitylog/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// AUTH routes (token issuance).
	// NOTE: This is a placeholder login route; real credential validation is not implemented.
	r.POST("/v1/auth/login", h.Login)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// SETTINGS routes (read and cache invalidation; mutation lives in
		// the external administrative surface).
		settingsGroup := v1.Group("/settings")
		settingsGroup.Use(rbac.RequireCommunity())
		{
			settingsGroup.GET("/:community_id",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleModerator, rbac.RoleAuditor, rbac.RoleSuperAdmin),
				h.GetSettings)
			settingsGroup.POST("/:community_id/invalidate",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin),
				h.InvalidateSettings)
		}

		// JOURNAL routes
		journalGroup := v1.Group("/journal")
		journalGroup.Use(rbac.RequireCommunity())
		journalGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleModerator, rbac.RoleAuditor, rbac.RoleSuperAdmin))
		{
			journalGroup.GET("/:community_id", h.ListJournal)
		}

		// EVENT ingest.
		// Hidden platform_operator is the only role allowed to push events;
		// it is issued to the gateway collaborator, never to community staff.
		v1.POST("/events",
			rbac.RequireCommunity(),
			rbac.RequireAnyRole(rbac.RolePlatformOperator),
			h.IngestEvent)
	}
}
