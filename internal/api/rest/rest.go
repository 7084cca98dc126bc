package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/lexlab-ai/funnel/internal/api/middleware"
)

// SetupRoutes configures all REST API routes
func SetupRoutes(router *gin.Engine, handler Handler, sessions middleware.SessionValidator, cookieName string) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Session endpoints (public)
		v1.POST("/auth/login", handler.Login)
		v1.POST("/auth/logout", handler.Logout)

		// Letter of Intent form and public traction (public)
		v1.POST("/loi", handler.SubmitLOI)
		v1.GET("/metrics/traction", handler.GetTraction)
		v1.GET("/traction", handler.GetTractionBoard)
	}

	// Admin routes (requires a session)
	admin := v1.Group("", middleware.SessionAuth(sessions, cookieName))
	{
		admin.GET("/auth/session", handler.GetSession)

		admin.GET("/loi", handler.ListLOIEntries)

		admin.GET("/leads", handler.ListLeads)
		admin.POST("/leads", handler.CreateLead)
		admin.GET("/leads/stream", handler.StreamLeads)
		admin.GET("/leads/export.xlsx", handler.ExportLeads)
		admin.GET("/leads/:id", handler.GetLead)
		admin.PATCH("/leads/:id", handler.UpdateLead)
		admin.DELETE("/leads/:id", handler.DeleteLead)
		admin.POST("/leads/:id/stage", handler.ChangeStage)
		admin.GET("/leads/:id/activity", handler.ListLeadActivity)

		admin.GET("/activity", handler.ListActivity)
		admin.GET("/activity/stream", handler.StreamActivity)

		admin.GET("/metrics/funnel", handler.GetFunnelMetrics)
		admin.GET("/metrics/weekly", handler.GetWeeklySummary)

		admin.PUT("/traction/metrics", handler.SaveTractionMetrics)
		admin.POST("/traction/firms", handler.CreateFirm)
		admin.PUT("/traction/firms/:id", handler.UpdateFirm)
		admin.DELETE("/traction/firms/:id", handler.DeleteFirm)
		admin.POST("/traction/commitments", handler.CreateCommitment)
		admin.PUT("/traction/commitments/:id", handler.UpdateCommitment)
		admin.DELETE("/traction/commitments/:id", handler.DeleteCommitment)
		admin.POST("/traction/insights", handler.CreateInsight)
		admin.PUT("/traction/insights/:id", handler.UpdateInsight)
		admin.DELETE("/traction/insights/:id", handler.DeleteInsight)
		admin.POST("/traction/milestones", handler.CreateMilestone)
		admin.PUT("/traction/milestones/:id", handler.UpdateMilestone)
		admin.DELETE("/traction/milestones/:id", handler.DeleteMilestone)

		admin.POST("/seed", handler.SeedSampleData)
	}
}
