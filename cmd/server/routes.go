package main

import (
	"github.com/bountydesk/bountydesk/internal/handlers"
	"github.com/bountydesk/bountydesk/internal/middleware"
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS(svc.cfg.OAuth.FrontendURL))

	// Rate limiter for the login endpoints
	loginLimiter := middleware.NewLoginLimiter(svc.cfg.Server.LoginRPS, svc.cfg.Server.LoginBurst)

	// Health check
	healthHandler := handlers.NewHealthHandler(models.GetDB(), svc.taskQueue)
	r.GET("/health", healthHandler.CheckHealth)

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", healthHandler.CheckHealth)

		// Auth routes (public, rate limited)
		auth := api.Group("/auth", loginLimiter.Middleware())
		{
			auth.POST("/login", svc.authHandler.Login)
			auth.GET("/github", svc.authHandler.GitHubLogin)
			auth.GET("/github/callback", svc.authHandler.GitHubCallback)
		}

		// Leaderboard is public
		leaderboardHandler := handlers.NewLeaderboardHandler(models.GetDB())
		api.GET("/leaderboard", leaderboardHandler.Top)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			// Auth
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)

			// Issues (read for all logged-in users)
			issueHandler := handlers.NewIssueHandler(models.GetDB())
			protected.GET("/issues", issueHandler.List)
			protected.GET("/issues/my", issueHandler.MyIssues)
			protected.GET("/issues/:id", issueHandler.Get)

			// Dashboard
			dashboardHandler := handlers.NewDashboardHandler(models.GetDB())
			protected.GET("/dashboard/stats", dashboardHandler.GetStats)
		}

		// Reviewer routes
		reviewer := api.Group("")
		reviewer.Use(middleware.AuthRequired(), middleware.ReviewerRequired(), middleware.AuditLog())
		{
			issueHandler := handlers.NewIssueHandler(models.GetDB())
			reviewer.PATCH("/issues/:id/status", issueHandler.SetStatus)

			syncHandler := handlers.NewSyncHandler(models.GetDB(), svc.taskQueue)
			reviewer.POST("/issues/sync", syncHandler.TriggerSync)
			reviewer.GET("/sync-runs", syncHandler.ListRuns)
		}

		// Admin only routes
		admin := api.Group("")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(), middleware.AuditLog())
		{
			syncHandler := handlers.NewSyncHandler(models.GetDB(), svc.taskQueue)
			admin.POST("/scores/recompute", syncHandler.TriggerRecompute)

			// Users
			userHandler := handlers.NewUserHandler(models.GetDB())
			admin.GET("/users", userHandler.List)
			admin.PUT("/users/:username/role", userHandler.SetRole)

			// Audit logs
			systemLogHandler := handlers.NewSystemLogHandler(models.GetDB())
			admin.GET("/system-logs", systemLogHandler.List)
		}
	}
}
