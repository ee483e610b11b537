package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"authbridge/controllers"
	"authbridge/database"
	"authbridge/provider"
	"authbridge/services"
)

func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; connect-src 'self' https://oauth2.googleapis.com; frame-src https://accounts.google.com")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func SetupRoutes(r *gin.Engine, client *provider.Client) {
	db := database.GetDB()

	broker := services.NewBroker(db, client)
	authController := controllers.NewAuthController(db, broker)
	adminController := controllers.NewAdminController(db)

	r.Use(SecurityHeadersMiddleware())

	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html")
		c.String(http.StatusOK, indexHTML)
	})

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database connection error",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := sqlDB.PingContext(pingCtx); err != nil {
			c.JSON(503, gin.H{
				"status":    "unhealthy",
				"error":     "database ping failed",
				"timestamp": time.Now().Unix(),
			})
			return
		}

		c.JSON(200, gin.H{
			"status":     "healthy",
			"database":   "connected",
			"configured": client.IsConfigured(),
			"timestamp":  time.Now().Unix(),
		})
	})

	// Provider redirect target. The path must byte-match the redirect
	// URI registered with the provider.
	r.GET("/oauth/callback", authController.Callback)

	// Browser entry point mirroring the callback's registration host.
	r.GET("/oauth/start", authController.BeginRedirect)

	// Consumer API used by the main application.
	auth := r.Group("/api/auth")
	{
		auth.GET("/url", authController.Begin)
		auth.GET("/status", authController.Status)
		auth.POST("/import", authController.Import)
		auth.POST("/disconnect", authController.Disconnect)
		auth.GET("/users", authController.Users)
	}

	admin := r.Group("/api/admin")
	{
		admin.POST("/reset", adminController.Reset)
		admin.POST("/backup", adminController.Backup)
		admin.GET("/backups", adminController.ListBackups)
		admin.GET("/audit/logs", adminController.GetAuditLogs)
		admin.POST("/audit/cleanup", adminController.CleanupAuditLogs)
	}
}

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>authbridge</title></head>
<body>
    <h2>authbridge - OAuth authorization broker</h2>
    <p>This service performs the browser-side OAuth flow on behalf of the main application.</p>
    <ul>
        <li>GET /oauth/start?user_id=... - begin authorization in this browser</li>
        <li>GET /api/auth/url?user_id=... - get the authorization URL</li>
        <li>GET /api/auth/status?user_id=... - poll authentication state</li>
        <li>POST /api/auth/import - manual token entry</li>
        <li>GET /health - service health</li>
    </ul>
</body>
</html>`
