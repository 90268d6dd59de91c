package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// NewRouter wires every route onto a fresh gin engine. The server binary and
// the serverless entry point share it.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Festival Planner API",
			"version": version,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.GET("/lineup", h.GetLineup)
		api.POST("/layout", h.Layout)
		api.POST("/stats", h.Stats)
		api.POST("/validate", h.ValidateInput)
		api.POST("/export/ics", h.ExportICS)
		api.GET("/usage", h.GetMyUsage)
	}

	return r
}
