package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Logger              *zap.Logger
	HealthHandler       *HealthHandler
	RealtimeHandler     *RealtimeHandler
	ProgressHandler     *ProgressHandler
	EnrollmentHandler   *EnrollmentHandler
	NotificationHandler *NotificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(requestLog(cfg.Logger))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	// Realtime (SSE)
	if cfg.RealtimeHandler != nil {
		r.GET("/events", cfg.RealtimeHandler.Stream)
	}

	api := r.Group("/api")
	{
		// Progress
		if cfg.ProgressHandler != nil {
			api.POST("/progress", cfg.ProgressHandler.Update)
		}

		// Enrollments
		if cfg.EnrollmentHandler != nil {
			api.POST("/enrollments", cfg.EnrollmentHandler.Enroll)
			api.POST("/enrollments/cancel", cfg.EnrollmentHandler.Cancel)
		}

		// Notifications
		if cfg.NotificationHandler != nil {
			api.GET("/notifications", cfg.NotificationHandler.List)
			api.POST("/notifications", cfg.NotificationHandler.Create)
			api.POST("/notifications/batch", cfg.NotificationHandler.CreateBatch)
			api.POST("/notifications/:id/read", cfg.NotificationHandler.MarkAsRead)
			api.POST("/notifications/:id/resend", cfg.NotificationHandler.Resend)
			api.DELETE("/notifications/:id", cfg.NotificationHandler.Delete)
		}
	}

	return r
}
