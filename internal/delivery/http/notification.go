package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/service"
)

type NotificationHandler struct {
	notifications NotificationService
	logger        *zap.Logger
}

func NewNotificationHandler(notifications NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// POST /api/notifications
// body: { "recipient_id": 1, "message": "...", "kind": "announcement" }
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.NewNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.logger, "create_notification_failed", err)
		return
	}
	c.JSON(stdhttp.StatusCreated, gin.H{"notification": toNotification(n)})
}

// POST /api/notifications/batch
// body: { "recipient_ids": [1, 2, 3], "message": "...", "kind": "announcement" }
func (h *NotificationHandler) CreateBatch(c *gin.Context) {
	var req service.NewBatchNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	ns, err := h.notifications.CreateBatch(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, h.logger, "create_notifications_failed", err)
		return
	}
	c.JSON(stdhttp.StatusCreated, gin.H{"notifications": toNotifications(ns)})
}

// POST /api/notifications/:id/resend
func (h *NotificationHandler) Resend(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}

	n, err := h.notifications.Resend(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "resend_notification_failed", err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"notification": toNotification(n)})
}

// GET /api/notifications?user_id=1
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	ns, err := h.notifications.GetForUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, "list_notifications_failed", err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"notifications": toNotifications(ns)})
}

// POST /api/notifications/:id/read?user_id=1
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	n, err := h.notifications.MarkAsRead(c.Request.Context(), id, userID)
	if err != nil {
		respondServiceError(c, h.logger, "mark_notification_read_failed", err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"notification": toNotification(n)})
}

// DELETE /api/notifications/:id?user_id=1
func (h *NotificationHandler) Delete(c *gin.Context) {
	id, ok := notificationID(c)
	if !ok {
		return
	}
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, h.logger, "delete_notification_failed", err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"ok": true})
}

func notificationID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_notification_id", err.Error())
		return uuid.Nil, false
	}
	return id, true
}
