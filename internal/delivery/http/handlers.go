package http

import (
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/realtime"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func respondError(c *gin.Context, status int, code string, msg string) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler { return &HealthHandler{} }

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

// RealtimeHandler streams a user's live notifications over SSE.
type RealtimeHandler struct {
	hub    *realtime.Hub
	logger *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, logger *zap.Logger) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, logger: logger}
}

// Stream subscribes the connection to the room of the user_id query parameter.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	userID, ok := userIDQuery(c)
	if !ok {
		return
	}

	client := h.hub.NewClient()
	defer h.hub.Close(client)

	h.hub.Join(client, strconv.FormatInt(userID, 10))
	h.logger.Info("sse stream opened",
		zap.Int64("user_id", userID),
		zap.String("client_id", client.ID.String()),
	)

	h.hub.Serve(c.Writer, c.Request, client)

	h.logger.Info("sse stream closed",
		zap.Int64("user_id", userID),
		zap.String("client_id", client.ID.String()),
	)
}

// userIDQuery reads the positive user_id query parameter or responds with 400.
func userIDQuery(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		respondError(c, stdhttp.StatusBadRequest, "invalid_user_id", "user_id must be a positive integer")
		return 0, false
	}
	return userID, true
}

func requestLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
