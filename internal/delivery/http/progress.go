package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressHandler struct {
	progress ProgressService
	logger   *zap.Logger
}

func NewProgressHandler(progress ProgressService, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// POST /api/progress
// body: { "learner_id": 1, "course_id": 2, "percentage": 75.5 }
func (h *ProgressHandler) Update(c *gin.Context) {
	var req struct {
		LearnerID  int64    `json:"learner_id"`
		CourseID   int64    `json:"course_id"`
		Percentage *float64 `json:"percentage"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Percentage == nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", "percentage is required")
		return
	}

	res, err := h.progress.UpdateProgress(c.Request.Context(), req.LearnerID, req.CourseID, *req.Percentage)
	if err != nil {
		respondServiceError(c, h.logger, "update_progress_failed", err)
		return
	}

	body := gin.H{
		"progression":    toProgression(res.Progression),
		"just_completed": res.JustCompleted,
	}
	if res.JustCompleted {
		body["issue_status"] = res.IssueStatus
		body["certificate"] = toCertificate(res.Certificate)
	}
	c.JSON(stdhttp.StatusOK, body)
}
