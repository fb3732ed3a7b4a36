package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type EnrollmentHandler struct {
	enrollments EnrollmentService
	logger      *zap.Logger
}

func NewEnrollmentHandler(enrollments EnrollmentService, logger *zap.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, logger: logger}
}

type enrollmentRequest struct {
	LearnerID int64 `json:"learner_id"`
	CourseID  int64 `json:"course_id"`
}

// POST /api/enrollments
// body: { "learner_id": 1, "course_id": 2 }
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	e, err := h.enrollments.Enroll(c.Request.Context(), req.LearnerID, req.CourseID)
	if err != nil {
		respondServiceError(c, h.logger, "enroll_failed", err)
		return
	}
	c.JSON(stdhttp.StatusCreated, gin.H{"enrollment": toEnrollment(e)})
}

// POST /api/enrollments/cancel
// body: { "learner_id": 1, "course_id": 2 }
func (h *EnrollmentHandler) Cancel(c *gin.Context) {
	var req enrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, stdhttp.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	if err := h.enrollments.Cancel(c.Request.Context(), req.LearnerID, req.CourseID); err != nil {
		respondServiceError(c, h.logger, "cancel_enrollment_failed", err)
		return
	}
	c.JSON(stdhttp.StatusOK, gin.H{"ok": true})
}
