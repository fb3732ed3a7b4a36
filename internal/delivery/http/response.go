package http

import (
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// respondServiceError maps the error kind to a status. Unclassified errors are
// logged and hidden from the client.
func respondServiceError(c *gin.Context, logger *zap.Logger, code string, err error) {
	switch {
	case errors.Is(err, apperr.ErrInvalidArgument):
		respondError(c, stdhttp.StatusBadRequest, "invalid_argument", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		respondError(c, stdhttp.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperr.ErrUnauthorized):
		respondError(c, stdhttp.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, apperr.ErrConflict):
		respondError(c, stdhttp.StatusConflict, "conflict", err.Error())
	case errors.Is(err, apperr.ErrRenderingFailed):
		respondError(c, stdhttp.StatusBadGateway, "rendering_failed",
			"progress was saved but the certificate could not be rendered; it will be issued later")
	default:
		logger.Error("request failed",
			zap.String("code", code),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		respondError(c, stdhttp.StatusInternalServerError, code, "internal error")
	}
}

type progressionResponse struct {
	LearnerID   int64      `json:"learner_id"`
	CourseID    int64      `json:"course_id"`
	Percentage  float64    `json:"percentage"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toProgression(p *entities.Progression) progressionResponse {
	return progressionResponse{
		LearnerID:   p.LearnerID,
		CourseID:    p.CourseID,
		Percentage:  p.Percentage,
		StartedAt:   p.StartedAt,
		CompletedAt: p.CompletedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type certificateResponse struct {
	ID          string    `json:"id"`
	LearnerID   int64     `json:"learner_id"`
	CourseID    int64     `json:"course_id"`
	IssuedAt    time.Time `json:"issued_at"`
	ArtifactRef string    `json:"artifact_ref"`
}

func toCertificate(c *entities.Certificate) *certificateResponse {
	if c == nil {
		return nil
	}
	return &certificateResponse{
		ID:          c.ID.String(),
		LearnerID:   c.LearnerID,
		CourseID:    c.CourseID,
		IssuedAt:    c.IssuedAt,
		ArtifactRef: c.ArtifactRef,
	}
}

type enrollmentResponse struct {
	LearnerID  int64     `json:"learner_id"`
	CourseID   int64     `json:"course_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func toEnrollment(e *entities.Enrollment) enrollmentResponse {
	return enrollmentResponse{
		LearnerID:  e.LearnerID,
		CourseID:   e.CourseID,
		Status:     string(e.Status),
		EnrolledAt: e.EnrolledAt,
	}
}

type notificationResponse struct {
	ID          string    `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	Message     string    `json:"message"`
	Kind        string    `json:"kind"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

func toNotification(n *entities.Notification) notificationResponse {
	return notificationResponse{
		ID:          n.ID.String(),
		RecipientID: n.RecipientID,
		Message:     n.Message,
		Kind:        string(n.Kind),
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
}

func toNotifications(ns []*entities.Notification) []notificationResponse {
	out := make([]notificationResponse, 0, len(ns))
	for _, n := range ns {
		out = append(out, toNotification(n))
	}
	return out
}
