package http

import (
	"context"

	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/service"
)

type ProgressService interface {
	UpdateProgress(ctx context.Context, learnerID, courseID int64, percentage float64) (*service.ProgressResult, error)
}

type EnrollmentService interface {
	Enroll(ctx context.Context, learnerID, courseID int64) (*entities.Enrollment, error)
	Cancel(ctx context.Context, learnerID, courseID int64) error
}

type NotificationService interface {
	Create(ctx context.Context, in service.NewNotification) (*entities.Notification, error)
	CreateBatch(ctx context.Context, in service.NewBatchNotification) ([]*entities.Notification, error)
	Resend(ctx context.Context, id uuid.UUID) (*entities.Notification, error)
	GetForUser(ctx context.Context, recipientID int64) ([]*entities.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, recipientID int64) (*entities.Notification, error)
	Delete(ctx context.Context, id uuid.UUID, recipientID int64) error
}
