package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// Transactor runs fn in a transaction carried by the context it receives.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
	GetByChatID(ctx context.Context, chatID int64) (*entities.User, error)
	LinkChat(ctx context.Context, userID, chatID int64) error
}

type CourseRepository interface {
	GetByID(ctx context.Context, courseID int64) (*entities.Course, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, e *entities.Enrollment) error
	Get(ctx context.Context, learnerID, courseID int64) (*entities.Enrollment, error)
	Transition(ctx context.Context, learnerID, courseID int64, from, to entities.EnrollmentStatus, now time.Time) (bool, error)
}

type ProgressionRepository interface {
	Upsert(ctx context.Context, learnerID, courseID int64, percentage float64, now time.Time) (*entities.Progression, bool, error)
	Get(ctx context.Context, learnerID, courseID int64) (*entities.Progression, error)
	ListCompleted(ctx context.Context, limit, offset int) ([]*entities.Progression, error)
	ListInactive(ctx context.Context, before time.Time, limit, offset int) ([]*entities.InactiveProgression, error)
}

type CertificateRepository interface {
	Insert(ctx context.Context, c *entities.Certificate) error
	SetArtifact(ctx context.Context, id uuid.UUID, ref string) error
	GetByLearnerAndCourse(ctx context.Context, learnerID, courseID int64) (*entities.Certificate, error)
	ListByLearner(ctx context.Context, learnerID int64) ([]*entities.Certificate, error)
}

type NotificationRepository interface {
	Insert(ctx context.Context, n *entities.Notification) error
	InsertMany(ctx context.Context, ns []*entities.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, recipientID int64) (*entities.Notification, error)
	Delete(ctx context.Context, id uuid.UUID, recipientID int64) error
	ListByRecipient(ctx context.Context, recipientID int64, limit int) ([]*entities.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

// Renderer produces a certificate artifact and returns its reference.
type Renderer interface {
	Render(ctx context.Context, learner *entities.User, course *entities.Course, cert *entities.Certificate) (string, error)
}

// NotificationCreator persists a notification and attempts its delivery.
type NotificationCreator interface {
	Create(ctx context.Context, in NewNotification) (*entities.Notification, error)
}

// CertificateIssuer issues a certificate for an eligible progression.
type CertificateIssuer interface {
	GenerateIfEligible(ctx context.Context, p *entities.Progression) (*entities.Certificate, entities.IssueStatus, error)
}
