package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type EnrollmentService struct {
	enrollments EnrollmentRepository
	users       UserRepository
	courses     CourseRepository
	now         func() time.Time
	logger      *zap.Logger
}

func NewEnrollmentService(
	enrollments EnrollmentRepository,
	users UserRepository,
	courses CourseRepository,
	logger *zap.Logger,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		now:         func() time.Time { return time.Now().UTC() },
		logger:      logger.With(zap.String("component", "enrollment")),
	}
}

// Enroll creates an active enrollment. Enrolling twice in the same course
// fails with apperr.ErrEnrollmentExists.
func (s *EnrollmentService) Enroll(ctx context.Context, learnerID, courseID int64) (*entities.Enrollment, error) {
	if _, err := s.users.GetByID(ctx, learnerID); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	e := entities.NewEnrollment(learnerID, courseID, s.now())
	if err := s.enrollments.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	s.logger.Info("learner enrolled",
		zap.Int64("learner_id", learnerID),
		zap.Int64("course_id", courseID),
	)

	return e, nil
}

// Cancel moves an active enrollment to cancelled.
func (s *EnrollmentService) Cancel(ctx context.Context, learnerID, courseID int64) error {
	return s.transition(ctx, learnerID, courseID, entities.EnrollmentCancelled)
}

// Complete marks an active enrollment as completed.
func (s *EnrollmentService) Complete(ctx context.Context, learnerID, courseID int64) error {
	return s.transition(ctx, learnerID, courseID, entities.EnrollmentCompleted)
}

// transition moves an active enrollment to the target status. Repeating a
// transition that already happened is a no-op; any other state is a conflict.
func (s *EnrollmentService) transition(
	ctx context.Context,
	learnerID, courseID int64,
	to entities.EnrollmentStatus,
) error {
	ok, err := s.enrollments.Transition(ctx, learnerID, courseID, entities.EnrollmentActive, to, s.now())
	if err != nil {
		return fmt.Errorf("%s enrollment: %w", to, err)
	}
	if ok {
		return nil
	}

	e, err := s.enrollments.Get(ctx, learnerID, courseID)
	if err != nil {
		return fmt.Errorf("%s enrollment: %w", to, err)
	}
	if e.Status == to {
		return nil
	}
	return fmt.Errorf("%w: enrollment is %s", apperr.ErrConflict, e.Status)
}
