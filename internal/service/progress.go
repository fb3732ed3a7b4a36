package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// ProgressUpdate is a request to record a learner's percentage in a course.
type ProgressUpdate struct {
	LearnerID  int64   `json:"learner_id" validate:"gt=0"`
	CourseID   int64   `json:"course_id" validate:"gt=0"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
}

// ProgressService records course progress. It is the source of truth for
// whether a course is done and has no side effects beyond the progression row.
type ProgressService struct {
	progressions ProgressionRepository
	enrollments  EnrollmentRepository
	validator    *inputValidator
	now          func() time.Time
	logger       *zap.Logger
}

func NewProgressService(
	progressions ProgressionRepository,
	enrollments EnrollmentRepository,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		progressions: progressions,
		enrollments:  enrollments,
		validator:    newInputValidator(),
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With(zap.String("component", "progress")),
	}
}

// Update stores the percentage and reports whether this call completed the course.
// Lower values than the stored one are accepted; completion is never revoked.
func (s *ProgressService) Update(
	ctx context.Context,
	learnerID, courseID int64,
	percentage float64,
) (*entities.Progression, bool, error) {
	in := ProgressUpdate{LearnerID: learnerID, CourseID: courseID, Percentage: percentage}
	if err := s.validator.Struct(in); err != nil {
		return nil, false, err
	}

	enrollment, err := s.enrollments.Get(ctx, learnerID, courseID)
	if err != nil {
		return nil, false, fmt.Errorf("get enrollment: %w", err)
	}
	if !enrollment.AllowsProgress() {
		return nil, false, apperr.ErrEnrollmentNotFound
	}

	p, justCompleted, err := s.progressions.Upsert(ctx, learnerID, courseID, percentage, s.now())
	if err != nil {
		return nil, false, fmt.Errorf("update progress: %w", err)
	}

	if justCompleted {
		s.logger.Info("course completed",
			zap.Int64("learner_id", learnerID),
			zap.Int64("course_id", courseID),
		)
	}

	return p, justCompleted, nil
}

// Get returns the stored progression of a learner in a course.
func (s *ProgressService) Get(ctx context.Context, learnerID, courseID int64) (*entities.Progression, error) {
	p, err := s.progressions.Get(ctx, learnerID, courseID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return p, nil
}
