package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// ProgressResult is the outcome of a direct progress update.
type ProgressResult struct {
	Progression   *entities.Progression
	JustCompleted bool
	Certificate   *entities.Certificate
	IssueStatus   entities.IssueStatus
}

// CourseProgressService drives the direct path: record progress, then on
// completion close the enrollment and issue the certificate.
type CourseProgressService struct {
	tracker     *ProgressService
	enrollments *EnrollmentService
	issuer      CertificateIssuer
	logger      *zap.Logger
}

func NewCourseProgressService(
	tracker *ProgressService,
	enrollments *EnrollmentService,
	issuer CertificateIssuer,
	logger *zap.Logger,
) *CourseProgressService {
	return &CourseProgressService{
		tracker:     tracker,
		enrollments: enrollments,
		issuer:      issuer,
		logger:      logger.With(zap.String("component", "course_progress")),
	}
}

// UpdateProgress records the percentage and, if this update completed the
// course, issues the certificate. When issuance fails the progression is
// already stored; the certificate sweep picks it up later.
func (s *CourseProgressService) UpdateProgress(
	ctx context.Context,
	learnerID, courseID int64,
	percentage float64,
) (*ProgressResult, error) {
	p, justCompleted, err := s.tracker.Update(ctx, learnerID, courseID, percentage)
	if err != nil {
		return nil, err
	}

	res := &ProgressResult{Progression: p, JustCompleted: justCompleted}
	if !justCompleted {
		return res, nil
	}

	if err := s.enrollments.Complete(ctx, learnerID, courseID); err != nil {
		s.logger.Warn("failed to mark enrollment completed",
			zap.Int64("learner_id", learnerID),
			zap.Int64("course_id", courseID),
			zap.Error(err),
		)
	}

	cert, status, err := s.issuer.GenerateIfEligible(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("issue certificate: %w", err)
	}

	res.Certificate = cert
	res.IssueStatus = status
	return res, nil
}
