package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// CertificateService issues certificates for completed progressions.
type CertificateService struct {
	tx           Transactor
	certificates CertificateRepository
	users        UserRepository
	courses      CourseRepository
	renderer     Renderer
	notifier     NotificationCreator
	minLevel     int
	now          func() time.Time
	logger       *zap.Logger
}

func NewCertificateService(
	tx Transactor,
	certificates CertificateRepository,
	users UserRepository,
	courses CourseRepository,
	renderer Renderer,
	notifier NotificationCreator,
	minLevel int,
	logger *zap.Logger,
) *CertificateService {
	return &CertificateService{
		tx:           tx,
		certificates: certificates,
		users:        users,
		courses:      courses,
		renderer:     renderer,
		notifier:     notifier,
		minLevel:     minLevel,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With(zap.String("component", "certificates")),
	}
}

// GenerateIfEligible issues the certificate for p if the learner completed an
// eligible course. An ineligible progression yields a nil certificate and no error.
//
// Issuance inserts unconditionally and relies on the (learner, course) unique
// index: whoever loses the race gets the winner's certificate back with
// IssueAlreadyIssued. The artifact is rendered inside the same transaction, so
// a rendering failure leaves no certificate behind.
func (s *CertificateService) GenerateIfEligible(
	ctx context.Context,
	p *entities.Progression,
) (*entities.Certificate, entities.IssueStatus, error) {
	if p == nil || !p.IsComplete() {
		return nil, entities.IssueIneligible, nil
	}

	course, err := s.courses.GetByID(ctx, p.CourseID)
	if err != nil {
		return nil, "", fmt.Errorf("load course: %w", err)
	}
	if course.Level < s.minLevel {
		return nil, entities.IssueIneligible, nil
	}

	learner, err := s.users.GetByID(ctx, p.LearnerID)
	if err != nil {
		return nil, "", fmt.Errorf("load learner: %w", err)
	}
	if !learner.CanHoldCertificate() {
		return nil, entities.IssueIneligible, nil
	}

	cert := entities.NewCertificate(p.LearnerID, p.CourseID, s.now())
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.certificates.Insert(ctx, cert); err != nil {
			return err
		}

		ref, err := s.renderer.Render(ctx, learner, course, cert)
		if err != nil {
			return fmt.Errorf("%w: %w", apperr.ErrRenderingFailed, err)
		}
		cert.ArtifactRef = ref

		return s.certificates.SetArtifact(ctx, cert.ID, ref)
	})

	switch {
	case errors.Is(err, apperr.ErrCertificateExists):
		existing, getErr := s.certificates.GetByLearnerAndCourse(ctx, p.LearnerID, p.CourseID)
		if getErr != nil {
			return nil, "", fmt.Errorf("fetch existing certificate: %w", getErr)
		}
		return existing, entities.IssueAlreadyIssued, nil
	case err != nil:
		return nil, "", fmt.Errorf("issue certificate: %w", err)
	}

	s.logger.Info("certificate issued",
		zap.String("certificate_id", cert.ID.String()),
		zap.Int64("learner_id", cert.LearnerID),
		zap.Int64("course_id", cert.CourseID),
	)

	s.notifyIssued(ctx, cert, course)

	return cert, entities.IssueIssued, nil
}

// ListForLearner returns the learner's certificates, newest first.
func (s *CertificateService) ListForLearner(ctx context.Context, learnerID int64) ([]*entities.Certificate, error) {
	certs, err := s.certificates.ListByLearner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// notifyIssued is a separate write after the certificate commits. If it fails
// the learner is certified but not notified, and nothing retries it.
func (s *CertificateService) notifyIssued(ctx context.Context, cert *entities.Certificate, course *entities.Course) {
	_, err := s.notifier.Create(ctx, NewNotification{
		RecipientID: cert.LearnerID,
		Message:     fmt.Sprintf("Congratulations! You completed %q. Your certificate: %s", course.Title, cert.ArtifactRef),
		Kind:        entities.KindCertificateIssued,
	})
	if err != nil {
		s.logger.Error("certificate issued but notification failed",
			zap.String("certificate_id", cert.ID.String()),
			zap.Int64("learner_id", cert.LearnerID),
			zap.Error(err),
		)
	}
}
