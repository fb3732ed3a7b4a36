package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/config"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/objects"
	"github.com/aliskhannn/course-tracker/internal/scheduler"
)

// Job names.
const (
	JobCertificateSweep = "certificate_sweep"
	JobInactivitySweep  = "inactivity_sweep"
	JobStaleFileSweep   = "stale_file_sweep"
)

// CertificateSweepReport counts the outcomes of one certificate sweep.
type CertificateSweepReport struct {
	Scanned       int
	Issued        int
	AlreadyIssued int
	Ineligible    int
	Failed        int
}

// ReconciliationService re-drives transitions the direct path may have missed.
// Each sweep derives its work set from storage, so any run can be repeated safely.
type ReconciliationService struct {
	progressions ProgressionRepository
	issuer       CertificateIssuer
	notifier     NotificationCreator
	objects      objects.Store
	categories   []objects.Category
	cfg          config.Scheduler
	now          func() time.Time
	logger       *zap.Logger
}

func NewReconciliationService(
	progressions ProgressionRepository,
	issuer CertificateIssuer,
	notifier NotificationCreator,
	store objects.Store,
	categories []objects.Category,
	cfg config.Scheduler,
	logger *zap.Logger,
) *ReconciliationService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}

	return &ReconciliationService{
		progressions: progressions,
		issuer:       issuer,
		notifier:     notifier,
		objects:      store,
		categories:   categories,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With(zap.String("component", "reconciliation")),
	}
}

// Jobs returns the three sweeps with their configured schedules.
func (s *ReconciliationService) Jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name: JobCertificateSweep,
			Spec: s.cfg.CertificateSpec,
			Run: func(ctx context.Context) error {
				_, err := s.IssueMissingCertificates(ctx)
				return err
			},
		},
		{
			Name: JobInactivitySweep,
			Spec: s.cfg.InactivitySpec,
			Run: func(ctx context.Context) error {
				_, err := s.RemindInactiveLearners(ctx)
				return err
			},
		},
		{
			Name: JobStaleFileSweep,
			Spec: s.cfg.CleanupSpec,
			Run: func(ctx context.Context) error {
				_, err := s.CleanupStaleFiles(ctx)
				return err
			},
		},
	}
}

// IssueMissingCertificates runs issuance for every completed progression.
// Already certified pairs come back as AlreadyIssued, so only the gaps produce
// new certificates. A failing item is counted and logged; it never stops the sweep.
func (s *ReconciliationService) IssueMissingCertificates(ctx context.Context) (CertificateSweepReport, error) {
	var report CertificateSweepReport
	offset := 0

	for {
		// Fetch completed progressions in batches
		batch, err := s.progressions.ListCompleted(ctx, s.cfg.BatchSize, offset)
		if err != nil {
			return report, fmt.Errorf("list completed progressions: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		var mu sync.Mutex
		s.processBatch(len(batch), func(i int) {
			p := batch[i]
			_, status, err := s.issuer.GenerateIfEligible(ctx, p)

			mu.Lock()
			defer mu.Unlock()

			report.Scanned++
			if err != nil {
				report.Failed++
				s.logger.Error("failed to issue certificate",
					zap.Int64("learner_id", p.LearnerID),
					zap.Int64("course_id", p.CourseID),
					zap.Error(err),
				)
				return
			}
			switch status {
			case entities.IssueIssued:
				report.Issued++
			case entities.IssueAlreadyIssued:
				report.AlreadyIssued++
			default:
				report.Ineligible++
			}
		})

		if len(batch) < s.cfg.BatchSize {
			break
		}
		offset += s.cfg.BatchSize
	}

	s.logger.Info("certificate sweep finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("issued", report.Issued),
		zap.Int("already_issued", report.AlreadyIssued),
		zap.Int("ineligible", report.Ineligible),
		zap.Int("failed", report.Failed),
	)

	return report, nil
}

// RemindInactiveLearners notifies learners whose unfinished progression has
// not moved for longer than the inactivity threshold.
func (s *ReconciliationService) RemindInactiveLearners(ctx context.Context) (int, error) {
	before := s.now().Add(-s.cfg.InactivityThreshold)
	offset := 0
	totalSent := 0

	for {
		batch, err := s.progressions.ListInactive(ctx, before, s.cfg.BatchSize, offset)
		if err != nil {
			return totalSent, fmt.Errorf("list inactive progressions: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		var mu sync.Mutex
		s.processBatch(len(batch), func(i int) {
			ip := batch[i]
			_, err := s.notifier.Create(ctx, NewNotification{
				RecipientID: ip.LearnerID,
				Message:     inactivityMessage(ip),
				Kind:        entities.KindInactivityReminder,
			})
			if err != nil {
				s.logger.Error("failed to send inactivity reminder",
					zap.Int64("learner_id", ip.LearnerID),
					zap.Int64("course_id", ip.CourseID),
					zap.Error(err),
				)
				return
			}

			mu.Lock()
			totalSent++
			mu.Unlock()
		})

		if len(batch) < s.cfg.BatchSize {
			break
		}
		offset += s.cfg.BatchSize
	}

	s.logger.Info("inactivity reminders processed", zap.Int("total_sent", totalSent))

	return totalSent, nil
}

// CleanupStaleFiles deletes objects older than the retention period from every
// managed category. A category that cannot be listed is reported in the
// returned error after the remaining categories are processed.
func (s *ReconciliationService) CleanupStaleFiles(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.FileRetention)
	deleted := 0
	var errs []error

	for _, category := range s.categories {
		objs, err := s.objects.List(ctx, category, "")
		if err != nil {
			s.logger.Error("failed to list objects", zap.String("category", string(category)), zap.Error(err))
			errs = append(errs, fmt.Errorf("list %s: %w", category, err))
			continue
		}

		for _, obj := range objs {
			if !obj.Updated.Before(cutoff) {
				continue
			}
			if err := s.objects.Delete(ctx, category, obj.Key); err != nil {
				s.logger.Warn("failed to delete stale object",
					zap.String("category", string(category)),
					zap.String("key", obj.Key),
					zap.Error(err),
				)
				continue
			}
			deleted++
		}
	}

	s.logger.Info("stale file cleanup finished",
		zap.Int("deleted", deleted),
		zap.Time("cutoff", cutoff),
	)

	return deleted, errors.Join(errs...)
}

// processBatch runs fn for every index with at most MaxConcurrent in flight.
func (s *ReconciliationService) processBatch(n int, fn func(i int)) {
	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire

		go func() {
			defer wg.Done()
			defer func() { <-sem }() // Release

			fn(i)
		}()
	}

	wg.Wait()
}

func inactivityMessage(ip *entities.InactiveProgression) string {
	return fmt.Sprintf(
		"You haven't made progress in %q for a while. You're %.0f%% through, keep going!",
		ip.CourseTitle,
		ip.Percentage,
	)
}
