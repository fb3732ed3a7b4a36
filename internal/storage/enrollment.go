package storage

import (
	"context"
	"time"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type EnrollmentRepository struct {
	s *Store
}

func NewEnrollmentRepository(s *Store) *EnrollmentRepository {
	return &EnrollmentRepository{s: s}
}

func (r *EnrollmentRepository) Create(_ context.Context, e *entities.Enrollment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pairKey{e.LearnerID, e.CourseID}
	if _, exists := r.s.enrollments[k]; exists {
		return apperr.ErrEnrollmentExists
	}
	c := *e
	r.s.enrollments[k] = &c
	return nil
}

func (r *EnrollmentRepository) Get(_ context.Context, learnerID, courseID int64) (*entities.Enrollment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.enrollments[pairKey{learnerID, courseID}]
	if !ok {
		return nil, apperr.ErrEnrollmentNotFound
	}
	c := *e
	return &c, nil
}

func (r *EnrollmentRepository) Transition(
	_ context.Context,
	learnerID, courseID int64,
	from, to entities.EnrollmentStatus,
	now time.Time,
) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.enrollments[pairKey{learnerID, courseID}]
	if !ok || e.Status != from {
		return false, nil
	}
	e.Status = to
	e.UpdatedAt = now
	return true, nil
}
