package storage

import (
	"context"
	"sort"
	"time"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type ProgressionRepository struct {
	s *Store
}

func NewProgressionRepository(s *Store) *ProgressionRepository {
	return &ProgressionRepository{s: s}
}

// Upsert mirrors the PostgreSQL upsert: completed_at is stamped only while unset.
func (r *ProgressionRepository) Upsert(
	_ context.Context,
	learnerID, courseID int64,
	percentage float64,
	now time.Time,
) (*entities.Progression, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := pairKey{learnerID, courseID}
	p, ok := r.s.progressions[k]
	if !ok {
		p = &entities.Progression{LearnerID: learnerID, CourseID: courseID, StartedAt: now}
		r.s.progressions[k] = p
	}

	justCompleted := false
	p.Percentage = percentage
	p.UpdatedAt = now
	if p.CompletedAt == nil && percentage >= entities.MaxPercentage {
		completed := now
		p.CompletedAt = &completed
		justCompleted = true
	}

	return cloneProgression(p), justCompleted, nil
}

func (r *ProgressionRepository) Get(_ context.Context, learnerID, courseID int64) (*entities.Progression, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.progressions[pairKey{learnerID, courseID}]
	if !ok {
		return nil, apperr.ErrProgressionNotFound
	}
	return cloneProgression(p), nil
}

func (r *ProgressionRepository) ListCompleted(_ context.Context, limit, offset int) ([]*entities.Progression, error) {
	r.s.mu.RLock()
	var out []*entities.Progression
	for _, p := range r.s.progressions {
		if p.IsComplete() {
			out = append(out, cloneProgression(p))
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(*out[j].CompletedAt) {
			return out[i].CompletedAt.Before(*out[j].CompletedAt)
		}
		return lessPair(out[i].LearnerID, out[i].CourseID, out[j].LearnerID, out[j].CourseID)
	})

	return page(out, limit, offset), nil
}

func (r *ProgressionRepository) ListInactive(
	_ context.Context,
	before time.Time,
	limit, offset int,
) ([]*entities.InactiveProgression, error) {
	r.s.mu.RLock()
	var out []*entities.InactiveProgression
	for k, p := range r.s.progressions {
		if p.CompletedAt != nil || !p.UpdatedAt.Before(before) {
			continue
		}
		e, ok := r.s.enrollments[k]
		if !ok || e.Status != entities.EnrollmentActive {
			continue
		}
		c, ok := r.s.courses[k.courseID]
		if !ok {
			continue
		}
		out = append(out, &entities.InactiveProgression{Progression: *cloneProgression(p), CourseTitle: c.Title})
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return lessPair(out[i].LearnerID, out[i].CourseID, out[j].LearnerID, out[j].CourseID)
	})

	return page(out, limit, offset), nil
}

func cloneProgression(p *entities.Progression) *entities.Progression {
	c := *p
	c.CompletedAt = clonePtr(p.CompletedAt)
	return &c
}

func lessPair(l1, c1, l2, c2 int64) bool {
	if l1 != l2 {
		return l1 < l2
	}
	return c1 < c2
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
