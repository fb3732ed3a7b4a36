package storage

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type CertificateRepository struct {
	s *Store
}

func NewCertificateRepository(s *Store) *CertificateRepository {
	return &CertificateRepository{s: s}
}

// Insert fails with apperr.ErrCertificateExists when the learner already holds
// a certificate for the course. Inside a transaction the row stays staged until commit.
func (r *CertificateRepository) Insert(ctx context.Context, c *entities.Certificate) error {
	k := pairKey{c.LearnerID, c.CourseID}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.certificates[k]; exists {
		return apperr.ErrCertificateExists
	}

	cc := *c
	if t, ok := txFrom(ctx); ok {
		if _, exists := t.certificates[k]; exists {
			return apperr.ErrCertificateExists
		}
		t.certificates[k] = &cc
		return nil
	}

	r.s.certificates[k] = &cc
	return nil
}

func (r *CertificateRepository) SetArtifact(ctx context.Context, id uuid.UUID, ref string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t, ok := txFrom(ctx); ok {
		for _, c := range t.certificates {
			if c.ID == id {
				c.ArtifactRef = ref
				return nil
			}
		}
	}
	for _, c := range r.s.certificates {
		if c.ID == id {
			c.ArtifactRef = ref
			return nil
		}
	}
	return apperr.ErrCertificateNotFound
}

func (r *CertificateRepository) GetByLearnerAndCourse(
	ctx context.Context,
	learnerID, courseID int64,
) (*entities.Certificate, error) {
	k := pairKey{learnerID, courseID}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if t, ok := txFrom(ctx); ok {
		if c, ok := t.certificates[k]; ok {
			cc := *c
			return &cc, nil
		}
	}
	c, ok := r.s.certificates[k]
	if !ok {
		return nil, apperr.ErrCertificateNotFound
	}
	cc := *c
	return &cc, nil
}

func (r *CertificateRepository) ListByLearner(_ context.Context, learnerID int64) ([]*entities.Certificate, error) {
	r.s.mu.RLock()
	var out []*entities.Certificate
	for _, c := range r.s.certificates {
		if c.LearnerID == learnerID {
			cc := *c
			out = append(out, &cc)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

// Count returns the number of committed certificates.
func (r *CertificateRepository) Count() int {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.certificates)
}
