package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres"
)

const certificateUniqueKey = "certificates_learner_course_key"

// CertificateRepository provides access to issued certificates.
type CertificateRepository struct {
	db postgres.DBTX
}

// NewCertificateRepository creates a new CertificateRepository.
func NewCertificateRepository(db postgres.DBTX) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Insert stores a new certificate. The unique index on (learner_id, course_id)
// is the only guard against duplicates: a violation is reported as
// apperr.ErrCertificateExists and the caller fetches the existing row.
func (r *CertificateRepository) Insert(ctx context.Context, c *entities.Certificate) error {
	query := `
		INSERT INTO certificates (id, learner_id, course_id, issued_at, artifact_ref)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := postgres.Conn(ctx, r.db).Exec(ctx, query, c.ID, c.LearnerID, c.CourseID, c.IssuedAt, c.ArtifactRef)
	if err != nil {
		if postgres.IsUniqueViolation(err, certificateUniqueKey) {
			return apperr.ErrCertificateExists
		}
		return apperr.Persistence("insert certificate", err)
	}

	return nil
}

// SetArtifact records where the rendered certificate is stored.
func (r *CertificateRepository) SetArtifact(ctx context.Context, id uuid.UUID, ref string) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx,
		`UPDATE certificates SET artifact_ref = $2 WHERE id = $1`, id, ref,
	)
	if err != nil {
		return apperr.Persistence("set certificate artifact", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrCertificateNotFound
	}

	return nil
}

// GetByLearnerAndCourse retrieves the certificate of a learner for a course.
func (r *CertificateRepository) GetByLearnerAndCourse(
	ctx context.Context,
	learnerID, courseID int64,
) (*entities.Certificate, error) {
	query := `
		SELECT id, learner_id, course_id, issued_at, artifact_ref
		FROM certificates
		WHERE learner_id = $1 AND course_id = $2
	`

	var c entities.Certificate
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, learnerID, courseID).Scan(
		&c.ID,
		&c.LearnerID,
		&c.CourseID,
		&c.IssuedAt,
		&c.ArtifactRef,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrCertificateNotFound
		}
		return nil, apperr.Persistence("get certificate", err)
	}

	return &c, nil
}

// ListByLearner returns the learner's certificates, newest first.
func (r *CertificateRepository) ListByLearner(ctx context.Context, learnerID int64) ([]*entities.Certificate, error) {
	query := `
		SELECT id, learner_id, course_id, issued_at, artifact_ref
		FROM certificates
		WHERE learner_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, learnerID)
	if err != nil {
		return nil, apperr.Persistence("list certificates", err)
	}

	certs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.Certificate, error) {
		var c entities.Certificate
		err := row.Scan(&c.ID, &c.LearnerID, &c.CourseID, &c.IssuedAt, &c.ArtifactRef)
		return &c, err
	})
	if err != nil {
		return nil, apperr.Persistence("list certificates", err)
	}

	return certs, nil
}
