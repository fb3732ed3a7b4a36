package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres"
)

// EnrollmentRepository provides access to enrollments.
type EnrollmentRepository struct {
	db postgres.DBTX
}

// NewEnrollmentRepository creates a new EnrollmentRepository.
func NewEnrollmentRepository(db postgres.DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create inserts a new enrollment. A second enrollment for the same
// learner and course fails with apperr.ErrEnrollmentExists.
func (r *EnrollmentRepository) Create(ctx context.Context, e *entities.Enrollment) error {
	query := `
		INSERT INTO enrollments (learner_id, course_id, status, enrolled_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := postgres.Conn(ctx, r.db).Exec(ctx, query,
		e.LearnerID, e.CourseID, string(e.Status), e.EnrolledAt, e.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err, "enrollments_pkey") {
			return apperr.ErrEnrollmentExists
		}
		return apperr.Persistence("create enrollment", err)
	}

	return nil
}

// Get retrieves the enrollment of a learner in a course.
func (r *EnrollmentRepository) Get(ctx context.Context, learnerID, courseID int64) (*entities.Enrollment, error) {
	query := `
		SELECT learner_id, course_id, status, enrolled_at, updated_at
		FROM enrollments
		WHERE learner_id = $1 AND course_id = $2
	`

	var (
		e      entities.Enrollment
		status string
	)
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, learnerID, courseID).Scan(
		&e.LearnerID,
		&e.CourseID,
		&status,
		&e.EnrolledAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrEnrollmentNotFound
		}
		return nil, apperr.Persistence("get enrollment", err)
	}

	e.Status = entities.EnrollmentStatus(status)
	return &e, nil
}

// Transition moves an enrollment from one status to another.
// It returns false when the enrollment was not in the expected status.
func (r *EnrollmentRepository) Transition(
	ctx context.Context,
	learnerID, courseID int64,
	from, to entities.EnrollmentStatus,
	now time.Time,
) (bool, error) {
	query := `
		UPDATE enrollments
		SET status = $4, updated_at = $5
		WHERE learner_id = $1 AND course_id = $2 AND status = $3
	`

	tag, err := postgres.Conn(ctx, r.db).Exec(ctx, query, learnerID, courseID, string(from), string(to), now)
	if err != nil {
		return false, apperr.Persistence("transition enrollment", err)
	}

	return tag.RowsAffected() == 1, nil
}
