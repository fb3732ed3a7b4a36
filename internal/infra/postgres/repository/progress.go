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

const progressionColumns = `learner_id, course_id, percentage, started_at, completed_at, updated_at`

// ProgressionRepository provides access to course progress data in the database.
type ProgressionRepository struct {
	db postgres.DBTX
}

// NewProgressionRepository creates a new ProgressionRepository with the provided database pool.
func NewProgressionRepository(db postgres.DBTX) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

// Upsert stores the new percentage in a single statement and reports whether
// this write is the one that completed the course. completed_at is stamped
// only while it is still NULL, so it never moves once set.
func (r *ProgressionRepository) Upsert(
	ctx context.Context,
	learnerID, courseID int64,
	percentage float64,
	now time.Time,
) (*entities.Progression, bool, error) {
	// Two racing first writes at 100 both see an empty prev and both report
	// just_completed; certificate issuance is idempotent, so that is harmless.
	query := `
		WITH prev AS (
			SELECT completed_at
			FROM progressions
			WHERE learner_id = $1 AND course_id = $2
			FOR UPDATE
		)
		INSERT INTO progressions (learner_id, course_id, percentage, started_at, completed_at, updated_at)
		VALUES ($1, $2, $3::float8, $4, CASE WHEN $3::float8 >= 100 THEN $4::timestamptz END, $4)
		ON CONFLICT (learner_id, course_id) DO UPDATE SET
			percentage = EXCLUDED.percentage,
			completed_at = COALESCE(progressions.completed_at, EXCLUDED.completed_at),
			updated_at = EXCLUDED.updated_at
		RETURNING ` + progressionColumns + `,
			completed_at IS NOT NULL
				AND NOT EXISTS (SELECT 1 FROM prev WHERE prev.completed_at IS NOT NULL) AS just_completed
	`

	var (
		p             entities.Progression
		justCompleted bool
	)
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, learnerID, courseID, percentage, now).Scan(
		&p.LearnerID,
		&p.CourseID,
		&p.Percentage,
		&p.StartedAt,
		&p.CompletedAt,
		&p.UpdatedAt,
		&justCompleted,
	)
	if err != nil {
		return nil, false, apperr.Persistence("upsert progression", err)
	}

	return &p, justCompleted, nil
}

// Get retrieves a single progression by learner and course.
func (r *ProgressionRepository) Get(ctx context.Context, learnerID, courseID int64) (*entities.Progression, error) {
	query := `SELECT ` + progressionColumns + ` FROM progressions WHERE learner_id = $1 AND course_id = $2`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, learnerID, courseID)
	if err != nil {
		return nil, apperr.Persistence("get progression", err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProgression)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrProgressionNotFound
		}
		return nil, apperr.Persistence("get progression", err)
	}

	return p, nil
}

// ListCompleted returns a page of completed progressions ordered by completion time.
func (r *ProgressionRepository) ListCompleted(ctx context.Context, limit, offset int) ([]*entities.Progression, error) {
	query := `
		SELECT ` + progressionColumns + `
		FROM progressions
		WHERE percentage >= 100 AND completed_at IS NOT NULL
		ORDER BY completed_at, learner_id, course_id
		LIMIT $1 OFFSET $2
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Persistence("list completed progressions", err)
	}

	progressions, err := pgx.CollectRows(rows, scanProgression)
	if err != nil {
		return nil, apperr.Persistence("list completed progressions", err)
	}

	return progressions, nil
}

// ListInactive returns a page of unfinished progressions of active enrollments
// that were last updated before the given time, joined with the course title.
func (r *ProgressionRepository) ListInactive(
	ctx context.Context,
	before time.Time,
	limit, offset int,
) ([]*entities.InactiveProgression, error) {
	query := `
		SELECT p.learner_id, p.course_id, p.percentage, p.started_at, p.completed_at, p.updated_at, c.title
		FROM progressions p
		JOIN enrollments e ON e.learner_id = p.learner_id AND e.course_id = p.course_id
		JOIN courses c ON c.id = p.course_id
		WHERE p.completed_at IS NULL
		  AND e.status = 'active'
		  AND p.updated_at < $1
		ORDER BY p.updated_at, p.learner_id, p.course_id
		LIMIT $2 OFFSET $3
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, before, limit, offset)
	if err != nil {
		return nil, apperr.Persistence("list inactive progressions", err)
	}

	inactive, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entities.InactiveProgression, error) {
		var ip entities.InactiveProgression
		err := row.Scan(
			&ip.LearnerID,
			&ip.CourseID,
			&ip.Percentage,
			&ip.StartedAt,
			&ip.CompletedAt,
			&ip.UpdatedAt,
			&ip.CourseTitle,
		)
		return &ip, err
	})
	if err != nil {
		return nil, apperr.Persistence("list inactive progressions", err)
	}

	return inactive, nil
}

func scanProgression(row pgx.CollectableRow) (*entities.Progression, error) {
	var p entities.Progression
	err := row.Scan(
		&p.LearnerID,
		&p.CourseID,
		&p.Percentage,
		&p.StartedAt,
		&p.CompletedAt,
		&p.UpdatedAt,
	)
	return &p, err
}
