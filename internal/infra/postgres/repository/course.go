package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres"
)

type CourseRepository struct {
	db postgres.DBTX
}

func NewCourseRepository(db postgres.DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

// Save inserts a course or updates its title and level.
func (r *CourseRepository) Save(ctx context.Context, course *entities.Course) error {
	query := `
		INSERT INTO courses (id, title, level, instructor_id, created_at)
		VALUES ($1, $2, $3, NULLIF($4::bigint, 0), $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			level = EXCLUDED.level,
			instructor_id = EXCLUDED.instructor_id
	`

	_, err := postgres.Conn(ctx, r.db).Exec(ctx, query,
		course.ID, course.Title, course.Level, course.InstructorID, course.CreatedAt,
	)
	if err != nil {
		return apperr.Persistence("save course", err)
	}

	return nil
}

// GetByID retrieves a course by ID.
func (r *CourseRepository) GetByID(ctx context.Context, courseID int64) (*entities.Course, error) {
	query := `
		SELECT id, title, level, COALESCE(instructor_id, 0), created_at
		FROM courses
		WHERE id = $1
	`

	var c entities.Course
	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, courseID).Scan(
		&c.ID,
		&c.Title,
		&c.Level,
		&c.InstructorID,
		&c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrCourseNotFound
		}
		return nil, apperr.Persistence("get course", err)
	}

	return &c, nil
}
