package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/postgres"
)

// UserRepository provides access to user data in the database.
type UserRepository struct {
	db postgres.DBTX
}

// NewUserRepository creates a new UserRepository with the provided database pool.
func NewUserRepository(db postgres.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Save inserts a new user or updates an existing one.
func (r *UserRepository) Save(ctx context.Context, user *entities.User) error {
	role, profile, err := entities.MarshalProfile(user.Profile)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO users (id, name, email, chat_id, role, profile, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			role = EXCLUDED.role,
			profile = EXCLUDED.profile
	`

	_, err = postgres.Conn(ctx, r.db).Exec(ctx, query,
		user.ID, user.Name, user.Email, user.ChatID, string(role), profile, user.CreatedAt,
	)
	if err != nil {
		return apperr.Persistence("save user", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*entities.User, error) {
	query := `
		SELECT id, name, email, chat_id, role, profile, created_at
		FROM users
		WHERE id = $1
	`

	return r.scanOne(ctx, "get user", query, userID)
}

// GetByChatID retrieves the user that linked the given Telegram chat.
func (r *UserRepository) GetByChatID(ctx context.Context, chatID int64) (*entities.User, error) {
	query := `
		SELECT id, name, email, chat_id, role, profile, created_at
		FROM users
		WHERE chat_id = $1
		LIMIT 1
	`

	return r.scanOne(ctx, "get user by chat", query, chatID)
}

// LinkChat stores the Telegram chat used for live pushes to the user.
func (r *UserRepository) LinkChat(ctx context.Context, userID, chatID int64) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx,
		`UPDATE users SET chat_id = $2 WHERE id = $1`, userID, chatID,
	)
	if err != nil {
		return apperr.Persistence("link chat", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, op, query string, arg int64) (*entities.User, error) {
	var (
		user    entities.User
		role    string
		profile []byte
	)

	err := postgres.Conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.ChatID,
		&role,
		&profile,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrUserNotFound
		}
		return nil, apperr.Persistence(op, err)
	}

	user.Profile, err = entities.UnmarshalProfile(entities.Role(role), profile)
	if err != nil {
		return nil, err
	}

	return &user, nil
}
