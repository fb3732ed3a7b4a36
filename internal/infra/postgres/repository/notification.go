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

const notificationColumns = `id, recipient_id, message, kind, read, created_at`

// NotificationRepository provides access to persisted notifications.
type NotificationRepository struct {
	db postgres.DBTX
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db postgres.DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Insert stores a single notification.
func (r *NotificationRepository) Insert(ctx context.Context, n *entities.Notification) error {
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := postgres.Conn(ctx, r.db).Exec(ctx, query,
		n.ID, n.RecipientID, n.Message, string(n.Kind), n.Read, n.CreatedAt,
	)
	if err != nil {
		return apperr.Persistence("insert notification", err)
	}

	return nil
}

// InsertMany stores all notifications with a single COPY, so either all rows land or none.
func (r *NotificationRepository) InsertMany(ctx context.Context, ns []*entities.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	columns := []string{"id", "recipient_id", "message", "kind", "read", "created_at"}
	src := pgx.CopyFromSlice(len(ns), func(i int) ([]any, error) {
		n := ns[i]
		return []any{n.ID, n.RecipientID, n.Message, string(n.Kind), n.Read, n.CreatedAt}, nil
	})

	copied, err := postgres.Conn(ctx, r.db).CopyFrom(ctx, pgx.Identifier{"notifications"}, columns, src)
	if err != nil {
		return apperr.Persistence("insert notifications", err)
	}
	if int(copied) != len(ns) {
		return apperr.Persistence("insert notifications", errors.New("short copy"))
	}

	return nil
}

// GetByID retrieves a notification by ID regardless of its recipient.
func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, id)
	if err != nil {
		return nil, apperr.Persistence("get notification", err)
	}

	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotificationNotFound
		}
		return nil, apperr.Persistence("get notification", err)
	}

	return n, nil
}

// MarkRead sets read=true on the notification only if it belongs to recipientID.
// When nothing matches it returns apperr.ErrNotificationNotFound.
func (r *NotificationRepository) MarkRead(
	ctx context.Context,
	id uuid.UUID,
	recipientID int64,
) (*entities.Notification, error) {
	query := `
		UPDATE notifications SET read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING ` + notificationColumns

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, id, recipientID)
	if err != nil {
		return nil, apperr.Persistence("mark notification read", err)
	}

	n, err := pgx.CollectExactlyOneRow(rows, scanNotification)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.ErrNotificationNotFound
		}
		return nil, apperr.Persistence("mark notification read", err)
	}

	return n, nil
}

// Delete removes the notification only if it belongs to recipientID.
func (r *NotificationRepository) Delete(ctx context.Context, id uuid.UUID, recipientID int64) error {
	tag, err := postgres.Conn(ctx, r.db).Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, recipientID,
	)
	if err != nil {
		return apperr.Persistence("delete notification", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotificationNotFound
	}

	return nil
}

// ListByRecipient returns the newest notifications of a recipient first.
func (r *NotificationRepository) ListByRecipient(
	ctx context.Context,
	recipientID int64,
	limit int,
) ([]*entities.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE recipient_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, apperr.Persistence("list notifications", err)
	}

	ns, err := pgx.CollectRows(rows, scanNotification)
	if err != nil {
		return nil, apperr.Persistence("list notifications", err)
	}

	return ns, nil
}

// CountUnread returns how many notifications of the recipient are still unread.
func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	var count int
	err := postgres.Conn(ctx, r.db).QueryRow(ctx,
		`SELECT count(*) FROM notifications WHERE recipient_id = $1 AND NOT read`, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, apperr.Persistence("count unread notifications", err)
	}

	return count, nil
}

func scanNotification(row pgx.CollectableRow) (*entities.Notification, error) {
	var (
		n    entities.Notification
		kind string
	)
	err := row.Scan(&n.ID, &n.RecipientID, &n.Message, &kind, &n.Read, &n.CreatedAt)
	n.Kind = entities.NotificationKind(kind)
	return &n, err
}
