package storage

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type NotificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) *NotificationRepository {
	return &NotificationRepository{s: s}
}

func (r *NotificationRepository) Insert(_ context.Context, n *entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c := *n
	r.s.notifications[n.ID] = &c
	return nil
}

func (r *NotificationRepository) InsertMany(_ context.Context, ns []*entities.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, n := range ns {
		c := *n
		r.s.notifications[n.ID] = &c
	}
	return nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id uuid.UUID) (*entities.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n, ok := r.s.notifications[id]
	if !ok {
		return nil, apperr.ErrNotificationNotFound
	}
	c := *n
	return &c, nil
}

func (r *NotificationRepository) MarkRead(
	_ context.Context,
	id uuid.UUID,
	recipientID int64,
) (*entities.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return nil, apperr.ErrNotificationNotFound
	}
	n.Read = true
	c := *n
	return &c, nil
}

func (r *NotificationRepository) Delete(_ context.Context, id uuid.UUID, recipientID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.RecipientID != recipientID {
		return apperr.ErrNotificationNotFound
	}
	delete(r.s.notifications, id)
	return nil
}

func (r *NotificationRepository) ListByRecipient(
	_ context.Context,
	recipientID int64,
	limit int,
) ([]*entities.Notification, error) {
	r.s.mu.RLock()
	var out []*entities.Notification
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	return page(out, limit, 0), nil
}

func (r *NotificationRepository) CountUnread(_ context.Context, recipientID int64) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.Read {
			count++
		}
	}
	return count, nil
}

// ByKind returns every stored notification of the given kind.
func (r *NotificationRepository) ByKind(kind entities.NotificationKind) []*entities.Notification {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entities.Notification
	for _, n := range r.s.notifications {
		if n.Kind == kind {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}
