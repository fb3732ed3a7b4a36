package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/course-tracker/internal/config"
	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
	"github.com/aliskhannn/course-tracker/internal/infra/email"
	"github.com/aliskhannn/course-tracker/internal/realtime"
)

// NewNotification is a request to notify a single recipient.
type NewNotification struct {
	RecipientID int64                     `json:"recipient_id" validate:"gt=0"`
	Message     string                    `json:"message" validate:"required,notblank,max=2000"`
	Kind        entities.NotificationKind `json:"kind" validate:"required,oneof=certificate_issued inactivity_reminder announcement system"`
}

// NewBatchNotification is one message sent to many recipients.
type NewBatchNotification struct {
	RecipientIDs []int64                   `json:"recipient_ids" validate:"required,min=1,dive,gt=0"`
	Message      string                    `json:"message" validate:"required,notblank,max=2000"`
	Kind         entities.NotificationKind `json:"kind" validate:"required,oneof=certificate_issued inactivity_reminder announcement system"`
}

// NotificationService persists notifications and pushes them over the live
// channel and email. Delivery is best effort: a failed channel is logged and
// never undoes or fails the write.
type NotificationService struct {
	repo      NotificationRepository
	users     UserRepository
	live      realtime.Emitter
	mailer    email.Sender
	validator *inputValidator
	cfg       config.Notifications
	now       func() time.Time
	logger    *zap.Logger
}

func NewNotificationService(
	repo NotificationRepository,
	users UserRepository,
	live realtime.Emitter,
	mailer email.Sender,
	cfg config.Notifications,
	logger *zap.Logger,
) *NotificationService {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 10
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if cfg.ListLimit <= 0 {
		cfg.ListLimit = 50
	}

	return &NotificationService{
		repo:      repo,
		users:     users,
		live:      live,
		mailer:    mailer,
		validator: newInputValidator(),
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.With(zap.String("component", "notifications")),
	}
}

// Create validates and stores a notification, then attempts both deliveries.
// The stored notification is returned even if every delivery failed.
func (s *NotificationService) Create(ctx context.Context, in NewNotification) (*entities.Notification, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	n := entities.NewNotification(in.RecipientID, in.Message, in.Kind, s.now())
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.deliver(ctx, n)
	return n, nil
}

// CreateBatch stores one notification per distinct recipient in a single
// write, then delivers them with bounded concurrency. One recipient's failed
// delivery does not affect the others.
func (s *NotificationService) CreateBatch(ctx context.Context, in NewBatchNotification) ([]*entities.Notification, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	seen := make(map[int64]bool, len(in.RecipientIDs))
	ns := make([]*entities.Notification, 0, len(in.RecipientIDs))
	for _, id := range in.RecipientIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		ns = append(ns, entities.NewNotification(id, in.Message, in.Kind, now))
	}

	if err := s.repo.InsertMany(ctx, ns); err != nil {
		return nil, fmt.Errorf("create notifications: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrent)
	for _, n := range ns {
		g.Go(func() error {
			s.deliver(ctx, n)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("batch notification created",
		zap.String("kind", string(in.Kind)),
		zap.Int("recipients", len(ns)),
	)

	return ns, nil
}

// MarkAsRead marks the recipient's notification as read. It fails with
// apperr.ErrNotificationNotFound when the notification does not exist and
// apperr.ErrNotificationForbidden when it belongs to someone else.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID, recipientID int64) (*entities.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return nil, s.ownershipError(ctx, id, err)
	}
	return n, nil
}

// Delete removes the recipient's notification with the same ownership rules as MarkAsRead.
func (s *NotificationService) Delete(ctx context.Context, id uuid.UUID, recipientID int64) error {
	if err := s.repo.Delete(ctx, id, recipientID); err != nil {
		return s.ownershipError(ctx, id, err)
	}
	return nil
}

// Resend delivers an existing notification again without storing a new one.
// As with Create, failed channels are logged and never fail the call.
func (s *NotificationService) Resend(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("resend notification: %w", err)
	}

	s.deliver(ctx, n)
	return n, nil
}

// GetForUser returns the recipient's notifications, newest first.
func (s *NotificationService) GetForUser(ctx context.Context, recipientID int64) ([]*entities.Notification, error) {
	ns, err := s.repo.ListByRecipient(ctx, recipientID, s.cfg.ListLimit)
	if err != nil {
		return nil, fmt.Errorf("get notifications: %w", err)
	}
	return ns, nil
}

func (s *NotificationService) CountUnread(ctx context.Context, recipientID int64) (int, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// ownershipError tells a missing notification apart from someone else's.
func (s *NotificationService) ownershipError(ctx context.Context, id uuid.UUID, err error) error {
	if !errors.Is(err, apperr.ErrNotificationNotFound) {
		return err
	}

	if _, getErr := s.repo.GetByID(ctx, id); getErr != nil {
		if errors.Is(getErr, apperr.ErrNotificationNotFound) {
			return apperr.ErrNotificationNotFound
		}
		return getErr
	}
	return apperr.ErrNotificationForbidden
}

// deliver runs the live and email attempts concurrently. Attempts outlive a
// cancelled caller but are bounded by the delivery timeout.
func (s *NotificationService) deliver(ctx context.Context, n *entities.Notification) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DeliveryTimeout)
	defer cancel()

	attempts := []entities.DeliveryAttempt{
		{Channel: entities.ChannelLive, RecipientID: n.RecipientID, NotificationID: n.ID},
		{Channel: entities.ChannelEmail, RecipientID: n.RecipientID, NotificationID: n.ID},
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		attempts[0].Err = s.emitLive(ctx, n)
	}()
	go func() {
		defer wg.Done()
		attempts[1].Err = s.sendEmail(ctx, n)
	}()
	wg.Wait()

	for _, a := range attempts {
		if a.Failed() {
			s.logger.Warn("notification delivery failed",
				zap.String("channel", string(a.Channel)),
				zap.String("notification_id", a.NotificationID.String()),
				zap.Int64("recipient_id", a.RecipientID),
				zap.Error(a.Err),
			)
		}
	}
}

func (s *NotificationService) emitLive(ctx context.Context, n *entities.Notification) error {
	room := strconv.FormatInt(n.RecipientID, 10)
	if err := s.live.Emit(ctx, room, realtime.EventNotification, notificationPayload(n)); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err)
	}
	return nil
}

func (s *NotificationService) sendEmail(ctx context.Context, n *entities.Notification) error {
	user, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err)
	}
	if user.Email == "" {
		return fmt.Errorf("%w: recipient has no email address", apperr.ErrDeliveryFailure)
	}

	msg := email.Message{
		To:      mail.Address{Name: user.Name, Address: user.Email},
		Subject: emailSubject(n.Kind),
		Text:    n.Message,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrDeliveryFailure, err)
	}
	return nil
}

// NotificationPayload is the live representation of a notification.
type NotificationPayload struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func notificationPayload(n *entities.Notification) NotificationPayload {
	return NotificationPayload{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		Message:   n.Message,
		CreatedAt: n.CreatedAt,
	}
}

func emailSubject(kind entities.NotificationKind) string {
	switch kind {
	case entities.KindCertificateIssued:
		return "Your certificate is ready"
	case entities.KindInactivityReminder:
		return "Pick up where you left off"
	case entities.KindAnnouncement:
		return "New announcement"
	default:
		return "New notification"
	}
}
