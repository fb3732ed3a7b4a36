package entities

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	KindCertificateIssued  NotificationKind = "certificate_issued"
	KindInactivityReminder NotificationKind = "inactivity_reminder"
	KindAnnouncement       NotificationKind = "announcement"
	KindSystem             NotificationKind = "system"
)

// Notification is a persisted message for one recipient.
type Notification struct {
	ID          uuid.UUID
	RecipientID int64
	Message     string
	Kind        NotificationKind
	Read        bool
	CreatedAt   time.Time
}

func NewNotification(recipientID int64, message string, kind NotificationKind, now time.Time) *Notification {
	return &Notification{
		ID:          uuid.New(),
		RecipientID: recipientID,
		Message:     message,
		Kind:        kind,
		CreatedAt:   now,
	}
}

// Channel is a delivery transport for notifications.
type Channel string

const (
	ChannelLive  Channel = "live"
	ChannelEmail Channel = "email"
)

// DeliveryAttempt is the outcome of pushing one notification through one channel.
// It is never persisted.
type DeliveryAttempt struct {
	Channel        Channel
	RecipientID    int64
	NotificationID uuid.UUID
	Err            error
}

func (a DeliveryAttempt) Failed() bool {
	return a.Err != nil
}
