package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// Bot is the part of *tgbotapi.BotAPI the package uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type UserService interface {
	LinkChat(ctx context.Context, userID, chatID int64) (*entities.User, error)
	ByChat(ctx context.Context, chatID int64) (*entities.User, error)
}

type NotificationService interface {
	GetForUser(ctx context.Context, recipientID int64) ([]*entities.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID, recipientID int64) (*entities.Notification, error)
	CountUnread(ctx context.Context, recipientID int64) (int, error)
}

type CertificateService interface {
	ListForLearner(ctx context.Context, learnerID int64) ([]*entities.Certificate, error)
}

// UserLookup resolves notification rooms to chats.
type UserLookup interface {
	GetByID(ctx context.Context, userID int64) (*entities.User, error)
}
