package telegram

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

type HandlerFunc func(ctx context.Context, chatID int64) error

// UserHandlerFunc handles a command from a chat linked to a user.
type UserHandlerFunc func(ctx context.Context, chatID int64, user *entities.User) error

func (h *Handler) withErrorHandling(fn HandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if err := fn(ctx, chatID); err != nil {
			h.logger.Error("handle error",
				zap.Int64("chat_id", chatID),
				zap.Error(err),
			)
			h.sendError(chatID, msgInternalError)
			return nil
		}
		return nil
	}
}

// withLinkedUser resolves the chat's user and asks unlinked chats to run /start first.
func (h *Handler) withLinkedUser(fn UserHandlerFunc) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		user, err := h.users.ByChat(ctx, chatID)
		if errors.Is(err, apperr.ErrNotFound) {
			h.send(newHTMLMessage(chatID, msgNotLinked))
			return nil
		}
		if err != nil {
			return err
		}
		return fn(ctx, chatID, user)
	}
}
