package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := decodeCallback(cb.Data)

	var notice string
	switch data.Action {
	case actionRead:
		notice = h.readCallback(ctx, chatID, data)
	case actionInbox:
	default:
		return
	}

	h.refreshInbox(ctx, cb)

	// Remove the user's "clock".
	answer := tgbotapi.NewCallback(cb.ID, notice)
	if _, err := h.bot.Request(answer); err != nil {
		h.logger.Warn("callback answer error", zap.Error(err))
	}
}

// readCallback marks the notification from the button as read and returns
// the text shown to the user.
func (h *Handler) readCallback(ctx context.Context, chatID int64, data callbackData) string {
	if len(data.Params) != 1 {
		h.logger.Warn("invalid read callback data", zap.String("data", data.Raw))
		return ""
	}
	id, err := uuid.Parse(data.Params[0])
	if err != nil {
		h.logger.Warn("invalid notification id in callback", zap.String("data", data.Raw))
		return ""
	}

	user, err := h.users.ByChat(ctx, chatID)
	if err != nil {
		return msgNotLinked
	}

	_, err = h.notifications.MarkAsRead(ctx, id, user.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return msgNotificationGone
	case err != nil:
		h.logger.Error("failed to mark notification as read",
			zap.String("notification_id", id.String()),
			zap.Error(err),
		)
		return msgInternalError
	}

	return msgMarkedAsRead
}

func (h *Handler) refreshInbox(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	user, err := h.users.ByChat(ctx, cb.Message.Chat.ID)
	if err != nil {
		return
	}

	text, ns, err := h.renderInbox(ctx, user)
	if err != nil {
		h.logger.Error("failed to render inbox", zap.Error(err))
		return
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	if kb := buildInboxKeyboard(ns); kb != nil {
		edit.ReplyMarkup = kb
	}

	h.send(edit)
}
