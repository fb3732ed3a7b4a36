package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/domain/apperr"
	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// startHandler links the chat to the learner ID given as the command argument.
func (h *Handler) startHandler(args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		args = strings.TrimSpace(args)
		if args == "" {
			h.send(newHTMLMessage(chatID, msgStartUsage))
			return nil
		}

		userID, err := strconv.ParseInt(args, 10, 64)
		if err != nil || userID <= 0 {
			h.send(newHTMLMessage(chatID, msgInvalidLearnerID))
			return nil
		}

		user, err := h.users.LinkChat(ctx, userID, chatID)
		if errors.Is(err, apperr.ErrNotFound) {
			h.send(newHTMLMessage(chatID, msgUnknownLearner))
			return nil
		}
		if err != nil {
			return err
		}

		h.logger.Info("chat linked",
			zap.Int64("user_id", user.ID),
			zap.Int64("chat_id", chatID),
		)

		h.send(newHTMLMessage(chatID, fmt.Sprintf(msgLinked, esc(user.Name))))
		return nil
	}
}

func (h *Handler) inboxHandler(ctx context.Context, chatID int64, user *entities.User) error {
	text, ns, err := h.renderInbox(ctx, user)
	if err != nil {
		return err
	}

	msg := newHTMLMessage(chatID, text)
	if kb := buildInboxKeyboard(ns); kb != nil {
		msg.ReplyMarkup = kb
	}
	h.send(msg)
	return nil
}

// readHandler marks the N-th notification of the inbox as read.
func (h *Handler) readHandler(args string) UserHandlerFunc {
	return func(ctx context.Context, chatID int64, user *entities.User) error {
		n, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil || n < 1 {
			h.send(newHTMLMessage(chatID, msgReadUsage))
			return nil
		}

		ns, err := h.notifications.GetForUser(ctx, user.ID)
		if err != nil {
			return err
		}
		if n > len(ns) {
			h.send(newHTMLMessage(chatID, msgReadUsage))
			return nil
		}

		_, err = h.notifications.MarkAsRead(ctx, ns[n-1].ID, user.ID)
		if errors.Is(err, apperr.ErrNotFound) {
			h.send(newHTMLMessage(chatID, msgNotificationGone))
			return nil
		}
		if err != nil {
			return err
		}

		h.send(newHTMLMessage(chatID, fmt.Sprintf("✅ %s: %d", msgMarkedAsRead, n)))
		return nil
	}
}

func (h *Handler) certificatesHandler(ctx context.Context, chatID int64, user *entities.User) error {
	certs, err := h.certificates.ListForLearner(ctx, user.ID)
	if err != nil {
		return err
	}

	h.send(newHTMLMessage(chatID, formatCertificates(certs)))
	return nil
}

// renderInbox returns the inbox text and the notifications it lists.
func (h *Handler) renderInbox(ctx context.Context, user *entities.User) (string, []*entities.Notification, error) {
	ns, err := h.notifications.GetForUser(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}
	if len(ns) > inboxSize {
		ns = ns[:inboxSize]
	}

	unread, err := h.notifications.CountUnread(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	return formatInbox(ns, unread), ns, nil
}
