package telegram

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/aliskhannn/course-tracker/internal/realtime"
	"github.com/aliskhannn/course-tracker/internal/service"
)

// Notifier pushes live notification events into the recipient's linked chat.
// Rooms are user IDs; users without a linked chat are skipped.
type Notifier struct {
	bot    Bot
	users  UserLookup
	logger *zap.Logger
}

func NewNotifier(bot Bot, users UserLookup, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:    bot,
		users:  users,
		logger: logger.With(zap.String("component", "telegram_notifier")),
	}
}

func (n *Notifier) Emit(ctx context.Context, room, event string, data any) error {
	if event != realtime.EventNotification {
		return nil
	}

	userID, err := strconv.ParseInt(room, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid room %q: %w", room, err)
	}

	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve chat: %w", err)
	}
	if user.ChatID == 0 {
		n.logger.Debug("user has no linked chat", zap.Int64("user_id", userID))
		return nil
	}

	if _, err := n.bot.Send(newHTMLMessage(user.ChatID, formatPush(data))); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

func formatPush(data any) string {
	switch p := data.(type) {
	case service.NotificationPayload:
		return fmt.Sprintf("<b>%s</b>\n\n%s", kindTitle(p.Kind), esc(p.Message))
	case *service.NotificationPayload:
		return fmt.Sprintf("<b>%s</b>\n\n%s", kindTitle(p.Kind), esc(p.Message))
	default:
		return esc(fmt.Sprint(data))
	}
}
