package telegram

import (
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

const timeLayout = "02 Jan 2006 15:04"

func newHTMLMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

// esc escapes user-provided text for HTML parse mode.
func esc(s string) string {
	return html.EscapeString(s)
}

func kindTitle(kind string) string {
	switch entities.NotificationKind(kind) {
	case entities.KindCertificateIssued:
		return "🎓 Certificate issued"
	case entities.KindInactivityReminder:
		return "⏰ Reminder"
	case entities.KindAnnouncement:
		return "📣 Announcement"
	default:
		return "🔔 Notification"
	}
}
