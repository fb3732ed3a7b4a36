// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/course-tracker/internal/domain/entities"
)

// Error messages.
const (
	msgInternalError    = "Something went wrong. Please try again later."
	msgUnknownCommand   = "Unknown command. Available commands:\n\n/inbox - your notifications\n/read N - mark notification N as read\n/certificates - your certificates"
	msgNotLinked        = "This chat is not linked to an account yet. Send /start followed by your learner ID."
	msgStartUsage       = "Welcome! Send <code>/start ID</code> with your learner ID to receive course notifications here."
	msgInvalidLearnerID = "The learner ID must be a positive number."
	msgUnknownLearner   = "No account found for this learner ID."
	msgReadUsage        = "Use: /read N, where N is the number from /inbox."
	msgNotificationGone = "This notification no longer exists."
	msgInboxEmpty       = "📭 You have no notifications."
	msgNoCertificates   = "You have no certificates yet. Finish a course to earn one!"
	msgMarkedAsRead     = "Marked as read"
	msgLinked           = "✅ Linked to <b>%s</b>. Course notifications will arrive in this chat."
)

const inboxSize = 10

func formatInbox(ns []*entities.Notification, unread int) string {
	if len(ns) == 0 {
		return msgInboxEmpty
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📬 Inbox</b> (%d unread)\n\n", unread)

	for i, n := range ns {
		marker := "•"
		if n.Read {
			marker = "◦"
		}
		fmt.Fprintf(&b, "%s <b>%d.</b> %s <i>%s</i>\n%s\n\n",
			marker,
			i+1,
			kindTitle(string(n.Kind)),
			n.CreatedAt.Format(timeLayout),
			esc(n.Message),
		)
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatCertificates(certs []*entities.Certificate) string {
	if len(certs) == 0 {
		return msgNoCertificates
	}

	var b strings.Builder
	b.WriteString("<b>🎓 Your certificates</b>\n\n")

	for _, c := range certs {
		fmt.Fprintf(&b, "Course #%d, issued %s\n", c.CourseID, c.IssuedAt.Format(timeLayout))
		if c.ArtifactRef != "" {
			fmt.Fprintf(&b, "<a href=\"%s\">Download</a>\n", esc(c.ArtifactRef))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// buildInboxKeyboard adds a read button for every unread notification.
func buildInboxKeyboard(ns []*entities.Notification) *tgbotapi.InlineKeyboardMarkup {
	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)

	for i, n := range ns {
		if n.Read {
			continue
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✓ %d", i+1), buildReadCallback(n.ID)))
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔄 Refresh", buildInboxCallback()),
	))

	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
