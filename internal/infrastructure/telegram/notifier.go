package telegram

import (
	"context"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

const (
	captionLimit = 1024
	bodyLimit    = 3500
	sourceField  = "🔗 Fonte"
)

// chatSender is the part of *tgbotapi.BotAPI used for outgoing messages.
type chatSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts news notifications to Telegram chats via the bot API.
type Notifier struct {
	api chatSender
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier wraps an authorized bot.
func NewNotifier(api *tgbotapi.BotAPI) *Notifier {
	return &Notifier{api: api}
}

// Send posts n to dest. A notification with an image goes out as a photo when the text
// fits in a caption, otherwise as an HTML message with the image as link preview.
func (n *Notifier) Send(ctx context.Context, notification domain.Notification, dest domain.Destination) error {
	if n == nil || n.api == nil {
		return fmt.Errorf("%w: telegram notifier misconfigured", domain.ErrDelivery)
	}
	if dest.IsZero() {
		return fmt.Errorf("%w: no destination", domain.ErrDelivery)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDelivery, err)
	}

	text := FormatMessage(notification)

	var msg tgbotapi.Chattable
	if notification.ImageURL != "" && utf8.RuneCountInString(text) <= captionLimit {
		photo := tgbotapi.NewPhoto(int64(dest), tgbotapi.FileURL(notification.ImageURL))
		photo.Caption = text
		photo.ParseMode = tgbotapi.ModeHTML
		msg = photo
	} else {
		if notification.ImageURL != "" {
			// Zero-width link so Telegram renders the image as the preview.
			text = fmt.Sprintf("<a href=\"%s\">&#8203;</a>", html.EscapeString(notification.ImageURL)) + text
		}
		message := tgbotapi.NewMessage(int64(dest), text)
		message.ParseMode = tgbotapi.ModeHTML
		message.DisableWebPagePreview = notification.ImageURL == ""
		msg = message
	}

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("%w: send to %d: %v", domain.ErrDelivery, int64(dest), err)
	}
	return nil
}

// FormatMessage renders the notification as Telegram HTML.
func FormatMessage(n domain.Notification) string {
	var b strings.Builder
	b.WriteString("<b>")
	b.WriteString(html.EscapeString(n.Title))
	b.WriteString("</b>\n\n")
	if summary := strings.TrimSpace(n.Body); summary != "" {
		b.WriteString(html.EscapeString(truncateRunes(summary, bodyLimit)))
		b.WriteString("\n\n")
	}
	b.WriteString("<b>")
	b.WriteString(sourceField)
	b.WriteString("</b>: ")
	fmt.Fprintf(&b, "<a href=\"%s\">%s</a>", html.EscapeString(n.SourceURL), html.EscapeString(n.SourceLabel))
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}
