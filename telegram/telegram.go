package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// telegram rejects messages above 4096 characters
const maxMessageLength = 4000

func EscapeMessage(message string) string {
	r := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"`", "\\`",
	)
	return r.Replace(message)
}

// Notifier sends operational alerts, e.g. model replies that could not be
// parsed or collections whose storage could not be cleaned up.
type Notifier interface {
	Alert(title string, details string)
}

type NopNotifier struct{}

func (NopNotifier) Alert(string, string) {}

type BotNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier returns a NopNotifier when no token or chat is configured.
func NewNotifier(token string, chatID int64) (Notifier, error) {
	if token == "" || chatID == 0 {
		return NopNotifier{}, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	log.Info().Str("account", bot.Self.UserName).Msg("telegram alerts enabled")
	return &BotNotifier{bot: bot, chatID: chatID}, nil
}

func FormatAlert(title string, details string) string {
	body := details
	if utf8.RuneCountInString(body) > maxMessageLength {
		body = string([]rune(body)[:maxMessageLength]) + "..."
	}
	return fmt.Sprintf("*%s*\n```\n%s\n```", EscapeMessage(title), strings.ReplaceAll(body, "```", "'''"))
}

// Alert is fire and forget, send failures are only logged.
func (n *BotNotifier) Alert(title string, details string) {
	msg := tgbotapi.NewMessage(n.chatID, FormatAlert(title, details))
	msg.ParseMode = "markdown"
	go func() {
		if _, err := n.bot.Send(msg); err != nil {
			log.Warn().Err(err).Str("title", title).Msg("telegram alert failed")
		}
	}()
}
