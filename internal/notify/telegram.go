package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kayz/techwatch/internal/config"
)

// telegramMessageLimit is the Bot API hard cap per message.
const telegramMessageLimit = 4096

// Telegram delivers digests to one Telegram chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(cfg config.TelegramConfig) (*Telegram, error) {
	if cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram chat_id is required")
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: cfg.ChatID}, nil
}

func (t *Telegram) Name() string {
	return "telegram"
}

// Send splits the digest into API-sized chunks and sends them in order.
func (t *Telegram) Send(ctx context.Context, digest string) error {
	for _, chunk := range splitMessage(digest, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(t.chatID, chunk)
		msg.ParseMode = "Markdown"
		msg.DisableWebPagePreview = true
		if _, err := t.bot.Send(msg); err != nil {
			return fmt.Errorf("telegram send failed: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
