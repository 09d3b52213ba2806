// Package notify delivers finished digests to chat platforms. Each adapter
// wraps one platform SDK behind the same Notifier interface.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/kayz/techwatch/internal/config"
	"github.com/kayz/techwatch/internal/logger"
)

// Notifier delivers one digest to one destination.
type Notifier interface {
	Name() string
	Send(ctx context.Context, digest string) error
}

// FromConfig builds every notifier with credentials configured.
// Misconfigured entries are logged and skipped.
func FromConfig(cfg config.NotifyConfig) []Notifier {
	var out []Notifier

	if cfg.Telegram.Token != "" {
		n, err := NewTelegram(cfg.Telegram)
		if err != nil {
			logger.Warn("telegram notifier disabled", "error", err)
		} else {
			out = append(out, n)
		}
	}
	if cfg.Slack.BotToken != "" {
		out = append(out, NewSlack(cfg.Slack))
	}
	if cfg.Discord.Token != "" {
		n, err := NewDiscord(cfg.Discord)
		if err != nil {
			logger.Warn("discord notifier disabled", "error", err)
		} else {
			out = append(out, n)
		}
	}
	return out
}

// Broadcast sends the digest to every notifier. One failing destination
// does not stop the others; the combined error lists what failed.
func Broadcast(ctx context.Context, notifiers []Notifier, digest string) error {
	var failed []string
	for _, n := range notifiers {
		if err := n.Send(ctx, digest); err != nil {
			logger.Error("notification failed", "notifier", n.Name(), "error", err)
			failed = append(failed, fmt.Sprintf("%s: %v", n.Name(), err))
			continue
		}
		logger.Info("digest delivered", "notifier", n.Name())
	}
	if len(failed) > 0 {
		return fmt.Errorf("delivery failed: %s", strings.Join(failed, "; "))
	}
	return nil
}

// splitMessage cuts text into chunks of at most limit bytes, preferring
// newline boundaries so Markdown lines stay intact. Hard cuts back up to a
// rune boundary so no chunk carries a torn multibyte character.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !isRuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
		}
		chunks = append(chunks, text[:cut])
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
