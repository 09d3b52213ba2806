package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/kayz/techwatch/internal/config"
)

// slackMessageLimit keeps each message inside what Slack renders without
// truncation.
const slackMessageLimit = 4000

// Slack delivers digests to one Slack channel.
type Slack struct {
	api     *slack.Client
	channel string
}

func NewSlack(cfg config.SlackConfig) *Slack {
	return &Slack{
		api:     slack.New(cfg.BotToken),
		channel: cfg.Channel,
	}
}

func (s *Slack) Name() string {
	return "slack"
}

func (s *Slack) Send(ctx context.Context, digest string) error {
	for _, chunk := range splitMessage(digest, slackMessageLimit) {
		_, _, err := s.api.PostMessageContext(ctx, s.channel,
			slack.MsgOptionText(chunk, false),
			slack.MsgOptionDisableLinkUnfurl(),
		)
		if err != nil {
			return fmt.Errorf("slack send failed: %w", err)
		}
	}
	return nil
}
