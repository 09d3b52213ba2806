package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/kayz/techwatch/internal/config"
)

// discordMessageLimit is the hard cap per Discord message.
const discordMessageLimit = 2000

// Discord delivers digests to one Discord channel.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(cfg config.DiscordConfig) (*Discord, error) {
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("discord channel_id is required")
	}
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &Discord{session: session, channelID: cfg.ChannelID}, nil
}

func (d *Discord) Name() string {
	return "discord"
}

func (d *Discord) Send(ctx context.Context, digest string) error {
	for _, chunk := range splitMessage(digest, discordMessageLimit) {
		if _, err := d.session.ChannelMessageSend(d.channelID, chunk); err != nil {
			return fmt.Errorf("discord send failed: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return nil
}
