package llm

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/kayz/techwatch/internal/config"
)

const anthropicDefaultModel = "claude-3-5-haiku-latest"

// Anthropic generates digests through the messages API.
type Anthropic struct {
	name   string
	model  string
	client *anthropic.Client
}

func NewAnthropic(cfg config.ProviderConfig) *Anthropic {
	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = anthropicDefaultModel
	}

	name := cfg.Name
	if name == "" {
		name = "anthropic"
	}

	return &Anthropic{
		name:   name,
		model:  model,
		client: anthropic.NewClient(cfg.APIKey, opts...),
	}
}

func (a *Anthropic) Name() string { return a.name }

func (a *Anthropic) Generate(ctx context.Context, system, user string) (string, error) {
	temperature := float32(0.3)
	resp, err := a.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:  anthropic.Model(a.model),
		System: system,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(user),
		},
		MaxTokens:   4096,
		Temperature: &temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.name, err)
	}

	text := resp.GetFirstContentText()
	if text == "" {
		return "", fmt.Errorf("%s: empty completion", a.name)
	}
	return text, nil
}
