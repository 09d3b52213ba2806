package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kayz/techwatch/internal/config"
)

const openAIDefaultModel = "gpt-4o-mini"

// OpenAI generates digests through the chat completions API. It also covers
// any OpenAI-compatible endpoint via base_url.
type OpenAI struct {
	name   string
	model  string
	client *openai.Client
}

func NewOpenAI(cfg config.ProviderConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openAIDefaultModel
	}

	name := cfg.Name
	if name == "" {
		name = "openai"
	}

	return &OpenAI{
		name:   name,
		model:  model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0.3,
		MaxTokens:   4096,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", o.name, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: empty completion", o.name)
	}
	return resp.Choices[0].Message.Content, nil
}
