package llm

import (
	"context"
	"errors"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Prompts Prompts
}

type openAIBackend struct {
	client *openai.Client
	model  string
}

// NewOpenAI builds a transformer backed by the chat completions API.
func NewOpenAI(cfg OpenAIConfig) (*Transformer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-5-nano"
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	backend := &openAIBackend{client: openai.NewClientWithConfig(clientCfg), model: model}
	return newTransformer(backend, cfg.Prompts, cfg.Timeout), nil
}

func (b *openAIBackend) complete(ctx context.Context, instructions, input string) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instructions},
			{Role: openai.ChatMessageRoleUser, Content: input},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}
