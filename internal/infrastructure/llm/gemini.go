package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	Prompts Prompts
}

type geminiBackend struct {
	client *genai.Client
	model  string
}

// NewGemini builds a transformer backed by Gemini. Close releases the client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Transformer, func() error, error) {
	if cfg.APIKey == "" {
		return nil, nil, errors.New("gemini api key is not configured")
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, nil, fmt.Errorf("create gemini client: %w", err)
	}

	backend := &geminiBackend{client: client, model: model}
	return newTransformer(backend, cfg.Prompts, cfg.Timeout), client.Close, nil
}

func (b *geminiBackend) complete(ctx context.Context, instructions, input string) (string, error) {
	model := b.client.GenerativeModel(b.model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instructions)}}

	resp, err := model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", errors.New("gemini answer has no text")
	}
	return b.String(), nil
}
