package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

// DefaultTranslatePrompt turns an English headline into Brazilian Portuguese.
const DefaultTranslatePrompt = `Translate the provided message into Brazilian Portuguese. Do not include any explanation, comment, or additional content.
These messages are Counter-Strike news headlines, so keep proper names and original terms.
Preserve the original meaning and tone, and provide only the translated text.`

// DefaultSummarizePrompt condenses an English article into a short Brazilian Portuguese summary.
const DefaultSummarizePrompt = `You are an expert in summarizing Counter-Strike news articles. Process an English article about the Counter-Strike competitive scene (CS2 or CS:GO) and produce a summary in Portuguese (Brazil) following these rules:
1. If the article is longer than 800 characters, summarize it in up to 800 characters, focusing on key points such as match results, player transfers and tournament updates.
2. Structure the summary in 1-2 short paragraphs.
3. Use a journalistic and objective tone, without opinions or speculation.
4. Keep Counter-Strike terminology (e.g. "AWP", "clutch", "Major") in English while keeping the text clear to a Portuguese-speaking audience.
5. Leave out irrelevant details such as ads or unrelated topics.`

// completer sends one instruction plus input to a model and returns its text answer.
type completer interface {
	complete(ctx context.Context, instructions, input string) (string, error)
}

// Transformer implements ports.TextTransformer on top of a completion backend.
type Transformer struct {
	backend         completer
	translatePrompt string
	summarizePrompt string
	timeout         time.Duration
}

var _ ports.TextTransformer = (*Transformer)(nil)

// Prompts overrides the default instructions; empty fields keep the defaults.
type Prompts struct {
	Translate string
	Summarize string
}

func newTransformer(backend completer, prompts Prompts, timeout time.Duration) *Transformer {
	t := &Transformer{
		backend:         backend,
		translatePrompt: DefaultTranslatePrompt,
		summarizePrompt: DefaultSummarizePrompt,
		timeout:         timeout,
	}
	if p := strings.TrimSpace(prompts.Translate); p != "" {
		t.translatePrompt = p
	}
	if p := strings.TrimSpace(prompts.Summarize); p != "" {
		t.summarizePrompt = p
	}
	return t
}

// Translate returns the headline in Brazilian Portuguese. Empty input yields "".
func (t *Transformer) Translate(ctx context.Context, text string) (string, error) {
	return t.run(ctx, "translate", t.translatePrompt, text)
}

// Summarize returns a short Brazilian Portuguese summary. Empty input yields "".
func (t *Transformer) Summarize(ctx context.Context, text string) (string, error) {
	return t.run(ctx, "summarize", t.summarizePrompt, text)
}

func (t *Transformer) run(ctx context.Context, op, instructions, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	out, err := t.backend.complete(ctx, instructions, text)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", domain.ErrTransform, op, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("%w: %s: empty answer", domain.ErrTransform, op)
	}
	return out, nil
}
