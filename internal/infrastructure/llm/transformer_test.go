package llm

import (
	"context"
	"errors"
	"testing"

	"NewsCaster/internal/domain"
)

type fakeCompleter struct {
	answer string
	err    error
	calls  int
	last   string
}

func (f *fakeCompleter) complete(_ context.Context, instructions, _ string) (string, error) {
	f.calls++
	f.last = instructions
	return f.answer, f.err
}

func TestTransformerEmptyInputSkipsBackend(t *testing.T) {
	t.Parallel()

	backend := &fakeCompleter{answer: "x"}
	tr := newTransformer(backend, Prompts{}, 0)

	for _, call := range []func(context.Context, string) (string, error){tr.Translate, tr.Summarize} {
		got, err := call(context.Background(), "   ")
		if err != nil || got != "" {
			t.Fatalf("got %q, %v", got, err)
		}
	}
	if backend.calls != 0 {
		t.Fatalf("backend called %d times", backend.calls)
	}
}

func TestTransformerUsesPrompts(t *testing.T) {
	t.Parallel()

	backend := &fakeCompleter{answer: "  Olá  "}
	tr := newTransformer(backend, Prompts{Summarize: "custom summary"}, 0)

	got, err := tr.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if got != "Olá" {
		t.Fatalf("unexpected answer: %q", got)
	}
	if backend.last != DefaultTranslatePrompt {
		t.Fatalf("unexpected translate prompt: %q", backend.last)
	}

	if _, err := tr.Summarize(context.Background(), "Body"); err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	if backend.last != "custom summary" {
		t.Fatalf("unexpected summarize prompt: %q", backend.last)
	}
}

func TestTransformerWrapsFailures(t *testing.T) {
	t.Parallel()

	tr := newTransformer(&fakeCompleter{err: errors.New("quota")}, Prompts{}, 0)
	if _, err := tr.Summarize(context.Background(), "Body"); !errors.Is(err, domain.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}

	tr = newTransformer(&fakeCompleter{answer: " "}, Prompts{}, 0)
	if _, err := tr.Translate(context.Background(), "Title"); !errors.Is(err, domain.ErrTransform) {
		t.Fatalf("expected ErrTransform for blank answer, got %v", err)
	}
}
