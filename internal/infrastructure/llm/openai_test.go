package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"NewsCaster/internal/domain"
)

func TestOpenAITranslate(t *testing.T) {
	t.Parallel()

	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Vitality vence o Major"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAI(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI error: %v", err)
	}

	out, err := tr.Translate(context.Background(), "Vitality win the Major")
	if err != nil {
		t.Fatalf("Translate error: %v", err)
	}
	if out != "Vitality vence o Major" {
		t.Fatalf("unexpected translation: %q", out)
	}
	if got.Model != "gpt-5-nano" {
		t.Fatalf("unexpected model: %s", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "Vitality win the Major" {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestOpenAIServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	tr, err := NewOpenAI(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})
	if err != nil {
		t.Fatalf("NewOpenAI error: %v", err)
	}
	if _, err := tr.Summarize(context.Background(), "body"); !errors.Is(err, domain.ErrTransform) {
		t.Fatalf("expected ErrTransform, got %v", err)
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAI(OpenAIConfig{}); err == nil {
		t.Fatal("expected error without api key")
	}
}
