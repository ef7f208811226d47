package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		configPathEnv, logLevelEnv, homepageURLEnv, telegramTokenEnv, telegramChatIDEnv,
		llmProviderEnv, openAIAPIKeyEnv, openAIModelEnv, openAIBaseURLEnv, geminiAPIKeyEnv,
		geminiModelEnv, journalDriverEnv, journalDSNEnv, scheduleTimeEnv, scheduleTimezoneEnv,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load("")

	if cfg.Site.HomepageURL != "https://www.hltv.org" {
		t.Fatalf("unexpected homepage: %s", cfg.Site.HomepageURL)
	}
	if cfg.LLM.Provider != ProviderOpenAI || cfg.LLM.OpenAI.Model != "gpt-5-nano" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}

	sched := cfg.InitialSchedule()
	if sched.Clock() != "09:00" || sched.Timezone != "Etc/GMT+3" {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
	if sched.SendDelay != time.Second {
		t.Fatalf("unexpected delay: %v", sched.SendDelay)
	}
	if !sched.Destination.IsZero() {
		t.Fatalf("expected no destination, got %d", sched.Destination)
	}
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
logging:
  level: debug
fetcher:
  timeout: 5s
llm:
  provider: Gemini
  gemini:
    model: gemini-pro
telegram:
  chatId: 100
schedule:
  time: "18:45"
  timezone: Etc/GMT-3
  sendDelaySeconds: 0.01
journal:
  driver: postgres
`)
	t.Setenv(telegramChatIDEnv, "-200")
	t.Setenv(journalDSNEnv, "postgres://localhost/news")

	cfg := Load(path)

	if cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected level: %s", cfg.Logging.Level)
	}
	if cfg.Fetcher.Timeout != 5*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Fetcher.Timeout)
	}
	if cfg.LLM.Provider != ProviderGemini || cfg.LLM.Gemini.Model != "gemini-pro" {
		t.Fatalf("unexpected llm config: %+v", cfg.LLM)
	}
	if cfg.LLM.OpenAI.Model != "gpt-5-nano" {
		t.Fatalf("defaults not kept for unset keys: %+v", cfg.LLM.OpenAI)
	}
	if cfg.Journal.Driver != "postgres" || cfg.Journal.DSN != "postgres://localhost/news" {
		t.Fatalf("unexpected journal config: %+v", cfg.Journal)
	}

	sched := cfg.InitialSchedule()
	if sched.Clock() != "18:45" || sched.Timezone != "Etc/GMT-3" {
		t.Fatalf("unexpected schedule: %+v", sched)
	}
	if _, offset := time.Date(2025, 1, 1, 0, 0, 0, 0, sched.Location).Zone(); offset != 3*3600 {
		t.Fatalf("unexpected offset: %d", offset)
	}
	if sched.SendDelay != 100*time.Millisecond {
		t.Fatalf("delay not clamped: %v", sched.SendDelay)
	}
	if sched.Destination != -200 {
		t.Fatalf("env chat id not applied: %d", sched.Destination)
	}
}

func TestLoadInvalidScheduleFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv(scheduleTimeEnv, "25:00")
	t.Setenv(scheduleTimezoneEnv, "America/Sao_Paulo")

	cfg := Load("")

	sched := cfg.InitialSchedule()
	if sched.Clock() != defaultClock || sched.Timezone != defaultTimezone {
		t.Fatalf("expected defaults, got %+v", sched)
	}
}

func TestLoadBrokenFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "llm: [unterminated")

	cfg := Load(path)
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("unexpected provider: %s", cfg.LLM.Provider)
	}
}

func TestLoadUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv(llmProviderEnv, "claude")

	if cfg := Load(""); cfg.LLM.Provider != ProviderOpenAI {
		t.Fatalf("unexpected provider: %s", cfg.LLM.Provider)
	}
}
