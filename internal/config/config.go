package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"NewsCaster/internal/domain"
)

const (
	configPathEnv       = "NEWSCASTER_CONFIG"
	dotenvFile          = ".env"
	logLevelEnv         = "LOG_LEVEL"
	homepageURLEnv      = "NEWS_HOMEPAGE_URL"
	telegramTokenEnv    = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv   = "TELEGRAM_CHAT_ID"
	llmProviderEnv      = "LLM_PROVIDER"
	openAIAPIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv      = "OPENAI_MODEL"
	openAIBaseURLEnv    = "OPENAI_BASE_URL"
	geminiAPIKeyEnv     = "GEMINI_API_KEY"
	geminiModelEnv      = "GEMINI_MODEL"
	journalDriverEnv    = "JOURNAL_DRIVER"
	journalDSNEnv       = "JOURNAL_DSN"
	scheduleTimeEnv     = "SCHEDULE_TIME"
	scheduleTimezoneEnv = "SCHEDULE_TIMEZONE"

	defaultClock    = "09:00"
	defaultTimezone = "Etc/GMT+3"
	defaultDelay    = 1.0
)

// Provider names accepted by llm.provider.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Site     SiteConfig     `yaml:"site"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	LLM      LLMConfig      `yaml:"llm"`
	Telegram TelegramConfig `yaml:"telegram"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Journal  JournalConfig  `yaml:"journal"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig points at the news source.
type SiteConfig struct {
	HomepageURL string `yaml:"homepageUrl"`
	SourceLabel string `yaml:"sourceLabel"`
	// ReadabilityFallback reads article pages generically when the site container is missing.
	ReadabilityFallback bool `yaml:"readabilityFallback"`
}

// FetcherConfig tunes page downloads.
type FetcherConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"userAgent"`
}

// LLMConfig selects and configures the text transformer.
type LLMConfig struct {
	Provider        string        `yaml:"provider"`
	Timeout         time.Duration `yaml:"timeout"`
	TranslatePrompt string        `yaml:"translatePrompt"`
	SummarizePrompt string        `yaml:"summarizePrompt"`
	OpenAI          OpenAIConfig  `yaml:"openai"`
	Gemini          GeminiConfig  `yaml:"gemini"`
}

// OpenAIConfig defines how to contact an OpenAI-compatible API.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	APIKey string `yaml:"apiKey"`
	Model  string `yaml:"model"`
}

// TelegramConfig wires the bot and the default chat.
type TelegramConfig struct {
	BotToken    string `yaml:"botToken"`
	ChatID      int64  `yaml:"chatId"`
	PollTimeout int    `yaml:"pollTimeout"`
}

// ScheduleConfig is the initial daily schedule.
type ScheduleConfig struct {
	Time             string  `yaml:"time"`
	Timezone         string  `yaml:"timezone"`
	SendDelaySeconds float64 `yaml:"sendDelaySeconds"`
}

// JournalConfig enables the delivery journal. An empty DSN disables it.
type JournalConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
// path wins over NEWSCASTER_CONFIG.
func Load(path string) Config {
	loadDotenv(dotenvFile)

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			fileCfg := cfg
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = fileCfg
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()
	cfg.bindSchedule()

	return cfg
}

func loadDotenv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot load %s: %v", path, err)
	}
}

func (c *Config) applyEnvOverrides() {
	setString(&c.Logging.Level, logLevelEnv)
	setString(&c.Site.HomepageURL, homepageURLEnv)
	setString(&c.Telegram.BotToken, telegramTokenEnv)
	setString(&c.LLM.Provider, llmProviderEnv)
	setString(&c.LLM.OpenAI.APIKey, openAIAPIKeyEnv)
	setString(&c.LLM.OpenAI.Model, openAIModelEnv)
	setString(&c.LLM.OpenAI.BaseURL, openAIBaseURLEnv)
	setString(&c.LLM.Gemini.APIKey, geminiAPIKeyEnv)
	setString(&c.LLM.Gemini.Model, geminiModelEnv)
	setString(&c.Journal.Driver, journalDriverEnv)
	setString(&c.Journal.DSN, journalDSNEnv)
	setString(&c.Schedule.Time, scheduleTimeEnv)
	setString(&c.Schedule.Timezone, scheduleTimezoneEnv)

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			log.Printf("config: invalid %s %q, ignoring", telegramChatIDEnv, v)
		} else {
			c.Telegram.ChatID = id
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func (c *Config) normalize() {
	defaults := defaultConfig()

	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		log.Printf("config: unknown llm provider %q, reverting to %s", c.LLM.Provider, defaults.LLM.Provider)
		c.LLM.Provider = defaults.LLM.Provider
	}

	if c.Site.HomepageURL == "" {
		c.Site.HomepageURL = defaults.Site.HomepageURL
	}
	if c.Journal.Driver == "" {
		c.Journal.Driver = defaults.Journal.Driver
	}
	if c.Telegram.PollTimeout <= 0 {
		c.Telegram.PollTimeout = defaults.Telegram.PollTimeout
	}
}

// InitialSchedule builds the startup schedule for the configured chat. Load has already
// replaced invalid values, so the fallback only covers hand-built configs.
func (c Config) InitialSchedule() domain.Schedule {
	sched, err := domain.NewSchedule(c.scheduleRequest(), domain.Schedule{})
	if err != nil {
		fallback := c
		fallback.Schedule.Time = defaultClock
		fallback.Schedule.Timezone = defaultTimezone
		sched, _ = domain.NewSchedule(fallback.scheduleRequest(), domain.Schedule{})
	}
	return sched
}

func (c Config) scheduleRequest() domain.ScheduleRequest {
	delay := c.Schedule.SendDelaySeconds
	return domain.ScheduleRequest{
		Clock:        c.Schedule.Time,
		Timezone:     c.Schedule.Timezone,
		DelaySeconds: &delay,
		Destination:  domain.Destination(c.Telegram.ChatID),
	}
}

// bindSchedule validates the schedule with the same rules as runtime reconfiguration.
// Invalid values revert to the defaults.
func (c *Config) bindSchedule() {
	if _, err := domain.NewSchedule(c.scheduleRequest(), domain.Schedule{}); err != nil {
		log.Printf("config: %v, reverting to %s %s", err, defaultClock, defaultTimezone)
		c.Schedule.Time = defaultClock
		c.Schedule.Timezone = defaultTimezone
	}
	c.Schedule.SendDelaySeconds = domain.ClampDelay(c.Schedule.SendDelaySeconds).Seconds()
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Site: SiteConfig{
			HomepageURL: "https://www.hltv.org",
			SourceLabel: "Visite HLTV para mais detalhes",
		},
		Fetcher: FetcherConfig{Timeout: 20 * time.Second},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Timeout:  60 * time.Second,
			OpenAI:   OpenAIConfig{Model: "gpt-5-nano"},
			Gemini:   GeminiConfig{Model: "gemini-1.5-flash"},
		},
		Telegram: TelegramConfig{PollTimeout: 60},
		Schedule: ScheduleConfig{
			Time:             defaultClock,
			Timezone:         defaultTimezone,
			SendDelaySeconds: defaultDelay,
		},
		Journal: JournalConfig{Driver: "sqlite"},
	}
}
