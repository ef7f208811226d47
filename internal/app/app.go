package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsCaster/internal/config"
	"NewsCaster/internal/domain"
	"NewsCaster/internal/infrastructure/fetcher"
	"NewsCaster/internal/infrastructure/llm"
	"NewsCaster/internal/infrastructure/parser"
	"NewsCaster/internal/infrastructure/scheduler"
	"NewsCaster/internal/infrastructure/storage"
	"NewsCaster/internal/infrastructure/telegram"
	"NewsCaster/internal/logging"
	"NewsCaster/internal/ports"
	"NewsCaster/internal/usecase"
)

// Components are the adapters the application is assembled from.
type Components struct {
	Fetcher     ports.PageFetcher
	Extractor   ports.Extractor
	Transformer ports.TextTransformer
	Notifier    ports.Notifier
	Journal     ports.DeliveryJournal
	Timetable   ports.Timetable
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	pipeline  *usecase.Pipeline
	scheduler *usecase.Scheduler
	bot       *tgbotapi.BotAPI
	closers   []func() error
}

// New connects every external collaborator described by cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var closers []func() error
	fail := func(err error) (*Application, error) {
		for _, c := range closers {
			_ = c()
		}
		return nil, err
	}

	transformer, closeLLM, err := buildTransformer(ctx, cfg.LLM)
	if err != nil {
		return fail(fmt.Errorf("llm: %w", err))
	}
	if closeLLM != nil {
		closers = append(closers, closeLLM)
	}

	if cfg.Telegram.BotToken == "" {
		return fail(errors.New("telegram: bot token is not configured"))
	}
	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		return fail(fmt.Errorf("telegram: %w", err))
	}
	baseLogger.Info("telegram bot authorized", "username", bot.Self.UserName)

	comps := Components{
		Fetcher:     fetcher.NewHTTPFetcher(cfg.Fetcher.Timeout, cfg.Fetcher.UserAgent),
		Extractor:   buildExtractor(cfg.Site),
		Transformer: transformer,
		Notifier:    telegram.NewNotifier(bot),
		Timetable:   scheduler.NewCronTimetable(),
	}

	if cfg.Journal.DSN != "" {
		db, err := storage.Open(ctx, cfg.Journal.Driver, cfg.Journal.DSN)
		if err != nil {
			return fail(fmt.Errorf("journal: %w", err))
		}
		closers = append(closers, db.Close)
		comps.Journal = storage.NewJournal(db, cfg.Journal.Driver)
	}

	application, err := Assemble(cfg, baseLogger, comps)
	if err != nil {
		return fail(err)
	}
	application.bot = bot
	application.closers = closers
	return application, nil
}

// Assemble builds the pipeline and the scheduler on top of ready components.
func Assemble(cfg config.Config, baseLogger *slog.Logger, comps Components) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if comps.Timetable == nil {
		comps.Timetable = scheduler.NewCronTimetable()
	}

	pipeline, err := usecase.NewPipeline(usecase.PipelineDeps{
		Fetcher:     comps.Fetcher,
		Extractor:   comps.Extractor,
		Transformer: comps.Transformer,
		Notifier:    comps.Notifier,
		Journal:     comps.Journal,
		Logger:      baseLogger.With("component", "pipeline"),
		HomepageURL: cfg.Site.HomepageURL,
		SourceLabel: cfg.Site.SourceLabel,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	sched := usecase.NewScheduler(usecase.SchedulerDeps{
		Runner:    pipeline,
		Timetable: comps.Timetable,
		Initial:   cfg.InitialSchedule(),
		Logger:    baseLogger.With("component", "scheduler"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		pipeline:  pipeline,
		scheduler: sched,
	}, nil
}

// Serve runs the daily scheduler and answers chat commands until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	if a.bot == nil {
		return errors.New("telegram bot is not connected")
	}

	a.scheduler.Start(ctx)
	defer a.scheduler.Stop()

	sched := a.scheduler.Config()
	a.logger.Info("newscaster serving",
		"time", sched.Clock(),
		"timezone", sched.Timezone,
		"destination", int64(sched.Destination),
		"next_fire", a.scheduler.NextFire())

	commands := telegram.NewBot(a.pipeline, a.scheduler, telegram.NewAPIReplier(a.bot), a.logger.With("component", "bot"))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.cfg.Telegram.PollTimeout
	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	commands.Poll(ctx, updates)
	a.logger.Info("newscaster stopped")
	return nil
}

// RunOnce performs a single fire. A zero dest falls back to the configured chat.
func (a *Application) RunOnce(ctx context.Context, dest domain.Destination) usecase.RunReport {
	sched := a.scheduler.Config()
	if dest.IsZero() {
		dest = sched.Destination
	}
	return a.pipeline.Run(ctx, dest, sched.SendDelay)
}

// Scheduler exposes the daily scheduler.
func (a *Application) Scheduler() *usecase.Scheduler {
	return a.scheduler
}

// Close releases external connections.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func buildExtractor(cfg config.SiteConfig) ports.Extractor {
	base := parser.NewHLTVExtractor()
	if cfg.ReadabilityFallback {
		return parser.NewReadabilityExtractor(base, cfg.HomepageURL)
	}
	return base
}

func buildTransformer(ctx context.Context, cfg config.LLMConfig) (ports.TextTransformer, func() error, error) {
	prompts := llm.Prompts{Translate: cfg.TranslatePrompt, Summarize: cfg.SummarizePrompt}

	switch cfg.Provider {
	case config.ProviderGemini:
		return llm.NewGemini(ctx, llm.GeminiConfig{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Timeout,
			Prompts: prompts,
		})
	default:
		tr, err := llm.NewOpenAI(llm.OpenAIConfig{
			APIKey:  cfg.OpenAI.APIKey,
			Model:   cfg.OpenAI.Model,
			BaseURL: cfg.OpenAI.BaseURL,
			Timeout: cfg.Timeout,
			Prompts: prompts,
		})
		return tr, nil, err
	}
}
