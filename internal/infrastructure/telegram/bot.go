package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/usecase"
)

// NewsRunner executes one news run on demand.
type NewsRunner interface {
	Run(ctx context.Context, dest domain.Destination, pacing time.Duration) usecase.RunReport
}

// ScheduleController exposes the scheduler to chat commands.
type ScheduleController interface {
	Config() domain.Schedule
	NextFire() time.Time
	Reconfigure(req domain.ScheduleRequest) (domain.Schedule, error)
}

// Replier answers a chat with plain text.
type Replier interface {
	Reply(chatID int64, text string) error
}

const helpText = `NewsCaster commands:
/news - send the latest news to this chat now
/schedule HH:MM TZ [delay] - deliver daily to this chat, e.g. /schedule 09:00 Etc/GMT+3 1.5
/status - show the active schedule
/help - show this message`

// Bot dispatches chat commands to the pipeline and the scheduler.
type Bot struct {
	runner   NewsRunner
	schedule ScheduleController
	replier  Replier
	logger   *slog.Logger

	manualRun atomic.Bool
	wg        sync.WaitGroup
}

// NewBot wires the command handler.
func NewBot(runner NewsRunner, schedule ScheduleController, replier Replier, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{runner: runner, schedule: schedule, replier: replier, logger: logger}
}

// Poll consumes updates until ctx is cancelled or the channel closes. Manual runs are
// started in the background so other commands stay responsive; Poll waits for them
// before returning.
func (b *Bot) Poll(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			msg := update.Message
			if msg == nil || msg.Chat == nil || !msg.IsCommand() {
				continue
			}

			command := msg.Command()
			args := msg.CommandArguments()
			chatID := msg.Chat.ID
			if command == "news" {
				b.wg.Add(1)
				go func() {
					defer b.wg.Done()
					b.HandleCommand(ctx, chatID, command, args)
				}()
				continue
			}
			b.HandleCommand(ctx, chatID, command, args)
		}
	}
}

// HandleCommand executes a single command for chatID.
func (b *Bot) HandleCommand(ctx context.Context, chatID int64, command, args string) {
	logger := b.logger.With("chat_id", chatID, "command", command)
	logger.Info("command received")

	var reply string
	switch command {
	case "news":
		reply = b.handleNews(ctx, chatID)
	case "schedule":
		reply = b.handleSchedule(chatID, args)
	case "status":
		reply = b.handleStatus()
	case "help", "start":
		reply = helpText
	default:
		reply = "Unknown command.\n\n" + helpText
	}

	if reply == "" {
		return
	}
	if err := b.replier.Reply(chatID, reply); err != nil {
		logger.Error("reply failed", "error", err)
	}
}

func (b *Bot) handleNews(ctx context.Context, chatID int64) string {
	if !b.manualRun.CompareAndSwap(false, true) {
		return "A news run is already in progress."
	}
	defer b.manualRun.Store(false)

	pacing := b.schedule.Config().SendDelay
	report := b.runner.Run(ctx, domain.Destination(chatID), pacing)
	if report.Candidates == 0 {
		return "Nothing to send right now."
	}
	if report.Delivered == 0 {
		return fmt.Sprintf("Found %d news item(s) but none could be delivered.", report.Candidates)
	}
	return ""
}

func (b *Bot) handleSchedule(chatID int64, args string) string {
	req, err := parseScheduleArgs(args)
	if err != nil {
		return "Invalid schedule: " + domain.FormatGuidance + ".\nUsage: /schedule HH:MM TZ [delay]"
	}
	req.Destination = domain.Destination(chatID)

	sched, err := b.schedule.Reconfigure(req)
	if err != nil {
		b.logger.Warn("schedule rejected", "chat_id", chatID, "error", err)
		return "Invalid schedule: " + domain.FormatGuidance + ".\nUsage: /schedule HH:MM TZ [delay]"
	}

	return fmt.Sprintf("Scheduled daily at %s %s with %s between messages. Next delivery: %s.",
		sched.Clock(), sched.Timezone, sched.SendDelay, b.schedule.NextFire().Format(time.RFC1123))
}

func (b *Bot) handleStatus() string {
	sched := b.schedule.Config()
	dest := "not configured"
	if !sched.Destination.IsZero() {
		dest = strconv.FormatInt(int64(sched.Destination), 10)
	}
	return fmt.Sprintf("Daily at %s %s\nChat: %s\nDelay: %s\nNext delivery: %s",
		sched.Clock(), sched.Timezone, dest, sched.SendDelay, b.schedule.NextFire().Format(time.RFC1123))
}

// parseScheduleArgs splits "HH:MM TZ [delay]". Field grammar is checked by the scheduler.
func parseScheduleArgs(args string) (domain.ScheduleRequest, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 || len(fields) > 3 {
		return domain.ScheduleRequest{}, fmt.Errorf("%w: expected 2 or 3 arguments, got %d", domain.ErrConfig, len(fields))
	}

	req := domain.ScheduleRequest{Clock: fields[0], Timezone: fields[1]}
	if len(fields) == 3 {
		delay, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return domain.ScheduleRequest{}, fmt.Errorf("%w: delay %q: %v", domain.ErrConfig, fields[2], err)
		}
		req.DelaySeconds = &delay
	}
	return req, nil
}

// APIReplier answers commands through the bot API.
type APIReplier struct {
	api chatSender
}

var _ Replier = (*APIReplier)(nil)

// NewAPIReplier wraps an authorized bot.
func NewAPIReplier(api *tgbotapi.BotAPI) *APIReplier {
	return &APIReplier{api: api}
}

// Reply sends text without any parse mode.
func (r *APIReplier) Reply(chatID int64, text string) error {
	if _, err := r.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: reply to %d: %v", domain.ErrDelivery, chatID, err)
	}
	return nil
}
