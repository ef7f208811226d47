package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/usecase"
)

type recordingReplier struct {
	mu      sync.Mutex
	replies map[int64][]string
}

func (r *recordingReplier) Reply(chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replies == nil {
		r.replies = map[int64][]string{}
	}
	r.replies[chatID] = append(r.replies[chatID], text)
	return nil
}

func (r *recordingReplier) last(chatID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	got := r.replies[chatID]
	if len(got) == 0 {
		return ""
	}
	return got[len(got)-1]
}

type runCall struct {
	dest   domain.Destination
	pacing time.Duration
}

type stubRunner struct {
	mu     sync.Mutex
	calls  []runCall
	report usecase.RunReport
}

func (s *stubRunner) Run(_ context.Context, dest domain.Destination, pacing time.Duration) usecase.RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, runCall{dest: dest, pacing: pacing})
	return s.report
}

type stubSchedule struct {
	cfg  domain.Schedule
	next time.Time
	reqs []domain.ScheduleRequest
}

func (s *stubSchedule) Config() domain.Schedule { return s.cfg }
func (s *stubSchedule) NextFire() time.Time     { return s.next }

func (s *stubSchedule) Reconfigure(req domain.ScheduleRequest) (domain.Schedule, error) {
	s.reqs = append(s.reqs, req)
	next, err := domain.NewSchedule(req, s.cfg)
	if err != nil {
		return s.cfg, err
	}
	s.cfg = next
	return next, nil
}

func newTestBot(report usecase.RunReport) (*Bot, *stubRunner, *stubSchedule, *recordingReplier) {
	runner := &stubRunner{report: report}
	sched := &stubSchedule{
		cfg: domain.Schedule{
			Hour: 9, Timezone: "Etc/UTC", Location: time.UTC, SendDelay: 1500 * time.Millisecond,
		},
		next: time.Date(2025, time.January, 2, 9, 0, 0, 0, time.UTC),
	}
	replier := &recordingReplier{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBot(runner, sched, replier, logger), runner, sched, replier
}

func TestNewsRunsAgainstCallingChat(t *testing.T) {
	t.Parallel()

	bot, runner, _, replier := newTestBot(usecase.RunReport{Candidates: 2, Delivered: 2})
	bot.HandleCommand(context.Background(), 77, "news", "")

	if len(runner.calls) != 1 {
		t.Fatalf("expected one run, got %d", len(runner.calls))
	}
	if runner.calls[0].dest != 77 || runner.calls[0].pacing != 1500*time.Millisecond {
		t.Fatalf("unexpected run: %+v", runner.calls[0])
	}
	if got := replier.last(77); got != "" {
		t.Fatalf("unexpected reply after successful run: %q", got)
	}
}

func TestNewsWithNothingToSend(t *testing.T) {
	t.Parallel()

	bot, _, _, replier := newTestBot(usecase.RunReport{})
	bot.HandleCommand(context.Background(), 5, "news", "")

	if got := replier.last(5); !strings.Contains(got, "Nothing to send") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestScheduleReconfiguresForChat(t *testing.T) {
	t.Parallel()

	bot, _, sched, replier := newTestBot(usecase.RunReport{})
	bot.HandleCommand(context.Background(), 12, "schedule", "18:30 Etc/GMT+3 2")

	if sched.cfg.Clock() != "18:30" || sched.cfg.Timezone != "Etc/GMT+3" {
		t.Fatalf("schedule not applied: %+v", sched.cfg)
	}
	if sched.cfg.Destination != 12 || sched.cfg.SendDelay != 2*time.Second {
		t.Fatalf("unexpected destination or delay: %+v", sched.cfg)
	}
	if got := replier.last(12); !strings.HasPrefix(got, "Scheduled daily at 18:30 Etc/GMT+3") {
		t.Fatalf("unexpected reply: %q", got)
	}
}

func TestScheduleKeepsDelayWhenOmitted(t *testing.T) {
	t.Parallel()

	bot, _, sched, _ := newTestBot(usecase.RunReport{})
	bot.HandleCommand(context.Background(), 12, "schedule", "07:05 Etc/UTC")

	if sched.cfg.SendDelay != 1500*time.Millisecond {
		t.Fatalf("delay changed: %v", sched.cfg.SendDelay)
	}
}

func TestScheduleRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	cases := []string{"", "9:00 Etc/UTC", "09:00 America/Sao_Paulo", "09:00 Etc/UTC fast", "09:00"}
	for _, args := range cases {
		bot, _, sched, replier := newTestBot(usecase.RunReport{})
		before := sched.cfg

		bot.HandleCommand(context.Background(), 3, "schedule", args)

		if sched.cfg != before {
			t.Fatalf("%q: schedule changed to %+v", args, sched.cfg)
		}
		if got := replier.last(3); !strings.Contains(got, domain.FormatGuidance) {
			t.Fatalf("%q: reply lacks guidance: %q", args, got)
		}
	}
}

func TestStatusAndHelp(t *testing.T) {
	t.Parallel()

	bot, _, _, replier := newTestBot(usecase.RunReport{})

	bot.HandleCommand(context.Background(), 8, "status", "")
	if got := replier.last(8); !strings.Contains(got, "Daily at 09:00 Etc/UTC") || !strings.Contains(got, "not configured") {
		t.Fatalf("unexpected status: %q", got)
	}

	bot.HandleCommand(context.Background(), 8, "help", "")
	if got := replier.last(8); got != helpText {
		t.Fatalf("unexpected help: %q", got)
	}
}

func TestParseScheduleArgs(t *testing.T) {
	t.Parallel()

	req, err := parseScheduleArgs("  10:00   Etc/GMT-14  0.05 ")
	if err != nil {
		t.Fatalf("parseScheduleArgs error: %v", err)
	}
	if req.Clock != "10:00" || req.Timezone != "Etc/GMT-14" || req.DelaySeconds == nil || *req.DelaySeconds != 0.05 {
		t.Fatalf("unexpected request: %+v", req)
	}

	if _, err := parseScheduleArgs("10:00 Etc/UTC 1 extra"); !errors.Is(err, domain.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestPollDispatchesCommands(t *testing.T) {
	t.Parallel()

	bot, runner, _, replier := newTestBot(usecase.RunReport{Candidates: 1, Delivered: 1})
	updates := make(chan tgbotapi.Update, 3)
	updates <- commandUpdate(21, "/status")
	updates <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "hello", Chat: &tgbotapi.Chat{ID: 21}}}
	updates <- commandUpdate(21, "/news")
	close(updates)

	bot.Poll(context.Background(), updates)

	if got := replier.last(21); !strings.Contains(got, "Daily at") {
		t.Fatalf("status reply missing: %q", got)
	}
	if len(runner.calls) != 1 || runner.calls[0].dest != 21 {
		t.Fatalf("unexpected runs: %+v", runner.calls)
	}
}

func commandUpdate(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		Entities: []tgbotapi.MessageEntity{{
			Type:   "bot_command",
			Offset: 0,
			Length: len(cmd),
		}},
	}}
}
