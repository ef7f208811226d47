package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

const (
	defaultSourceLabel = "Visite HLTV para mais detalhes"
	notificationColor  = 0x0099ff
)

// PipelineDeps wires the collaborators of a news run.
type PipelineDeps struct {
	Fetcher     ports.PageFetcher
	Extractor   ports.Extractor
	Transformer ports.TextTransformer
	Notifier    ports.Notifier
	Journal     ports.DeliveryJournal
	Logger      *slog.Logger
	HomepageURL string
	SourceLabel string
	// Sleep overrides the pacing wait; tests use it to observe delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Pipeline fetches, enriches, transforms and delivers one batch of news.
type Pipeline struct {
	fetcher     ports.PageFetcher
	extractor   ports.Extractor
	transformer ports.TextTransformer
	notifier    ports.Notifier
	journal     ports.DeliveryJournal
	logger      *slog.Logger
	homepage    *url.URL
	sourceLabel string
	sleep       func(ctx context.Context, d time.Duration) error
}

// RunReport summarizes one run.
type RunReport struct {
	RunID      string
	Candidates int
	Delivered  int
	Skipped    int
	Failed     int
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) (*Pipeline, error) {
	homepage, err := url.Parse(deps.HomepageURL)
	if err != nil || homepage.Scheme == "" || homepage.Host == "" {
		return nil, fmt.Errorf("homepage url %q must be absolute", deps.HomepageURL)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	label := deps.SourceLabel
	if label == "" {
		label = defaultSourceLabel
	}
	sleep := deps.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	return &Pipeline{
		fetcher:     deps.Fetcher,
		extractor:   deps.Extractor,
		transformer: deps.Transformer,
		notifier:    deps.Notifier,
		journal:     deps.Journal,
		logger:      logger,
		homepage:    homepage,
		sourceLabel: label,
		sleep:       sleep,
	}, nil
}

// Run delivers today's batch to dest, pausing pacing after every item.
// Failures of single items are logged and never abort the batch.
func (p *Pipeline) Run(ctx context.Context, dest domain.Destination, pacing time.Duration) RunReport {
	report := RunReport{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", report.RunID)

	if dest.IsZero() {
		logger.Warn("destination not configured, skipping run")
		return report
	}

	items, err := p.ListCandidates(ctx)
	if err != nil {
		logger.Error("list candidates", "error", err)
	}
	if len(items) == 0 {
		logger.Info("nothing to send")
		return report
	}
	report.Candidates = len(items)
	logger.Info("run started", "candidates", len(items), "destination", int64(dest))

	for i, item := range items {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", "remaining", len(items)-i)
			break
		}

		// A started item runs to completion even if the caller goes away.
		status, procErr := p.processItem(context.WithoutCancel(ctx), logger, item, dest)
		switch status {
		case domain.StatusDelivered:
			report.Delivered++
		case domain.StatusSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		p.record(ctx, logger, report.RunID, dest, item, status, procErr)

		if err := p.sleep(ctx, pacing); err != nil {
			logger.Warn("pacing interrupted", "error", err)
		}
	}

	logger.Info("run finished",
		"delivered", report.Delivered,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report
}

func (p *Pipeline) processItem(ctx context.Context, logger *slog.Logger, item domain.NewsItem, dest domain.Destination) (domain.DeliveryStatus, error) {
	enriched, ok := p.Enrich(ctx, item)
	if !ok {
		logger.Info("no content, skipping item", "url", item.URL)
		return domain.StatusSkipped, nil
	}

	transformed := p.Transform(ctx, enriched)
	if err := p.Deliver(ctx, transformed, dest); err != nil {
		logger.Error("deliver item", "url", item.URL, "error", err)
		return domain.StatusFailed, err
	}

	logger.Info("item delivered", "title", item.Title)
	return domain.StatusDelivered, nil
}

// ListCandidates scrapes the homepage and returns recent items in document order.
func (p *Pipeline) ListCandidates(ctx context.Context) ([]domain.NewsItem, error) {
	html, err := p.fetcher.Fetch(ctx, p.homepage.String())
	if err != nil {
		return nil, fmt.Errorf("homepage: %w", err)
	}

	candidates, err := p.extractor.ListHomepage(html)
	if err != nil {
		return nil, fmt.Errorf("homepage: %w", err)
	}
	p.logger.Debug("homepage extracted", "candidates", len(candidates))

	recent := FilterRecent(candidates)
	items := make([]domain.NewsItem, 0, len(recent))
	for _, c := range recent {
		link, err := p.absoluteURL(c.Href)
		if err != nil {
			p.logger.Debug("skip candidate with bad link", "href", c.Href, "error", err)
			continue
		}
		items = append(items, domain.NewsItem{
			Title:        c.Title,
			URL:          link,
			CommentCount: ParseCommentCount(c.CommentText),
		})
	}

	return items, nil
}

// Enrich attaches the article body and image. It reports false when the item has no
// usable content; errors are logged here and never propagate.
func (p *Pipeline) Enrich(ctx context.Context, item domain.NewsItem) (domain.NewsItem, bool) {
	html, err := p.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		p.logger.Error("fetch article", "url", item.URL, "error", err)
		return item, false
	}

	article, found, err := p.extractor.ExtractArticle(html)
	if err != nil {
		p.logger.Error("extract article", "url", item.URL, "error", err)
		return item, false
	}
	if !found {
		p.logger.Error("article body container not found", "url", item.URL)
		return item, false
	}

	return item.WithContent(article.Body, article.ImageURL), true
}

// Transform translates the title and summarizes the body concurrently. Each call falls
// back independently: the original title, or an empty summary.
func (p *Pipeline) Transform(ctx context.Context, item domain.NewsItem) domain.NewsItem {
	var (
		wg                   sync.WaitGroup
		title, summary       string
		translateErr, sumErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		title, translateErr = p.transformer.Translate(ctx, item.Title)
	}()
	go func() {
		defer wg.Done()
		summary, sumErr = p.transformer.Summarize(ctx, item.Body)
	}()
	wg.Wait()

	if translateErr != nil {
		p.logger.Warn("translate title, keeping original", "url", item.URL, "error", translateErr)
		title = item.Title
	}
	if sumErr != nil {
		p.logger.Warn("summarize body, leaving empty", "url", item.URL, "error", sumErr)
		summary = ""
	}

	return item.WithTransform(title, summary)
}

// Deliver sends the notification for item. No retry.
func (p *Pipeline) Deliver(ctx context.Context, item domain.NewsItem, dest domain.Destination) error {
	return p.notifier.Send(ctx, BuildNotification(item, p.sourceLabel), dest)
}

// BuildNotification formats an item for delivery.
func BuildNotification(item domain.NewsItem, sourceLabel string) domain.Notification {
	return domain.Notification{
		Title:       item.TranslatedTitle,
		Body:        item.Summary,
		SourceURL:   item.URL,
		SourceLabel: sourceLabel,
		ImageURL:    item.ImageURL,
		Color:       notificationColor,
	}
}

// ParseCommentCount keeps only the digits of text; no digits yields 0.
func ParseCommentCount(text string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

func (p *Pipeline) absoluteURL(href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	return p.homepage.ResolveReference(ref).String(), nil
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, runID string, dest domain.Destination, item domain.NewsItem, status domain.DeliveryStatus, procErr error) {
	if p.journal == nil {
		return
	}
	rec := domain.DeliveryRecord{
		RunID:       runID,
		Destination: dest,
		URL:         item.URL,
		Title:       item.Title,
		Status:      status,
		AttemptedAt: time.Now().UTC(),
	}
	if procErr != nil {
		rec.Error = procErr.Error()
	}
	if err := p.journal.Record(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("journal record", "url", item.URL, "error", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
