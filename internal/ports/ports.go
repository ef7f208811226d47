package ports

import (
	"context"
	"time"

	"NewsCaster/internal/domain"
)

// PageFetcher returns the HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns page HTML into typed records.
type Extractor interface {
	ListHomepage(html string) ([]domain.Candidate, error)
	// ExtractArticle reports false when the page has no recognizable body container.
	ExtractArticle(html string) (domain.Article, bool, error)
}

// TextTransformer translates headlines and summarizes article bodies.
type TextTransformer interface {
	Translate(ctx context.Context, text string) (string, error)
	Summarize(ctx context.Context, text string) (string, error)
}

// Notifier delivers a formatted notification to a destination.
type Notifier interface {
	Send(ctx context.Context, n domain.Notification, dest domain.Destination) error
}

// Timetable computes the next fire time strictly after now.
type Timetable interface {
	Next(now time.Time, s domain.Schedule) time.Time
}

// DeliveryJournal keeps an audit trail of delivery attempts.
type DeliveryJournal interface {
	Record(ctx context.Context, rec domain.DeliveryRecord) error
}
