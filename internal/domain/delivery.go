package domain

import "time"

// Destination identifies the chat a batch is delivered to. Zero means not configured.
type Destination int64

// IsZero reports whether no destination has been configured.
func (d Destination) IsZero() bool {
	return d == 0
}

// Notification is the formatted payload handed to a Notifier.
type Notification struct {
	Title       string
	Body        string
	SourceURL   string
	SourceLabel string
	ImageURL    string
	Color       int
}

// DeliveryStatus enumerates how an item's processing ended.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusSkipped   DeliveryStatus = "skipped"
	StatusFailed    DeliveryStatus = "failed"
)

// DeliveryRecord is one journal row describing a delivery attempt.
type DeliveryRecord struct {
	RunID       string
	Destination Destination
	URL         string
	Title       string
	Status      DeliveryStatus
	Error       string
	AttemptedAt time.Time
}
