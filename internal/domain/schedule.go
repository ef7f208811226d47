package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinSendDelay is the lower bound for pacing between deliveries.
const MinSendDelay = 100 * time.Millisecond

// FormatGuidance describes the accepted reconfiguration inputs.
const FormatGuidance = "expected time as HH:MM (00:00-23:59) and timezone as Etc/UTC or Etc/GMT±N with N in 0-14, e.g. Etc/GMT+3"

var (
	clockExpr    = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)
	timezoneExpr = regexp.MustCompile(`^Etc/(?:UTC|GMT([+-])(0|[1-9]|1[0-4]))$`)
)

// Schedule is the daily delivery configuration owned by the scheduler.
type Schedule struct {
	Hour        int
	Minute      int
	Timezone    string
	Location    *time.Location
	Destination Destination
	SendDelay   time.Duration
}

// Clock renders the fire time as HH:MM.
func (s Schedule) Clock() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// ScheduleRequest is the unvalidated input of a reconfiguration.
type ScheduleRequest struct {
	Clock        string
	Timezone     string
	DelaySeconds *float64
	Destination  Destination
}

// NewSchedule validates the request and builds a Schedule. Fields absent from the request
// (delay) are taken from fallback.
func NewSchedule(req ScheduleRequest, fallback Schedule) (Schedule, error) {
	hour, minute, err := ParseClock(req.Clock)
	if err != nil {
		return Schedule{}, err
	}

	loc, err := ParseTimezone(req.Timezone)
	if err != nil {
		return Schedule{}, err
	}

	delay := fallback.SendDelay
	if req.DelaySeconds != nil {
		delay = ClampDelay(*req.DelaySeconds)
	}
	if delay < MinSendDelay {
		delay = MinSendDelay
	}

	return Schedule{
		Hour:        hour,
		Minute:      minute,
		Timezone:    req.Timezone,
		Location:    loc,
		Destination: req.Destination,
		SendDelay:   delay,
	}, nil
}

// ParseClock accepts HH:MM with HH in 00-23 and MM in 00-59.
func ParseClock(value string) (int, int, error) {
	m := clockExpr.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, fmt.Errorf("%w: time %q: %s", ErrConfig, value, FormatGuidance)
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return hour, minute, nil
}

// ParseTimezone accepts Etc/UTC and Etc/GMT±N (0-14) and resolves them to fixed zones.
// Etc/GMT+N follows the POSIX convention and means N hours behind UTC.
func ParseTimezone(value string) (*time.Location, error) {
	m := timezoneExpr.FindStringSubmatch(value)
	if m == nil {
		return nil, fmt.Errorf("%w: timezone %q: %s", ErrConfig, value, FormatGuidance)
	}
	if m[1] == "" {
		return time.FixedZone(value, 0), nil
	}

	hours, _ := strconv.Atoi(m[2])
	offset := hours * 3600
	if m[1] == "+" {
		offset = -offset
	}
	return time.FixedZone(value, offset), nil
}

// ClampDelay converts seconds to a duration no shorter than MinSendDelay.
func ClampDelay(seconds float64) time.Duration {
	d := time.Duration(seconds * float64(time.Second))
	if d < MinSendDelay {
		return MinSendDelay
	}
	return d
}
