package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"NewsCaster/internal/domain"
	"NewsCaster/internal/ports"
)

// CronTimetable resolves the daily fire time with a standard cron spec evaluated in the
// schedule's own zone.
type CronTimetable struct{}

var _ ports.Timetable = CronTimetable{}

// NewCronTimetable returns the timetable used by the scheduler loop.
func NewCronTimetable() CronTimetable {
	return CronTimetable{}
}

// Next returns the first fire time strictly after now. A target equal to now rolls over
// to the following day.
func (CronTimetable) Next(now time.Time, s domain.Schedule) time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)

	spec, err := cron.ParseStandard(dailySpec(s.Hour, s.Minute))
	if err != nil {
		return nextDaily(local, s.Hour, s.Minute)
	}
	// Specs without CRON_TZ are evaluated in the location of the time passed in.
	return spec.Next(local).In(loc)
}

func dailySpec(hour, minute int) string {
	return fmt.Sprintf("%d %d * * *", minute, hour)
}

func nextDaily(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}
