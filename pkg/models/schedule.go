package models

import (
	"errors"
	"fmt"
	"time"
)

// Schedule is the activation window of a flow: weekdays and a time-of-day
// range evaluated in the schedule's own timezone. Perpetual schedules are
// always active. Windows never span midnight.
type Schedule struct {
	Timezone         string   `json:"timezone"`
	IsPerpetual      bool     `json:"is_perpetual"`
	ActivationTime   string   `json:"activation_time,omitempty"`   // "15:04"
	DeactivationTime string   `json:"deactivation_time,omitempty"` // "15:04"
	ActiveDays       []string `json:"active_days,omitempty"`
}

var (
	// ErrInvalidSchedule is returned when schedule validation fails.
	ErrInvalidSchedule = errors.New("invalid schedule configuration")
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// ParseWeekday resolves a short weekday name ("mon".."sun").
func ParseWeekday(name string) (time.Weekday, bool) {
	day, ok := weekdayNames[name]

	return day, ok
}

// ParseClock parses a "15:04" time-of-day into minutes since midnight.
func ParseClock(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", clock, err)
	}

	return t.Hour()*60 + t.Minute(), nil
}

// Location resolves the schedule's timezone. An empty timezone means UTC.
func (s *Schedule) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}

	return time.LoadLocation(s.Timezone)
}

// Validate checks the schedule invariants: a resolvable timezone, known
// weekday names, and activation strictly before deactivation within one day.
func (s *Schedule) Validate() error {
	if _, err := s.Location(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	if s.IsPerpetual {
		return nil
	}

	activation, err := ParseClock(s.ActivationTime)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	deactivation, err := ParseClock(s.DeactivationTime)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSchedule, err)
	}

	if activation >= deactivation {
		return fmt.Errorf("%w: activation %s is not before deactivation %s",
			ErrInvalidSchedule, s.ActivationTime, s.DeactivationTime)
	}

	for _, day := range s.ActiveDays {
		if _, ok := ParseWeekday(day); !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidSchedule, day)
		}
	}

	return nil
}
