// Package schedule decides whether a flow is inside its activation window.
//
// The gate is advisory at flow entry only: a session already in progress is
// never killed by its flow leaving the window; it runs until completion or
// session timeout.
package schedule

import (
	"time"

	"github.com/zapdesk/automata/pkg/models"
)

// IsActive reports whether the schedule admits new sessions at the given
// instant. It is a pure function of its inputs.
//
// The instant is converted to the schedule's timezone before the weekday and
// time-of-day checks. The window is half-open: activation is inclusive,
// deactivation exclusive. A schedule whose timezone or clock strings fail to
// parse admits nothing; Validate surfaces those problems at load time.
func IsActive(s models.Schedule, at time.Time) bool {
	if s.IsPerpetual {
		return true
	}

	loc, err := s.Location()
	if err != nil {
		return false
	}

	local := at.In(loc)

	if !dayActive(s.ActiveDays, local.Weekday()) {
		return false
	}

	activation, err := models.ParseClock(s.ActivationTime)
	if err != nil {
		return false
	}

	deactivation, err := models.ParseClock(s.DeactivationTime)
	if err != nil {
		return false
	}

	minuteOfDay := local.Hour()*60 + local.Minute()

	return minuteOfDay >= activation && minuteOfDay < deactivation
}

// dayActive treats an empty day list as every day; the window alone gates.
func dayActive(days []string, weekday time.Weekday) bool {
	if len(days) == 0 {
		return true
	}

	for _, name := range days {
		day, ok := models.ParseWeekday(name)
		if ok && day == weekday {
			return true
		}
	}

	return false
}
