package http

import (
	"time"

	"github.com/comitanigiacomo/kanso-reminder-engine/internal/core/calendar"
)

// Clock yields the calendar day a request is evaluated against.
type Clock func() calendar.Date

func SystemClock(loc *time.Location) Clock {
	return func() calendar.Date {
		return calendar.Today(loc)
	}
}

func FixedClock(d calendar.Date) Clock {
	return func() calendar.Date {
		return d
	}
}
