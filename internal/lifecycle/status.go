// Package lifecycle classifies content items by their start/end date window.
package lifecycle

import (
	"strings"
	"time"

	"github.com/example/blazehunter/internal/dates"
)

// Status is the display state of a content item on a given day.
type Status string

const (
	StatusNone     Status = "none"
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnding   Status = "ending"
)

const (
	// ImplicitRunDays is added to the start date when an item has no end date.
	ImplicitRunDays = 10
	// ExpiryDays is how long past its end an item stays visible.
	ExpiryDays = 30
)

// Result is the outcome of Classify. End is zero when Status is none because
// the start date was blank.
type Result struct {
	Status Status    `json:"status"`
	End    time.Time `json:"-"`
}

// Translator looks up a display label for a translation key.
type Translator interface {
	Translate(key string) string
}

// Classify computes the status of an item from its start/end strings. The
// result is a pure function of its inputs; today is truncated to its UTC day.
func Classify(start, end string, today time.Time) Result {
	if strings.TrimSpace(start) == "" {
		return Result{Status: StatusNone}
	}

	startDay := dates.ParseLenient(start)
	endDay := ResolveEnd(startDay, end)
	today = dates.Today(today)

	if today.Before(startDay) {
		return Result{Status: StatusUpcoming, End: endDay}
	}

	sinceEnd := dates.DaysBetween(endDay, today)
	switch {
	case sinceEnd < 0:
		return Result{Status: StatusActive, End: endDay}
	case sinceEnd <= ExpiryDays:
		return Result{Status: StatusEnding, End: endDay}
	default:
		return Result{Status: StatusNone, End: endDay}
	}
}

// ResolveEnd returns the explicit end date when present, else start plus the
// implicit run.
func ResolveEnd(start time.Time, end string) time.Time {
	if strings.TrimSpace(end) != "" {
		return dates.Truncate(dates.ParseLenient(end))
	}
	return dates.AddDays(dates.Truncate(start), ImplicitRunDays)
}

// DaysPastEnd reports how many whole days today lies after the resolved end of
// an item. Negative values mean the item has not ended yet.
func DaysPastEnd(start, end string, today time.Time) int {
	return dates.DaysBetween(ResolveEnd(dates.ParseLenient(start), end), dates.Today(today))
}

// EventStatus is the coarse classifier for event-style items: active once the
// start day is reached, upcoming before it. Unparseable input yields none.
func EventStatus(start string, today time.Time) Status {
	startDay, ok := dates.ParseStrict(start)
	if !ok {
		return StatusNone
	}
	if startDay.After(dates.Today(today)) {
		return StatusUpcoming
	}
	return StatusActive
}

// Label returns the translated badge text for a status. None has no label.
func Label(status Status, t Translator) string {
	if status == StatusNone || status == "" {
		return ""
	}
	if t != nil {
		if label := t.Translate(string(status)); label != "" {
			return label
		}
	}
	return strings.ToUpper(string(status))
}

// Rank orders statuses along the lifecycle: upcoming, active, ending, none.
// Items only ever move to a higher rank as time passes.
func Rank(status Status) int {
	switch status {
	case StatusUpcoming:
		return 0
	case StatusActive:
		return 1
	case StatusEnding:
		return 2
	default:
		return 3
	}
}
