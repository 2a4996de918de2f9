// Package urgency decides whether a due date is close enough to flag.
package urgency

import (
	"fmt"
	"time"
)

// Window is the largest day distance still considered urgent.
const Window = 3

// Urgency describes how close a due date is.
type Urgency struct {
	// Days is the calendar-day distance from today; negative when overdue.
	Days int `json:"days" yaml:"days"`

	// Label is the human-readable badge text.
	Label string `json:"label" yaml:"label"`

	// IsUrgent is true whenever an Urgency is returned.
	IsUrgent bool `json:"is_urgent" yaml:"is_urgent"`
}

// Classify compares due against now as local calendar dates in now's
// location. It returns false when there is no due date or it is more than
// Window days away. Overdue dates are always urgent.
func Classify(due *time.Time, now time.Time) (Urgency, bool) {
	if due == nil {
		return Urgency{}, false
	}

	days := DaysUntil(*due, now)
	if days > Window {
		return Urgency{}, false
	}

	return Urgency{Days: days, Label: label(days), IsUrgent: true}, true
}

// DaysUntil returns the number of calendar days from now's date to due's
// date, both taken in now's location.
func DaysUntil(due, now time.Time) int {
	loc := now.Location()
	d := midnightUTC(due.In(loc))
	n := midnightUTC(now)
	// Both sides are UTC midnights, so the difference is a whole number of
	// 24h days even across DST transitions.
	return int(d.Sub(n) / (24 * time.Hour))
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func label(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("overdue by %d days", -days)
	case days == 0:
		return "due today"
	default:
		return fmt.Sprintf("due in %d days", days)
	}
}
