// Package events serves the event explorer and the organizer console.
package events

import (
	"time"

	"github.com/treeplant/web/internal/models"
)

// CompletedAfter is how long after its start an event counts as completed.
const CompletedAfter = 24 * time.Hour

var clockLayouts = []string{"15:04:05", "15:04"}

// ParseDateTime combines a YYYY-MM-DD date and an HH:MM[:SS] time in loc.
func ParseDateTime(date, clock string, loc *time.Location) (time.Time, bool) {
	for _, layout := range clockLayouts {
		t, err := time.ParseInLocation("2006-01-02 "+layout, date+" "+clock, loc)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StatusAt derives the displayed status. An unparseable date or time reads as Published.
func StatusAt(date, clock string, completed bool, now time.Time) models.EventStatus {
	if completed {
		return models.EventStatusCompleted
	}
	start, ok := ParseDateTime(date, clock, now.Location())
	if ok && now.Sub(start) >= CompletedAfter {
		return models.EventStatusCompleted
	}
	return models.EventStatusPublished
}

// IsUpcoming reports whether the event starts at or after now. Unparseable reads as false.
func IsUpcoming(date, clock string, now time.Time) bool {
	start, ok := ParseDateTime(date, clock, now.Location())
	return ok && !start.Before(now)
}
