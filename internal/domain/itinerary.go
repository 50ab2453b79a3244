// Package domain contains the core data types for the trip itinerary service.
// This package has no knowledge of storage, transport, or the chat backend and
// is imported by every other internal package (sheet, repo, service, chat, handler).
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Activity is one scheduled timeline entry within a day (a visit, meal, or transit leg).
// Identity is ID; Time is advisory ordering metadata in "HH:MM" form and is not
// required to be unique within a day.
type Activity struct {
	ID                  string `json:"id"`
	Time                string `json:"time"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Location            string `json:"location"`
	Icon                string `json:"icon"`
	TransportSuggestion string `json:"transportSuggestion,omitempty"` // e.g. "步行 5 分鐘"
}

// DayPlan is a single day of the trip. DayNumber is unique within an Itinerary
// and is the stable sort key. The order of Activities is the display order and
// is never re-sorted implicitly.
type DayPlan struct {
	Date       string     `json:"date"` // "2006-01-02"
	DayNumber  int        `json:"dayNumber"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
}

// Itinerary is the root aggregate: the whole trip, days ordered by DayNumber.
type Itinerary struct {
	Title string    `json:"title"`
	Days  []DayPlan `json:"days"`
}

// NewActivityID returns a fresh unique activity identifier.
func NewActivityID() string {
	return uuid.NewString()
}

// Clone returns a structurally independent deep copy of the itinerary.
// Mutating the copy never aliases into the receiver. Nil activity slices are
// normalised to empty slices so copies compare equal regardless of origin.
func (it Itinerary) Clone() Itinerary {
	out := Itinerary{Title: it.Title, Days: make([]DayPlan, len(it.Days))}
	for i, d := range it.Days {
		out.Days[i] = d.Clone()
	}
	return out
}

// Clone returns a deep copy of the day.
func (d DayPlan) Clone() DayPlan {
	acts := make([]Activity, len(d.Activities))
	copy(acts, d.Activities) // Activity holds only value fields
	d.Activities = acts
	return d
}

// Day returns a pointer to the day with the given number inside it, plus its
// position in Days. The pointer aliases the receiver's storage, so callers that
// must not mutate should Clone first.
// Returns ErrDayNotFound if no such day exists.
func (it *Itinerary) Day(dayNumber int) (*DayPlan, int, error) {
	for i := range it.Days {
		if it.Days[i].DayNumber == dayNumber {
			return &it.Days[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: day %d", ErrDayNotFound, dayNumber)
}

// ActivityCount returns the total number of activities across all days.
func (it Itinerary) ActivityCount() int {
	n := 0
	for _, d := range it.Days {
		n += len(d.Activities)
	}
	return n
}

// Validate enforces the aggregate invariants:
//   - every DayNumber is positive
//   - every DayNumber is unique
func (it Itinerary) Validate() error {
	seen := make(map[int]bool, len(it.Days))
	for _, d := range it.Days {
		if d.DayNumber < 1 {
			return fmt.Errorf("%w: dayNumber must be positive, got %d", ErrValidation, d.DayNumber)
		}
		if seen[d.DayNumber] {
			return fmt.Errorf("%w: duplicate dayNumber %d", ErrValidation, d.DayNumber)
		}
		seen[d.DayNumber] = true
	}
	return nil
}
