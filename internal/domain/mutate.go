package domain

import (
	"fmt"
	"sort"
)

// The mutation operations below are pure: each takes the current itinerary by
// value, works on a deep copy, and returns the transformed copy. On error the
// input is untouched and a zero Itinerary is returned, so no caller can observe
// a partially applied change.

// AddActivity appends a to the end of the day's activity list. It does not
// re-sort by time. An empty a.ID is replaced with a fresh identifier.
func AddActivity(it Itinerary, dayNumber int, a Activity) (Itinerary, error) {
	out := it.Clone()
	day, _, err := out.Day(dayNumber)
	if err != nil {
		return Itinerary{}, fmt.Errorf("domain.AddActivity: %w", err)
	}
	if a.ID == "" {
		a.ID = NewActivityID()
	}
	day.Activities = append(day.Activities, a)
	return out, nil
}

// EditActivity replaces the activity at index with updated, keeping its position.
// If updated.ID is empty the replaced activity's ID is kept so identity survives
// the edit.
func EditActivity(it Itinerary, dayNumber, index int, updated Activity) (Itinerary, error) {
	out := it.Clone()
	day, _, err := out.Day(dayNumber)
	if err != nil {
		return Itinerary{}, fmt.Errorf("domain.EditActivity: %w", err)
	}
	if err := checkIndex(day, index); err != nil {
		return Itinerary{}, fmt.Errorf("domain.EditActivity: %w", err)
	}
	if updated.ID == "" {
		updated.ID = day.Activities[index].ID
	}
	day.Activities[index] = updated
	return out, nil
}

// DeleteActivity removes the activity at index; later activities shift down by one.
func DeleteActivity(it Itinerary, dayNumber, index int) (Itinerary, error) {
	out := it.Clone()
	day, _, err := out.Day(dayNumber)
	if err != nil {
		return Itinerary{}, fmt.Errorf("domain.DeleteActivity: %w", err)
	}
	if err := checkIndex(day, index); err != nil {
		return Itinerary{}, fmt.Errorf("domain.DeleteActivity: %w", err)
	}
	day.Activities = append(day.Activities[:index], day.Activities[index+1:]...)
	return out, nil
}

// MoveActivity removes the activity at srcIndex of srcDay and inserts it at
// dstIndex of dstDay. dstIndex addresses the destination list after the removal,
// so for the same day moving 0 to 2 in [A,B,C,D] yields [B,C,A,D]. Valid
// destination positions are 0..len(list) inclusive.
func MoveActivity(it Itinerary, srcDay, srcIndex, dstDay, dstIndex int) (Itinerary, error) {
	out := it.Clone()
	src, _, err := out.Day(srcDay)
	if err != nil {
		return Itinerary{}, fmt.Errorf("domain.MoveActivity: source: %w", err)
	}
	dst, _, err := out.Day(dstDay)
	if err != nil {
		return Itinerary{}, fmt.Errorf("domain.MoveActivity: destination: %w", err)
	}
	if err := checkIndex(src, srcIndex); err != nil {
		return Itinerary{}, fmt.Errorf("domain.MoveActivity: source: %w", err)
	}

	dstLen := len(dst.Activities)
	if srcDay == dstDay {
		dstLen--
	}
	if dstIndex < 0 || dstIndex > dstLen {
		return Itinerary{}, fmt.Errorf("domain.MoveActivity: destination: %w: index %d, day %d accepts 0..%d",
			ErrIndexOutOfRange, dstIndex, dstDay, dstLen)
	}

	moved := src.Activities[srcIndex]
	src.Activities = append(src.Activities[:srcIndex], src.Activities[srcIndex+1:]...)

	acts := make([]Activity, 0, len(dst.Activities)+1)
	acts = append(acts, dst.Activities[:dstIndex]...)
	acts = append(acts, moved)
	acts = append(acts, dst.Activities[dstIndex:]...)
	dst.Activities = acts
	return out, nil
}

// SortActivitiesByTime orders the day's activities by ascending Time string.
// Lexicographic "HH:MM" comparison is chronological within a day; placeholder
// times such as "TBD" sort after every clock time. The sort is stable so equal
// times keep their relative order.
func SortActivitiesByTime(d *DayPlan) {
	sort.SliceStable(d.Activities, func(i, j int) bool {
		return d.Activities[i].Time < d.Activities[j].Time
	})
}

func checkIndex(d *DayPlan, index int) error {
	if index < 0 || index >= len(d.Activities) {
		return fmt.Errorf("%w: index %d, day %d has %d activities",
			ErrIndexOutOfRange, index, d.DayNumber, len(d.Activities))
	}
	return nil
}
