// Package appointment schedules salon visits and renders them into the
// day, week, and month views of the admin calendar.
package appointment

import (
	"errors"
	"time"
)

// View selects the calendar granularity.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// ErrUnknownView rejects a view value outside day, week, or month.
var ErrUnknownView = errors.New("view must be day, week, or month")

// Bucket is one calendar cell: a date and the appointments starting on it.
type Bucket struct {
	Date         string        `json:"date"`
	Appointments []Appointment `json:"appointments"`
}

// RangeFor computes the half-open [start, end) window the view covers
// around the anchor. Weeks are anchored on Monday, and the month view
// spans whole weeks so the grid padding around the 1st and the last day
// belongs to the window.
func RangeFor(view View, anchor time.Time) (time.Time, time.Time, error) {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, anchor.Location())
	switch view {
	case ViewDay:
		return day, day.AddDate(0, 0, 1), nil
	case ViewWeek:
		// time.Weekday puts Sunday at 0; shift so Monday opens the week.
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7), nil
	case ViewMonth:
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		start := first.AddDate(0, 0, -((int(first.Weekday()) + 6) % 7))
		next := first.AddDate(0, 1, 0)
		end := next.AddDate(0, 0, (8-int(next.Weekday()))%7)
		return start, end, nil
	default:
		return time.Time{}, time.Time{}, ErrUnknownView
	}
}

// BuildCalendar groups appointments into one bucket per day of the window.
// Every day appears even when empty so the client can render a full grid.
func BuildCalendar(view View, anchor time.Time, appts []Appointment) ([]Bucket, error) {
	start, end, err := RangeFor(view, anchor)
	if err != nil {
		return nil, err
	}
	byDay := map[string][]Appointment{}
	for _, a := range appts {
		local := a.StartsAt.In(anchor.Location())
		if local.Before(start) || !local.Before(end) {
			continue
		}
		key := local.Format(time.DateOnly)
		byDay[key] = append(byDay[key], a)
	}
	buckets := []Bucket{}
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		appts := byDay[key]
		if appts == nil {
			appts = []Appointment{}
		}
		buckets = append(buckets, Bucket{Date: key, Appointments: appts})
	}
	return buckets, nil
}
