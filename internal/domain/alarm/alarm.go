package alarm

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Day is a weekday in the numbering used by the phone: 0 is Monday, 6 is Sunday.
type Day int

// Weekdays as delivered by the phone.
const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// daysPerWeek is the number of distinct Day values.
const daysPerWeek = 7

// DayOf converts a time.Weekday (Sunday first) into a Day (Monday first).
func DayOf(wd time.Weekday) Day {
	return Day((int(wd) + daysPerWeek - 1) % daysPerWeek)
}

// Valid reports whether d is within Monday..Sunday.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// String returns the two-letter iCalendar abbreviation of the day.
func (d Day) String() string {
	names := [...]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}
	if !d.Valid() {
		return "Day(" + strconv.Itoa(int(d)) + ")"
	}

	return names[d]
}

// Alarm is a recurring weekly alarm as configured on the phone.
type Alarm struct {
	// Name is the display label of the alarm, may be empty.
	Name string
	// Time is the time of day in "HH:MM" form, kept as delivered.
	Time string
	// Days lists the active weekdays; empty means every day.
	Days []Day
	// IsEnabled tells whether the alarm is switched on.
	IsEnabled bool
}

// Clone returns a copy of the alarm that does not share the Days slice.
func (a Alarm) Clone() Alarm {
	a.Days = slices.Clone(a.Days)

	return a
}

// EveryDay reports whether the alarm rings on all weekdays.
func (a Alarm) EveryDay() bool {
	return len(a.Days) == 0
}

// activeDays returns the weekdays the alarm rings on.
func (a Alarm) activeDays() []Day {
	if a.EveryDay() {
		return []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
	}

	return a.Days
}

// ParseTimeOfDay parses "H:M" or "HH:MM" into hour and minute.
// ok is false for anything that is not a valid 24-hour time.
func ParseTimeOfDay(s string) (hour, minute int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}

	hour, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, false
	}

	minute, err = strconv.Atoi(strings.TrimSpace(m))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, false
	}

	return hour, minute, true
}

// NextOccurrence returns the soonest instant strictly after now at which the
// alarm rings, expressed in now's location. ok is false for disabled alarms
// and alarms whose time cannot be parsed.
func NextOccurrence(a Alarm, now time.Time) (time.Time, bool) {
	if !a.IsEnabled {
		return time.Time{}, false
	}

	hour, minute, ok := ParseTimeOfDay(a.Time)
	if !ok {
		return time.Time{}, false
	}

	var (
		next  time.Time
		found bool
		today = DayOf(now.Weekday())
	)

	for _, day := range a.activeDays() {
		if !day.Valid() {
			continue
		}

		offset := (int(day) - int(today) + daysPerWeek) % daysPerWeek
		candidate := time.Date(now.Year(), now.Month(), now.Day()+offset, hour, minute, 0, 0, now.Location())

		// Today's slot already passed: the same weekday next week.
		if !candidate.After(now) {
			candidate = time.Date(now.Year(), now.Month(), now.Day()+offset+daysPerWeek, hour, minute, 0, 0, now.Location())
		}

		if !found || candidate.Before(next) {
			next, found = candidate, true
		}
	}

	return next, found
}

// Occurrence is a concrete future instant at which an alarm rings.
type Occurrence struct {
	// At is the instant of the occurrence.
	At time.Time
	// Alarm is the alarm that rings at At.
	Alarm Alarm
	// Index is the position of Alarm in the list it was computed from.
	Index int
}

// Compute returns the soonest occurrence strictly after now across all alarms,
// or nil when no enabled, well-formed alarm exists. When two alarms ring at the
// same instant the one that comes first in the list wins.
func Compute(alarms []Alarm, now time.Time) *Occurrence {
	var best *Occurrence

	for i, a := range alarms {
		at, ok := NextOccurrence(a, now)
		if !ok {
			continue
		}

		if best == nil || at.Before(best.At) {
			best = &Occurrence{
				At:    at,
				Alarm: a.Clone(),
				Index: i,
			}
		}
	}

	return best
}
