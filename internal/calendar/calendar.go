// Package calendar renders the alarm list as an iCalendar feed so the alarms
// can be subscribed to from any calendar application.
package calendar

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
)

// productID identifies the generator of the feed.
const productID = "-//oshokin//next-alarm//EN"

// eventDuration is the length of the VEVENT representing an alarm.
const eventDuration = 5 * time.Minute

// uidNamespace scopes the deterministic event UIDs.
//
//nolint:gochecknoglobals // Constant namespace for uuid.NewSHA1.
var uidNamespace = uuid.MustParse("6f0b2c52-5c1b-4f57-9a4e-2b8f1f0d7c11")

// Build returns a calendar with one recurring event per enabled, well-formed
// alarm of the state. Each event starts at the alarm's next occurrence.
func Build(state *domain.State) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText("X-WR-CALNAME", "Alarms")

	if state == nil {
		return cal
	}

	if state.Timezone != "" {
		cal.Props.SetText("X-WR-TIMEZONE", state.Timezone)
	}

	for i, a := range state.Alarms {
		start, ok := domain.NextOccurrence(a, state.ComputedAt)
		if !ok {
			continue
		}

		cal.Children = append(cal.Children, newEvent(i, a, start, state.ComputedAt).Component)
	}

	return cal
}

// newEvent builds the VEVENT of a single alarm.
func newEvent(index int, a domain.Alarm, start, stamp time.Time) *ical.Event {
	name := a.Name
	if name == "" {
		name = domain.UnknownName
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, eventUID(index, a))
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(eventDuration))
	event.Props.SetText(ical.PropSummary, name)

	// Set directly: SetText would escape the commas between weekdays.
	rule := ical.NewProp(ical.PropRecurrenceRule)
	rule.Value = RecurrenceRule(a)
	event.Props.Set(rule)

	return event
}

// RecurrenceRule returns the RRULE value of an alarm.
func RecurrenceRule(a domain.Alarm) string {
	if a.EveryDay() {
		return "FREQ=DAILY"
	}

	days := make([]string, 0, len(a.Days))
	for _, d := range a.Days {
		days = append(days, d.String())
	}

	return "FREQ=WEEKLY;BYDAY=" + strings.Join(days, ",")
}

// eventUID derives a stable UID from the alarm's position and content.
func eventUID(index int, a domain.Alarm) string {
	key := fmt.Sprintf("%d|%s|%s|%s", index, a.Name, a.Time, RecurrenceRule(a))

	return uuid.NewSHA1(uidNamespace, []byte(key)).String()
}

// StateSource provides the state rendered by the handler.
type StateSource interface {
	State() *domain.State
}

// Handler serves the feed of the current state.
func Handler(source StateSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := ical.NewEncoder(&buf).Encode(Build(source.State())); err != nil {
			logger.ErrorKV(r.Context(), "Failed to encode calendar", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `inline; filename="alarms.ics"`)
		_, _ = w.Write(buf.Bytes())
	})
}
