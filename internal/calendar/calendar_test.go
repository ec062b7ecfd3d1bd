package calendar

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
)

// staticSource always returns the same state.
type staticSource struct {
	state *domain.State
}

// State returns the fixed state.
func (s staticSource) State() *domain.State { return s.state }

// testState is computed on Monday 2025-01-06 08:00 UTC.
func testState() *domain.State {
	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)

	return domain.NewState([]domain.Alarm{
		{Name: "Work", Time: "06:45", Days: []domain.Day{domain.Monday, domain.Wednesday}, IsEnabled: true},
		{Name: "Off", Time: "09:00", IsEnabled: false},
		{Time: "21:30", IsEnabled: true},
		{Name: "Broken", Time: "soon", IsEnabled: true},
	}, now)
}

// TestRecurrenceRule renders daily and weekly rules.
func TestRecurrenceRule(t *testing.T) {
	t.Parallel()

	require.Equal(t, "FREQ=DAILY", RecurrenceRule(domain.Alarm{Time: "07:00"}))
	require.Equal(t, "FREQ=WEEKLY;BYDAY=SA,SU",
		RecurrenceRule(domain.Alarm{Time: "07:00", Days: []domain.Day{domain.Saturday, domain.Sunday}}))
}

// TestBuild_Roundtrip encodes the feed and decodes it back.
func TestBuild_Roundtrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, ical.NewEncoder(&buf).Encode(Build(testState())))

	cal, err := ical.NewDecoder(&buf).Decode()
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)

	require.Equal(t, "Work", events[0].Props.Get(ical.PropSummary).Value)
	require.Equal(t, "FREQ=WEEKLY;BYDAY=MO,WE", events[0].Props.Get(ical.PropRecurrenceRule).Value)

	start, err := events[0].DateTimeStart(time.UTC)
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, time.January, 8, 6, 45, 0, 0, time.UTC), start)

	require.Equal(t, domain.UnknownName, events[1].Props.Get(ical.PropSummary).Value)
	require.Equal(t, "FREQ=DAILY", events[1].Props.Get(ical.PropRecurrenceRule).Value)

	// UIDs are stable across renders.
	again := Build(testState()).Events()
	require.Equal(t, events[0].Props.Get(ical.PropUID).Value, again[0].Props.Get(ical.PropUID).Value)
	require.NotEqual(t, events[0].Props.Get(ical.PropUID).Value, events[1].Props.Get(ical.PropUID).Value)
}

// TestHandler serves the feed with the calendar content type.
func TestHandler(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	Handler(staticSource{state: testState()}).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/alarms.ics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "text/calendar; charset=utf-8", recorder.Header().Get("Content-Type"))
	require.Contains(t, recorder.Body.String(), "BEGIN:VEVENT")
	require.Contains(t, recorder.Body.String(), "RRULE:FREQ=WEEKLY;BYDAY=MO,WE")
}
