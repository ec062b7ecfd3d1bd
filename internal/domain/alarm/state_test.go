package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestNewState_Empty verifies the empty-state result for an empty list.
func TestNewState_Empty(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	s := NewState(nil, now)

	require.False(t, s.HasNext())

	m := s.Map()
	require.Nil(t, m["next_alarm"])
	require.Nil(t, m["next_alarm_name"])
	require.Equal(t, []any{}, m["all_alarms"])
	require.Equal(t, 0, m["total_alarms"])
	require.Equal(t, "UTC", m["timezone"])
}

// TestNewState_Map checks the rendered state object of a populated state.
func TestNewState_Map(t *testing.T) {
	t.Parallel()

	berlin := mustLocation(t, "Europe/Berlin")
	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, berlin)

	s := NewState([]Alarm{
		{Time: "09:00", Days: []Day{Monday}, IsEnabled: true},
		{Name: "late", Time: "23:00", IsEnabled: false},
	}, now)

	m := s.Map()
	require.Equal(t, "2025-01-06T09:00:00+01:00", m["next_alarm"])
	require.Equal(t, UnknownName, m["next_alarm_name"])
	require.Equal(t, 2, m["total_alarms"])
	require.Equal(t, "Europe/Berlin", m["timezone"])
	require.Equal(t, 1, s.EnabledCount())

	first, ok := m["all_alarms"].([]any)[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, []any{0}, first["days"])
}

// TestStateClone verifies Clone copies fields and does not share slices.
func TestStateClone(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	s := NewState([]Alarm{{Name: "a", Time: "09:00", Days: []Day{Monday}, IsEnabled: true}}, now)

	c := s.Clone()
	require.True(t, s.Equal(c))
	require.NotSame(t, s.Next, c.Next)

	c.Alarms[0].Days[0] = Friday
	require.Equal(t, Monday, s.Alarms[0].Days[0])

	require.Nil(t, (*State)(nil).Clone())
}

// TestNewState_IsolatedFromInput ensures later edits of the input do not leak into the state.
func TestNewState_IsolatedFromInput(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	alarms := []Alarm{{Name: "a", Time: "09:00", Days: []Day{Monday}, IsEnabled: true}}

	s := NewState(alarms, now)
	alarms[0].Days[0] = Sunday
	alarms[0].Name = "changed"

	require.Equal(t, "a", s.Alarms[0].Name)
	require.Equal(t, Monday, s.Next.Alarm.Days[0])
}

// TestStateEqual covers the comparison used to skip redundant publishes.
func TestStateEqual(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	alarms := []Alarm{{Name: "a", Time: "09:00", IsEnabled: true}}

	a := NewState(alarms, now)
	b := NewState(alarms, now.Add(time.Minute))
	require.True(t, a.Equal(b))

	c := NewState(alarms, now.Add(2*time.Hour))
	require.False(t, a.Equal(c))

	require.True(t, (*State)(nil).Equal(nil))
	require.False(t, a.Equal(nil))
}
