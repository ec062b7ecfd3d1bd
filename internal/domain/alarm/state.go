package alarm

import (
	"slices"
	"time"
)

// UnknownName is reported as the next alarm name when the alarm has no label.
const UnknownName = "Unknown"

// State is the result of one recomputation. A State is never mutated after
// NewState returns it; a newer State replaces it as a whole.
type State struct {
	// Next is the soonest upcoming occurrence, nil when there is none.
	Next *Occurrence
	// Alarms is the snapshot of the alarm list the state was computed from.
	Alarms []Alarm
	// Timezone is the IANA name of the location used as the "now" basis.
	Timezone string
	// ComputedAt is the reference instant of the computation.
	ComputedAt time.Time
}

// NewState computes the state for the alarm list at the given instant.
// The location of now is the timezone basis of the result.
func NewState(alarms []Alarm, now time.Time) *State {
	snapshot := make([]Alarm, 0, len(alarms))
	for _, a := range alarms {
		snapshot = append(snapshot, a.Clone())
	}

	return &State{
		Next:       Compute(snapshot, now),
		Alarms:     snapshot,
		Timezone:   now.Location().String(),
		ComputedAt: now,
	}
}

// HasNext reports whether an upcoming occurrence exists.
func (s *State) HasNext() bool {
	return s != nil && s.Next != nil
}

// NextAlarm returns the instant of the next occurrence.
func (s *State) NextAlarm() (time.Time, bool) {
	if !s.HasNext() {
		return time.Time{}, false
	}

	return s.Next.At, true
}

// NextAlarmName returns the label of the next alarm, UnknownName when it has none.
func (s *State) NextAlarmName() (string, bool) {
	if !s.HasNext() {
		return "", false
	}

	if s.Next.Alarm.Name == "" {
		return UnknownName, true
	}

	return s.Next.Alarm.Name, true
}

// EnabledCount returns the number of enabled alarms in the snapshot.
func (s *State) EnabledCount() int {
	if s == nil {
		return 0
	}

	count := 0

	for _, a := range s.Alarms {
		if a.IsEnabled {
			count++
		}
	}

	return count
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}

	cloned := &State{
		Alarms:     make([]Alarm, 0, len(s.Alarms)),
		Timezone:   s.Timezone,
		ComputedAt: s.ComputedAt,
	}

	for _, a := range s.Alarms {
		cloned.Alarms = append(cloned.Alarms, a.Clone())
	}

	if s.Next != nil {
		next := *s.Next
		next.Alarm = s.Next.Alarm.Clone()
		cloned.Next = &next
	}

	return cloned
}

// Map renders the state as the object exposed to consumers:
// next_alarm (RFC 3339 or nil), next_alarm_name (or nil), all_alarms,
// total_alarms and timezone.
func (s *State) Map() map[string]any {
	result := map[string]any{
		"next_alarm":      nil,
		"next_alarm_name": nil,
		"all_alarms":      []any{},
		"total_alarms":    0,
		"timezone":        "",
	}

	if s == nil {
		return result
	}

	if at, ok := s.NextAlarm(); ok {
		result["next_alarm"] = at.Format(time.RFC3339)
	}

	if name, ok := s.NextAlarmName(); ok {
		result["next_alarm_name"] = name
	}

	result["all_alarms"] = alarmsToList(s.Alarms)
	result["total_alarms"] = len(s.Alarms)
	result["timezone"] = s.Timezone

	return result
}

// Equal reports whether both states announce the same next alarm for the same list.
func (s *State) Equal(other *State) bool {
	if s == nil || other == nil {
		return s == other
	}

	if s.HasNext() != other.HasNext() {
		return false
	}

	if s.HasNext() && (!s.Next.At.Equal(other.Next.At) || s.Next.Index != other.Next.Index) {
		return false
	}

	return s.Timezone == other.Timezone &&
		slices.EqualFunc(s.Alarms, other.Alarms, func(a, b Alarm) bool {
			return a.Name == b.Name && a.Time == b.Time && a.IsEnabled == b.IsEnabled && slices.Equal(a.Days, b.Days)
		})
}
