package alarm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidJSON is returned when the payload is not a JSON object.
	ErrInvalidJSON = errors.New("invalid JSON")
	// ErrMissingAlarms is returned when the payload has no "alarms" list.
	ErrMissingAlarms = errors.New("missing alarms data")
	// errInvalidDay is returned for weekday numbers outside 0..6.
	errInvalidDay = errors.New("day out of range")
)

// Payload is an alarm delivery from the phone: the full alarm list replacing
// the previous one, and optionally the device timezone.
type Payload struct {
	// Alarms is the delivered alarm list.
	Alarms []Alarm
	// Timezone is the IANA timezone of the device, empty when not sent.
	Timezone string
	// Skipped is the number of entries that could not be decoded.
	Skipped int
}

// wirePayload is the JSON envelope of a delivery.
type wirePayload struct {
	Alarms   json.RawMessage `json:"alarms"`
	Timezone json.RawMessage `json:"timezone"`
}

// wireAlarm is a single alarm entry as sent by the phone.
type wireAlarm struct {
	Name      *string `json:"name"`
	Time      string  `json:"time"`
	Days      []int   `json:"days"`
	IsEnabled *bool   `json:"isEnabled"`
}

// ParsePayload decodes a delivery. The envelope must be a JSON object with an
// "alarms" list; individual entries that cannot be decoded are dropped and
// counted in Payload.Skipped. A non-string timezone is ignored.
func ParsePayload(body []byte) (*Payload, error) {
	var envelope wirePayload
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	rawAlarms := bytes.TrimSpace(envelope.Alarms)
	if len(rawAlarms) == 0 || rawAlarms[0] != '[' {
		return nil, ErrMissingAlarms
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(rawAlarms, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	payload := &Payload{
		Alarms: make([]Alarm, 0, len(entries)),
	}

	var timezone string
	if err := json.Unmarshal(envelope.Timezone, &timezone); err == nil {
		payload.Timezone = timezone
	}

	for _, entry := range entries {
		a, err := decodeAlarm(entry)
		if err != nil {
			payload.Skipped++
			continue
		}

		payload.Alarms = append(payload.Alarms, a)
	}

	return payload, nil
}

// decodeAlarm decodes one alarm entry. Missing isEnabled means enabled.
func decodeAlarm(raw json.RawMessage) (Alarm, error) {
	var entry wireAlarm
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Alarm{}, err
	}

	a := Alarm{
		Time:      entry.Time,
		IsEnabled: true,
	}

	if entry.Name != nil {
		a.Name = *entry.Name
	}

	if entry.IsEnabled != nil {
		a.IsEnabled = *entry.IsEnabled
	}

	for _, d := range entry.Days {
		day := Day(d)
		if !day.Valid() {
			return Alarm{}, fmt.Errorf("%w: %d", errInvalidDay, d)
		}

		a.Days = append(a.Days, day)
	}

	return a, nil
}

// Map renders the payload in its wire form.
func (p *Payload) Map() map[string]any {
	result := map[string]any{
		"alarms": alarmsToList(p.Alarms),
	}

	if p.Timezone != "" {
		result["timezone"] = p.Timezone
	}

	return result
}

// MarshalJSON renders the payload in its wire form.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Map())
}

// Map renders the alarm in its wire form.
func (a Alarm) Map() map[string]any {
	days := make([]any, 0, len(a.Days))
	for _, d := range a.Days {
		days = append(days, int(d))
	}

	return map[string]any{
		"name":      a.Name,
		"time":      a.Time,
		"days":      days,
		"isEnabled": a.IsEnabled,
	}
}

// alarmsToList renders alarms as a generic list suitable for structpb and JSON.
func alarmsToList(alarms []Alarm) []any {
	list := make([]any, 0, len(alarms))
	for _, a := range alarms {
		list = append(list, a.Map())
	}

	return list
}
