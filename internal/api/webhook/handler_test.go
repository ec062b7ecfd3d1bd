package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/metrics"
)

const testWebhookID = "3b0f7e5c-2d7a-4d8e-9a3b-6f1e2c4d5a6b"

var errTestPersist = errors.New("disk full")

// fakeService records deliveries and computes states at a fixed instant.
type fakeService struct {
	now      time.Time
	state    *domain.State
	payloads []*domain.Payload
	err      error
}

// UpdateAlarms records the payload and recomputes the state.
func (f *fakeService) UpdateAlarms(_ context.Context, payload *domain.Payload) (*domain.State, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}

	f.state = domain.NewState(payload.Alarms, f.now)

	return f.state, nil
}

// State returns the last computed state.
func (f *fakeService) State() *domain.State { return f.state }

// countingObserver counts delivery results.
type countingObserver map[string]int

// ObserveDelivery increments the counter of the result.
func (c countingObserver) ObserveDelivery(result string) { c[result]++ }

// newTestServer builds the routed handler around a fresh fake service.
func newTestServer(opts ...Option) (http.Handler, *fakeService) {
	now := time.Date(2025, time.January, 6, 8, 0, 0, 0, time.UTC)
	service := &fakeService{now: now, state: domain.NewState(nil, now)}

	mux := http.NewServeMux()
	NewHandler(testWebhookID, service, opts...).Register(mux)

	return WithLogging(mux), service
}

// post sends a delivery to the webhook with the given id.
func post(handler http.Handler, id, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, PathPrefix+id, strings.NewReader(body))
	handler.ServeHTTP(recorder, request)

	return recorder
}

// TestDelivery_Accepted verifies a valid delivery updates the service.
func TestDelivery_Accepted(t *testing.T) {
	t.Parallel()

	observer := countingObserver{}
	handler, service := newTestServer(WithObserver(observer))

	body := `{"timezone": "Europe/Berlin", "alarms": [
		{"name": "Work", "time": "06:45", "days": [0, 1, 2, 3, 4], "isEnabled": true},
		{"name": "Broken", "time": "08:00", "days": [12]}
	]}`

	recorder := post(handler, testWebhookID, body)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "OK", recorder.Body.String())
	require.Len(t, service.payloads, 1)
	require.Equal(t, "Europe/Berlin", service.payloads[0].Timezone)
	require.Len(t, service.payloads[0].Alarms, 1)
	require.Equal(t, 1, service.payloads[0].Skipped)
	require.Equal(t, 1, observer[metrics.ResultAccepted])
}

// TestDelivery_Errors covers the plain-text error responses.
func TestDelivery_Errors(t *testing.T) {
	t.Parallel()

	observer := countingObserver{}
	handler, service := newTestServer(WithObserver(observer))

	recorder := post(handler, testWebhookID, `{"alarms": [`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "Invalid JSON", recorder.Body.String())

	recorder = post(handler, testWebhookID, `{"timezone": "UTC"}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Equal(t, "Missing alarms data", recorder.Body.String())

	recorder = post(handler, "wrong-id", `{"alarms": []}`)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = post(handler, testWebhookID, `{"alarms": [], "pad": "`+strings.Repeat("x", MaxBodyBytes)+`"}`)
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	require.Empty(t, service.payloads)
	require.Equal(t, 2, observer[metrics.ResultInvalidJSON])
	require.Equal(t, 1, observer[metrics.ResultMissingAlarms])
	require.Equal(t, 1, observer[metrics.ResultUnknownWebhook])
}

// TestDelivery_InternalError maps service failures to 500.
func TestDelivery_InternalError(t *testing.T) {
	t.Parallel()

	handler, service := newTestServer()
	service.err = errTestPersist

	recorder := post(handler, testWebhookID, `{"alarms": []}`)
	require.Equal(t, http.StatusInternalServerError, recorder.Code)
	require.Equal(t, "Internal server error", recorder.Body.String())
}

// TestDelivery_MethodNotAllowed only accepts POST on the webhook.
func TestDelivery_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, PathPrefix+testWebhookID, nil))
	require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}

// TestState returns the state object after a delivery.
func TestState(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.JSONEq(t,
		`{"next_alarm": null, "next_alarm_name": null, "all_alarms": [], "total_alarms": 0, "timezone": "UTC"}`,
		recorder.Body.String(),
	)

	require.Equal(t, http.StatusOK, post(handler, testWebhookID, `{"alarms": [{"time": "09:15"}]}`).Code)

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	var state map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &state))
	require.Equal(t, "2025-01-06T09:15:00Z", state["next_alarm"])
	require.Equal(t, domain.UnknownName, state["next_alarm_name"])
	require.InDelta(t, 1, state["total_alarms"], 0)
}

// TestHealth answers OK.
func TestHealth(t *testing.T) {
	t.Parallel()

	handler, _ := newTestServer()

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Equal(t, "OK", recorder.Body.String())
}
