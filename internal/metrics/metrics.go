package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
)

// Delivery results recorded by ObserveDelivery.
const (
	ResultAccepted       = "accepted"
	ResultInvalidJSON    = "invalid_json"
	ResultMissingAlarms  = "missing_alarms"
	ResultInternalError  = "internal_error"
	ResultUnknownWebhook = "unknown_webhook"
)

// Metrics holds the collectors of the service. It implements the
// coordinator Publisher interface to track each recomputation.
type Metrics struct {
	// registry is the registry every collector is attached to.
	registry *prometheus.Registry
	// nextAlarm is the Unix time of the next alarm, 0 when there is none.
	nextAlarm prometheus.Gauge
	// alarms counts alarms in the last delivery by enabled state.
	alarms *prometheus.GaugeVec
	// deliveries counts webhook deliveries by result.
	deliveries *prometheus.CounterVec
	// recomputations counts computed states.
	recomputations prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the
// process and Go runtime collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		nextAlarm: factory.NewGauge(prometheus.GaugeOpts{
			Name: "next_alarm_timestamp_seconds",
			Help: "Unix time of the next alarm, 0 when no alarm is scheduled.",
		}),
		alarms: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "next_alarm_alarms",
			Help: "Alarms in the last delivery grouped by state.",
		}, []string{"state"}),
		deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "next_alarm_webhook_deliveries_total",
			Help: "Webhook deliveries grouped by result.",
		}, []string{"result"}),
		recomputations: factory.NewCounter(prometheus.CounterOpts{
			Name: "next_alarm_recomputations_total",
			Help: "Number of next alarm recomputations.",
		}),
	}
}

// Publish records a freshly computed state.
func (m *Metrics) Publish(_ context.Context, state *domain.State) error {
	m.recomputations.Inc()

	if at, ok := state.NextAlarm(); ok {
		m.nextAlarm.Set(float64(at.Unix()))
	} else {
		m.nextAlarm.Set(0)
	}

	total := 0
	if state != nil {
		total = len(state.Alarms)
	}

	enabled := state.EnabledCount()
	m.alarms.WithLabelValues("enabled").Set(float64(enabled))
	m.alarms.WithLabelValues("disabled").Set(float64(total - enabled))

	return nil
}

// ObserveDelivery counts a webhook delivery with the given result.
func (m *Metrics) ObserveDelivery(result string) {
	m.deliveries.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}
