// Package metrics exposes the alarm state and webhook traffic to Prometheus.
package metrics
