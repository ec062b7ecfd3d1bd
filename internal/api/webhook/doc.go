// Package webhook implements the HTTP surface of the service: the webhook the
// phone posts its alarms to, and the read-only state and health endpoints.
package webhook
