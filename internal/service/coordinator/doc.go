// Package coordinator owns the current alarm state.
//
// It keeps the last delivered alarm list and device timezone, recomputes the
// next alarm from them and an injected clock, and hands every new immutable
// State to the registered publishers: the MQTT sensor, the metrics and the
// refresh scheduler.
package coordinator
