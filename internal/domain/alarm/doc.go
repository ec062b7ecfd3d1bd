// Package alarm contains the core domain types and the next-alarm calculator.
//
// Alarm is a recurring weekly alarm delivered by the phone, State is the
// immutable result of a recomputation. Compute and NewState are pure
// functions of the alarm list and a reference instant, so every caller
// (webhook, timer, gRPC) gets identical results for identical inputs.
package alarm
