// Package sensor implements next-alarm-sensor: it reads the next alarm over
// gRPC once, or keeps polling and prints every change.
package sensor
