// Package config defines the settings used by the next-alarm binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Config holds the listen addresses, the webhook id created by the setup
// wizard, the refresh schedule and the optional MQTT broker settings.
package config
