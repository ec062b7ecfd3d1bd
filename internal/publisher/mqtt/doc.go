// Package mqtt publishes the next alarm as a Home Assistant sensor entity.
//
// On connect it announces a timestamp sensor through MQTT discovery; every
// new state is then written to the retained state and attributes topics.
package mqtt
