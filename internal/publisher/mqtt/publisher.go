package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/next-alarm/internal/config"
	domain "github.com/oshokin/next-alarm/internal/domain/alarm"
	"github.com/oshokin/next-alarm/internal/logger"
	"github.com/oshokin/next-alarm/internal/version"
)

// unknownPayload is the state payload Home Assistant maps to "unknown".
const unknownPayload = "None"

// qosAtLeastOnce is the QoS level of every message.
const qosAtLeastOnce byte = 1

// errPublishTimeout is returned when the broker does not acknowledge in time.
var errPublishTimeout = errors.New("mqtt publish timed out")

// Client is the part of the paho client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Topics groups the topics of the sensor entity.
type Topics struct {
	// Config is the discovery topic.
	Config string
	// State carries the RFC 3339 timestamp or "None".
	State string
	// Attributes carries the JSON attributes.
	Attributes string
	// Availability carries "online" or "offline".
	Availability string
}

// NewTopics derives the entity topics from the settings.
func NewTopics(settings config.MQTT) Topics {
	base := settings.TopicPrefix + "/" + settings.NodeID

	return Topics{
		Config:       settings.DiscoveryPrefix + "/sensor/" + settings.NodeID + "/next_alarm/config",
		State:        base + "/next_alarm/state",
		Attributes:   base + "/next_alarm/attributes",
		Availability: base + "/availability",
	}
}

// Publisher writes alarm states to MQTT.
type Publisher struct {
	// client is the connected broker client.
	client Client
	// settings holds the discovery settings.
	settings config.MQTT
	// topics are the entity topics.
	topics Topics
	// timeout bounds every broker acknowledgement.
	timeout time.Duration

	// mu guards last.
	mu sync.Mutex
	// last is the most recently published state.
	last *domain.State
}

// NewPublisher wraps a connected client.
func NewPublisher(client Client, settings config.MQTT, timeout time.Duration) *Publisher {
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}

	return &Publisher{
		client:   client,
		settings: settings,
		topics:   NewTopics(settings),
		timeout:  timeout,
	}
}

// Connect dials the broker and returns a publisher that has announced the
// sensor. The broker is told to mark the sensor offline if the connection drops.
func Connect(ctx context.Context, settings config.MQTT, timeout time.Duration) (*Publisher, func(), error) {
	topics := NewTopics(settings)

	paho.ERROR = logger.NewPrinter("mqtt", zapcore.ErrorLevel)
	paho.CRITICAL = logger.NewPrinter("mqtt", zapcore.ErrorLevel)
	paho.WARN = logger.NewPrinter("mqtt", zapcore.WarnLevel)

	options := paho.NewClientOptions().
		AddBroker(settings.Broker).
		SetClientID(settings.ClientID).
		SetUsername(settings.Username).
		SetPassword(settings.Password).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetWill(topics.Availability, "offline", qosAtLeastOnce, true)

	var publisher *Publisher

	// Runs on every (re)connect in its own goroutine. A restart of Home
	// Assistant alone needs the discovery config again.
	options.SetOnConnectHandler(func(paho.Client) {
		if err := publisher.Announce(ctx); err != nil {
			logger.WarnKV(ctx, "Failed to announce MQTT sensor", "error", err)
		}
	})

	client := paho.NewClient(options)
	publisher = NewPublisher(client, settings, timeout)

	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, nil, fmt.Errorf("connect to %s: %w", settings.Broker, errPublishTimeout)
	}

	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", settings.Broker, err)
	}

	logger.InfoKV(ctx, "Connected to MQTT broker", "broker", settings.Broker, "state_topic", topics.State)

	disconnect := func() {
		_ = publisher.publish(topics.Availability, "offline")

		client.Disconnect(uint(timeout / time.Millisecond))
	}

	return publisher, disconnect, nil
}

// Announce publishes the discovery config and marks the sensor online.
func (p *Publisher) Announce(ctx context.Context) error {
	discovery, err := json.Marshal(p.discoveryConfig())
	if err != nil {
		return fmt.Errorf("encode discovery config: %w", err)
	}

	if err = p.publish(p.topics.Config, discovery); err != nil {
		return err
	}

	if err = p.publish(p.topics.Availability, "online"); err != nil {
		return err
	}

	logger.DebugKV(ctx, "MQTT sensor announced", "config_topic", p.topics.Config)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last == nil {
		return nil
	}

	return p.writeState(p.last)
}

// Publish writes the state and attributes. Identical states are published once.
func (p *Publisher) Publish(_ context.Context, state *domain.State) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.last != nil && p.last.Equal(state) {
		return nil
	}

	if err := p.writeState(state); err != nil {
		return err
	}

	p.last = state

	return nil
}

// writeState publishes the state value and its attributes.
func (p *Publisher) writeState(state *domain.State) error {
	value := unknownPayload
	if at, ok := state.NextAlarm(); ok {
		value = at.Format(time.RFC3339)
	}

	attributes, err := json.Marshal(Attributes(state))
	if err != nil {
		return fmt.Errorf("encode attributes: %w", err)
	}

	if err = p.publish(p.topics.Attributes, attributes); err != nil {
		return err
	}

	return p.publish(p.topics.State, value)
}

// publish sends a retained message and waits for the acknowledgement.
func (p *Publisher) publish(topic string, payload any) error {
	token := p.client.Publish(topic, qosAtLeastOnce, true, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: %w", topic, errPublishTimeout)
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}

	return nil
}

// Attributes returns the extra state attributes of the sensor.
func Attributes(state *domain.State) map[string]any {
	attributes := map[string]any{
		"next_alarm_name": nil,
		"total_alarms":    0,
	}

	if name, ok := state.NextAlarmName(); ok {
		attributes["next_alarm_name"] = name
	}

	if state != nil {
		attributes["total_alarms"] = len(state.Alarms)
	}

	return attributes
}

// discoveryConfig is the Home Assistant MQTT discovery document of the sensor.
func (p *Publisher) discoveryConfig() map[string]any {
	return map[string]any{
		"name":                  "Next alarm",
		"unique_id":             p.settings.NodeID + "_next_alarm",
		"object_id":             p.settings.NodeID + "_next_alarm",
		"device_class":          "timestamp",
		"icon":                  "mdi:alarm",
		"state_topic":           p.topics.State,
		"json_attributes_topic": p.topics.Attributes,
		"availability_topic":    p.topics.Availability,
		"device": map[string]any{
			"identifiers":  []string{p.settings.NodeID},
			"name":         "Phone alarms",
			"manufacturer": "next-alarm",
			"sw_version":   version.Short(),
		},
	}
}
