package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the next-alarm binaries.
type Config struct {
	// HTTPAddress is the listen address of the webhook and read-only HTTP API.
	HTTPAddress string `yaml:"http_addr"`
	// GRPCAddress is the listen address of the gRPC sensor API, empty disables it.
	GRPCAddress string `yaml:"grpc_addr"`
	// WebhookID is the secret path segment the phone posts to.
	WebhookID string `yaml:"webhook_id"`
	// URLType selects which base URL is encoded in the setup QR code.
	URLType string `yaml:"url_type"`
	// LocalURL is the base URL reachable from the home network.
	LocalURL string `yaml:"local_url"`
	// PublicURL is the base URL reachable from the internet.
	PublicURL string `yaml:"public_url"`
	// StateFile is the path to the JSON file storing the last delivery.
	StateFile string `yaml:"state_file"`
	// DefaultTimezone is used until the phone sends its own timezone.
	DefaultTimezone string `yaml:"default_timezone"`
	// RefreshSchedule is the cron expression of periodic recomputation.
	RefreshSchedule string `yaml:"refresh_schedule"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum level of emitted log lines.
	LogLevel string `yaml:"log_level"`
	// LogFormat is either "console" or "json".
	LogFormat string `yaml:"log_format"`
	// MQTT configures the Home Assistant MQTT sensor, disabled without a broker.
	MQTT MQTT `yaml:"mqtt"`
}

// MQTT holds the broker connection and Home Assistant discovery settings.
type MQTT struct {
	// Broker is the broker URL, e.g. tcp://homeassistant.local:1883.
	Broker string `yaml:"broker"`
	// ClientID identifies this service at the broker.
	ClientID string `yaml:"client_id"`
	// Username is the optional broker user.
	Username string `yaml:"username"`
	// Password is the optional broker password.
	Password string `yaml:"password"`
	// DiscoveryPrefix is the Home Assistant discovery prefix.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
	// TopicPrefix is the root of the state and attribute topics.
	TopicPrefix string `yaml:"topic_prefix"`
	// NodeID names the device in Home Assistant and prefixes the unique id.
	NodeID string `yaml:"node_id"`
}

// Enabled reports whether a broker is configured.
func (m MQTT) Enabled() bool {
	return m.Broker != ""
}

// URL types selectable during setup.
const (
	// URLTypeLocal encodes the home network URL in the QR code.
	URLTypeLocal = "local"
	// URLTypePublic encodes the internet-facing URL in the QR code.
	URLTypePublic = "public"
)

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "next-alarm-settings.yaml"

	// DefaultStateFilename is the default filename for the last delivery.
	DefaultStateFilename = "next-alarm-state.json"

	// DefaultHTTPAddress is the default listen address of the HTTP API.
	DefaultHTTPAddress = ":8123"

	// DefaultRefreshSchedule recomputes the next alarm every 15 minutes.
	DefaultRefreshSchedule = "*/15 * * * *"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second

	// DefaultMQTTClientID is the default MQTT client id.
	DefaultMQTTClientID = "next-alarm"

	// DefaultDiscoveryPrefix is the Home Assistant default discovery prefix.
	DefaultDiscoveryPrefix = "homeassistant"

	// DefaultTopicPrefix is the default root of the state topics.
	DefaultTopicPrefix = "next-alarm"

	// DefaultNodeID is the default Home Assistant node id.
	DefaultNodeID = "next_alarm"

	// DefaultFilePermissions is the default file permission for config and state files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidURLType is returned for URL types other than local and public.
	errInvalidURLType = errors.New("url type must be local or public")
	// errInvalidSchedule is returned for malformed cron expressions.
	errInvalidSchedule = errors.New("invalid refresh schedule")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefault behaves like Load but returns validated defaults when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg = new(Config)
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file holds the webhook secret.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting
// and fills in defaults for optional ones.
//
//nolint:cyclop // A flat list of independent checks reads better than helpers.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.HTTPAddress == "" {
		settings.HTTPAddress = DefaultHTTPAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.HTTPAddress); err != nil {
		return fmt.Errorf("invalid http address: %w", err)
	}

	if settings.GRPCAddress != "" {
		if _, err := net.ResolveTCPAddr("tcp", settings.GRPCAddress); err != nil {
			return fmt.Errorf("invalid grpc address: %w", err)
		}
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.StateFile == "" {
		settings.StateFile = DefaultStateFilename
	}

	if settings.RefreshSchedule == "" {
		settings.RefreshSchedule = DefaultRefreshSchedule
	}

	if !gronx.IsValid(settings.RefreshSchedule) {
		return fmt.Errorf("%w: %q", errInvalidSchedule, settings.RefreshSchedule)
	}

	if settings.DefaultTimezone != "" {
		if _, err := time.LoadLocation(settings.DefaultTimezone); err != nil {
			return fmt.Errorf("invalid default timezone: %w", err)
		}
	}

	if settings.URLType == "" {
		settings.URLType = URLTypeLocal
	}

	if settings.URLType != URLTypeLocal && settings.URLType != URLTypePublic {
		return fmt.Errorf("%w: %q", errInvalidURLType, settings.URLType)
	}

	for name, raw := range map[string]string{"local url": settings.LocalURL, "public url": settings.PublicURL} {
		if raw == "" {
			continue
		}

		if _, err := url.ParseRequestURI(raw); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	return validateMQTT(&settings.MQTT)
}

// validateMQTT fills MQTT defaults and checks the broker URL when set.
func validateMQTT(m *MQTT) error {
	if !m.Enabled() {
		return nil
	}

	if _, err := url.Parse(m.Broker); err != nil {
		return fmt.Errorf("invalid mqtt broker: %w", err)
	}

	if m.ClientID == "" {
		m.ClientID = DefaultMQTTClientID
	}

	if m.DiscoveryPrefix == "" {
		m.DiscoveryPrefix = DefaultDiscoveryPrefix
	}

	if m.TopicPrefix == "" {
		m.TopicPrefix = DefaultTopicPrefix
	}

	if m.NodeID == "" {
		m.NodeID = DefaultNodeID
	}

	return nil
}

// BaseURL returns the base URL matching the configured URL type.
func (c *Config) BaseURL() string {
	if c.URLType == URLTypePublic {
		return c.PublicURL
	}

	return c.LocalURL
}

// Location resolves DefaultTimezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.DefaultTimezone == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(c.DefaultTimezone)
	if err != nil {
		return time.Local
	}

	return loc
}
