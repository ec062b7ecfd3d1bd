package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks format validations and defaults for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Defaults.
	settings := new(Config)

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultHTTPAddress, settings.HTTPAddress)
	require.Equal(t, DefaultRefreshSchedule, settings.RefreshSchedule)
	require.Equal(t, DefaultStateFilename, settings.StateFile)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, URLTypeLocal, settings.URLType)
	require.False(t, settings.MQTT.Enabled())

	// Bad socket.
	require.Error(t, Validate(&Config{HTTPAddress: "bad:address"}))
	require.Error(t, Validate(&Config{GRPCAddress: "bad:address"}))

	// Bad schedule.
	require.Error(t, Validate(&Config{RefreshSchedule: "every now and then"}))

	// Bad timezone.
	require.Error(t, Validate(&Config{DefaultTimezone: "Mars/Olympus_Mons"}))

	// Bad URL type and URL.
	require.Error(t, Validate(&Config{URLType: "intranet"}))
	require.Error(t, Validate(&Config{LocalURL: "not a url"}))

	require.Error(t, Validate(nil))
}

// TestValidate_MQTTDefaults ensures MQTT defaults apply once a broker is set.
func TestValidate_MQTTDefaults(t *testing.T) {
	t.Parallel()

	settings := &Config{MQTT: MQTT{Broker: "tcp://127.0.0.1:1883"}}

	require.NoError(t, Validate(settings))
	require.True(t, settings.MQTT.Enabled())
	require.Equal(t, DefaultMQTTClientID, settings.MQTT.ClientID)
	require.Equal(t, DefaultDiscoveryPrefix, settings.MQTT.DiscoveryPrefix)
	require.Equal(t, DefaultTopicPrefix, settings.MQTT.TopicPrefix)
	require.Equal(t, DefaultNodeID, settings.MQTT.NodeID)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		HTTPAddress:     "127.0.0.1:8123",
		GRPCAddress:     "127.0.0.1:50051",
		WebhookID:       "9f1c2a4e-1111-4b7a-9c55-0123456789ab",
		URLType:         URLTypePublic,
		PublicURL:       "https://home.example.com",
		DefaultTimezone: "Europe/Berlin",
		Timeout:         3 * time.Second,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.HTTPAddress, loaded.HTTPAddress)
	require.Equal(t, settings.WebhookID, loaded.WebhookID)
	require.Equal(t, settings.Timeout, loaded.Timeout)
	require.Equal(t, "https://home.example.com", loaded.BaseURL())
	require.Equal(t, "Europe/Berlin", loaded.Location().String())

	// File exists with restricted permissions.
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadOrDefault returns defaults for a missing file and errors for a broken one.
func TestLoadOrDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := LoadOrDefault(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultHTTPAddress, cfg.HTTPAddress)
	require.Equal(t, time.Local, cfg.Location())

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("http_addr: [oops"), DefaultFilePermissions))

	_, err = LoadOrDefault(broken)
	require.Error(t, err)
}
