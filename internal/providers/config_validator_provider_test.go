package providers

import (
	"appero/internal/structures"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *structures.Config {
	return &structures.Config{
		Api: structures.ApiConfig{
			BaseURL: "https://app.appero.co.uk/api/v1",
			Key:     "key",
			Timeout: 10 * time.Second,
		},
		WebServer: structures.Server{
			Host: "127.0.0.1",
			Port: 8710,
		},
		Persistence: structures.Persistence{
			FilePath: "/tmp/appero/state.json",
		},
		Logger: structures.LoggerConfig{
			Level: "info",
			Mode:  0644,
			Dir:   "/tmp/logs",
		},
		Sync: structures.SyncConfig{
			RetryInterval: 3 * time.Minute,
		},
	}
}

func TestConfigValidator_ValidConfig(t *testing.T) {
	v := NewCnfValidator(validConfig())
	assert.NoError(t, v.Validate())
}

func TestConfigValidator_EmptyHost(t *testing.T) {
	c := validConfig()
	c.WebServer.Host = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ZeroPort(t *testing.T) {
	c := validConfig()
	c.WebServer.Port = 0
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_MissingApiKey(t *testing.T) {
	c := validConfig()
	c.Api.Key = ""
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_InvalidLogLevel(t *testing.T) {
	c := validConfig()
	c.Logger.Level = "verbose"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())
}

func TestConfigValidator_ProbeWithoutInterval(t *testing.T) {
	c := validConfig()
	c.Connectivity.ProbeAddr = "app.appero.co.uk:443"
	v := NewCnfValidator(c)
	assert.Error(t, v.Validate())

	c.Connectivity.ProbeInterval = 30 * time.Second
	assert.NoError(t, v.Validate())
}
