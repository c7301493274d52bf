package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a fully valid configuration for testing.
func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "quotesync",
			Version:     "1.0.0",
			Environment: "local",
		},
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxRequestSize:  DefaultMaxRequestSize,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Client: ClientConfig{
			Timeout: 10 * time.Second,
			Retry: RetryConfig{
				MaxAttempts:     1,
				InitialInterval: 100 * time.Millisecond,
				MaxInterval:     2 * time.Second,
				Multiplier:      2.0,
				JitterFactor:    0.25,
			},
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures:   5,
				Timeout:       60 * time.Second,
				HalfOpenLimit: 1,
			},
			Transport: TransportConfig{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Services: ServicesConfig{
			Quotes: ServiceEndpointConfig{
				BaseURL: "https://jsonplaceholder.typicode.com",
				Path:    "/posts",
				Name:    "jsonplaceholder",
			},
		},
		Storage: StorageConfig{
			Driver: StorageSQLite,
			Path:   "./data/quotes.db",
		},
		Sync: SyncConfig{
			Enabled:        true,
			Interval:       30 * time.Second,
			BatchLimit:     5,
			CaseSensitive:  true,
			ConflictPolicy: "remote_wins",
			RunOnStart:     true,
		},
	}
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_Fields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
		reason string
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }, "app.name", "is required"},
		{"bad environment", func(c *Config) { c.App.Environment = "staging" }, "app.environment", "must be one of"},
		{"port too high", func(c *Config) { c.Server.Port = 65536 }, "server.port", "at most"},
		{"short read timeout", func(c *Config) { c.Server.ReadTimeout = 500 * time.Millisecond }, "server.read_timeout", "at least"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level", "must be one of"},
		{"log file without path", func(c *Config) { c.Log.File = LogFileConfig{Enabled: true} }, "log.file.path", "required when"},
		{"telemetry without endpoint", func(c *Config) {
			c.Telemetry = TelemetryConfig{Enabled: true, ServiceName: "quotesync"}
		}, "telemetry.endpoint", "required when"},
		{"sampling rate above one", func(c *Config) { c.Telemetry.SamplingRate = 1.5 }, "telemetry.sampling_rate", "at most"},
		{"zero retry attempts", func(c *Config) { c.Client.Retry.MaxAttempts = 0 }, "client.retry.max_attempts", "is required"},
		{"small multiplier", func(c *Config) { c.Client.Retry.Multiplier = 1.0 }, "client.retry.multiplier", "at least"},
		{"zero half open limit", func(c *Config) { c.Client.CircuitBreaker.HalfOpenLimit = 0 }, "client.circuit_breaker.half_open_limit", "is required"},
		{"bad base url", func(c *Config) { c.Services.Quotes.BaseURL = "not a url" }, "services.quotes.base_url", "valid URL"},
		{"relative path", func(c *Config) { c.Services.Quotes.Path = "posts" }, "services.quotes.path", "must start with"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver", "must be one of"},
		{"sqlite without path", func(c *Config) { c.Storage.Path = "" }, "storage.path", "required unless"},
		{"short interval", func(c *Config) { c.Sync.Interval = 100 * time.Millisecond }, "sync.interval", "at least"},
		{"zero batch limit", func(c *Config) { c.Sync.BatchLimit = 0 }, "sync.batch_limit", "is required"},
		{"unknown policy", func(c *Config) { c.Sync.ConflictPolicy = "local_wins" }, "sync.conflict_policy", "must be one of"},
		{"inbox without dir", func(c *Config) { c.Inbox = InboxConfig{Enabled: true} }, "inbox.dir", "required when"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestConfig_Validate_MemoryStorageNeedsNoPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage = StorageConfig{Driver: StorageMemory}

	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_AcceptedValues(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Log.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}

	for _, format := range []string{"json", "text", "pretty"} {
		cfg := validConfig()
		cfg.Log.Format = format
		assert.NoError(t, cfg.Validate(), format)
	}

	for _, policy := range []string{"remote_wins", "skip"} {
		cfg := validConfig()
		cfg.Sync.ConflictPolicy = policy
		assert.NoError(t, cfg.Validate(), policy)
	}
}

func TestConfig_Validate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.App.Name = ""
	cfg.Sync.BatchLimit = 500

	err := cfg.Validate()
	require.Error(t, err)

	assert.Contains(t, err.Error(), "config validation failed")
	assert.Contains(t, err.Error(), "app.name")
	assert.Contains(t, err.Error(), "sync.batch_limit must be at most 100")
}

func TestFormatFieldPath(t *testing.T) {
	tests := []struct {
		namespace string
		expected  string
	}{
		{"Config.server.port", "server.port"},
		{"Config.sync.conflict_policy", "sync.conflict_policy"},
		{"Config.Client.Retry.MaxAttempts", "client.retry.maxattempts"},
		{"port", "port"},
	}

	for _, tt := range tests {
		t.Run(tt.namespace, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatFieldPath(tt.namespace))
		})
	}
}
