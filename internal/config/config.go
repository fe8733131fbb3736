// Package config loads the backend configuration. Settings come from a
// YAML file plus ONYX_-prefixed environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the recognized configuration surface.
type Config struct {
	// TenancyID isolates one cluster instance's subtree. Required.
	TenancyID string `mapstructure:"tenancy-id"`

	// Address is the coordination-service connect string.
	Address string `mapstructure:"address"`

	// Server controls the embedded testing server.
	Server ServerConfig `mapstructure:"server"`

	// SubscriberBufferSize is the output-channel buffer handed to
	// subscribers created through the facade.
	SubscriberBufferSize int `mapstructure:"subscriber-buffer-size"`

	// NATSURL, when set, enables JetStream publishing of monitoring
	// events.
	NATSURL string `mapstructure:"nats-url"`

	// SessionTimeoutMS is the coordination-service session timeout.
	SessionTimeoutMS int `mapstructure:"session-timeout-ms"`
}

type ServerConfig struct {
	// Enabled starts a disposable ZooKeeper server in a container
	// (internal/zkserver) and targets it instead of Address. No server
	// runs in-process.
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

func setDefaults(v *viper.Viper) {
	// Every key gets a default so environment-only overrides survive
	// Unmarshal.
	v.SetDefault("tenancy-id", "")
	v.SetDefault("nats-url", "")
	v.SetDefault("server.enabled", false)
	v.SetDefault("address", "127.0.0.1:2181")
	v.SetDefault("server.port", 2181)
	v.SetDefault("subscriber-buffer-size", 1000)
	v.SetDefault("session-timeout-ms", 10000)
}

// Default returns a config of pure defaults plus environment overrides
// (ONYX_TENANCY_ID and friends). It is not validated; callers fill in the
// rest and call Validate themselves.
func Default() (*Config, error) {
	return load("")
}

// Load reads the config file at path, layered over defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("onyx")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.TenancyID == "" {
		return fmt.Errorf("config: tenancy-id is required")
	}
	if !c.Server.Enabled && c.Address == "" {
		return fmt.Errorf("config: address is required unless the embedded server is enabled")
	}
	return nil
}
