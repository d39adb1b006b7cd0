package config

import (
	"fmt"
	"os"

	"gateway-stream/src/helpers"
	"gateway-stream/src/models"

	"gopkg.in/yaml.v3"
)

// Defaults applied to keys left out of the YAML file.
const (
	DefaultConnectTimeout = 10 // seconds
	DefaultRetries        = 3
	DefaultChannelBuffer  = 64
	DefaultRetentionDays  = 30
	DefaultCalendarMIC    = "XNYS"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.CalendarMIC == "" {
		c.CalendarMIC = DefaultCalendarMIC
	}
	if c.Gateway.ConnectTimeout == 0 {
		c.Gateway.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Gateway.MaxRetries == 0 {
		c.Gateway.MaxRetries = DefaultRetries
	}
	if c.Gateway.ChannelBuffer == 0 {
		c.Gateway.ChannelBuffer = DefaultChannelBuffer
	}
	if c.Storage.RetentionDays == 0 {
		c.Storage.RetentionDays = DefaultRetentionDays
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return helpers.NewConfigurationError("application name cannot be empty")
	}

	// Gateway
	if c.Gateway.Host == "" {
		return helpers.NewConfigurationError("gateway host cannot be empty")
	}
	if c.Gateway.Port <= 0 || c.Gateway.Port > 65535 {
		return helpers.NewConfigurationError("invalid gateway port number: %d", c.Gateway.Port)
	}
	if c.Gateway.ClientID < 0 {
		return helpers.NewConfigurationError("client id cannot be negative")
	}
	if c.Gateway.ConnectTimeout < 0 {
		return helpers.NewConfigurationError("connect timeout cannot be negative")
	}
	if c.Gateway.MaxRetries < 0 {
		return helpers.NewConfigurationError("retries cannot be negative")
	}
	if c.Gateway.ChannelBuffer < 0 {
		return helpers.NewConfigurationError("channel buffer cannot be negative")
	}

	// Storage is optional
	switch c.Storage.DBType {
	case "":
	case "sqlite":
		if c.Storage.DBPath == "" {
			return helpers.NewConfigurationError("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return helpers.NewConfigurationError("connection string cannot be empty for postgres")
		}
	default:
		return helpers.NewConfigurationError("unsupported database type: %s", c.Storage.DBType)
	}
	if c.Storage.RetentionDays < 0 {
		return helpers.NewConfigurationError("retention days cannot be negative")
	}

	// Relay
	if c.Relay.Port != 0 && (c.Relay.Port <= 1024 || c.Relay.Port > 65535) {
		return helpers.NewConfigurationError("invalid relay port number: %d (must be between 1025 and 65535)", c.Relay.Port)
	}

	return nil
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
