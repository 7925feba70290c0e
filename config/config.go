package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// SandboxConfig holds the parameters of the managed container sandbox
type SandboxConfig struct {
	Runtime        string `mapstructure:"runtime"`
	Image          string `mapstructure:"image"`
	NamePrefix     string `mapstructure:"name_prefix"`
	TimeoutSec     int    `mapstructure:"timeout_sec"`
	Privileged     bool   `mapstructure:"privileged"`
	CombineOutputs bool   `mapstructure:"combine_outputs"`
	SettleDelaySec int    `mapstructure:"settle_delay_sec"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("sandbox.runtime", "docker")
	viper.SetDefault("sandbox.image", "ubuntu")
	viper.SetDefault("sandbox.name_prefix", "dyn")
	viper.SetDefault("sandbox.timeout_sec", 3600)
	viper.SetDefault("sandbox.privileged", false)
	viper.SetDefault("sandbox.combine_outputs", false)
	viper.SetDefault("sandbox.settle_delay_sec", 2)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Sandbox.Runtime != "docker" && c.Sandbox.Runtime != "podman" {
		return fmt.Errorf("unsupported sandbox.runtime: %s, must be 'docker' or 'podman'", c.Sandbox.Runtime)
	}

	if c.Sandbox.Image == "" {
		return fmt.Errorf("sandbox.image must not be empty")
	}

	if c.Sandbox.NamePrefix == "" {
		return fmt.Errorf("sandbox.name_prefix must not be empty")
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.SettleDelaySec < 0 {
		return fmt.Errorf("sandbox.settle_delay_sec must not be negative, got: %d", c.Sandbox.SettleDelaySec)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error", "dpanic", "panic", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// GetTimeout returns the sandbox self-destruct timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}
