package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport: "stdio",
			HTTPPort:  8080,
		},
		Sandbox: SandboxConfig{
			Runtime:        "docker",
			Image:          "ubuntu",
			NamePrefix:     "dyn",
			TimeoutSec:     3600,
			Privileged:     false,
			CombineOutputs: false,
			SettleDelaySec: 2,
		},
		Logging: LoggingConfig{
			Mode:  "production",
			Level: "info",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	t.Run("ValidConfig", func(t *testing.T) {
		cfg := validConfig()
		require.NoError(t, cfg.validate())
	})

	t.Run("InvalidServerTransport", func(t *testing.T) {
		cfg := validConfig()
		cfg.Server.Transport = "grpc"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid server.transport")
	})

	t.Run("UnsupportedRuntime", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.Runtime = "lxc"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported sandbox.runtime")
	})

	t.Run("EmptyImage", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.Image = ""

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.image")
	})

	t.Run("EmptyNamePrefix", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.NamePrefix = ""

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.name_prefix")
	})

	t.Run("InvalidTimeout", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.TimeoutSec = 0

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.timeout_sec must be positive")
	})

	t.Run("NegativeSettleDelay", func(t *testing.T) {
		cfg := validConfig()
		cfg.Sandbox.SettleDelaySec = -1

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sandbox.settle_delay_sec")
	})

	t.Run("InvalidLoggingMode", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Mode = "verbose"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.mode")
	})

	t.Run("InvalidLogLevel", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "loud"

		err := cfg.validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid logging.level")
	})
}

func TestConfigNew(t *testing.T) {
	t.Run("DefaultsWithoutConfigFile", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "stdio", cfg.Server.Transport)
		assert.Equal(t, "docker", cfg.Sandbox.Runtime)
		assert.Equal(t, "ubuntu", cfg.Sandbox.Image)
		assert.Equal(t, "dyn", cfg.Sandbox.NamePrefix)
		assert.Equal(t, 3600, cfg.Sandbox.TimeoutSec)
		assert.False(t, cfg.Sandbox.Privileged)
		assert.False(t, cfg.Sandbox.CombineOutputs)
		assert.Equal(t, "production", cfg.Logging.Mode)
	})

	t.Run("LoadsConfigFile", func(t *testing.T) {
		viper.Reset()
		dir := t.TempDir()

		raw, err := yaml.Marshal(map[string]any{
			"sandbox": map[string]any{
				"runtime":         "podman",
				"image":           "fedora:41",
				"name_prefix":     "ci",
				"timeout_sec":     120,
				"privileged":      true,
				"combine_outputs": true,
			},
			"logging": map[string]any{
				"mode":  "development",
				"level": "debug",
			},
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o600))
		t.Chdir(dir)

		cfg, err := New()
		require.NoError(t, err)
		assert.Equal(t, "podman", cfg.Sandbox.Runtime)
		assert.Equal(t, "fedora:41", cfg.Sandbox.Image)
		assert.Equal(t, "ci", cfg.Sandbox.NamePrefix)
		assert.Equal(t, 120, cfg.Sandbox.TimeoutSec)
		assert.True(t, cfg.Sandbox.Privileged)
		assert.True(t, cfg.Sandbox.CombineOutputs)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, 2*time.Minute, cfg.GetTimeout())
	})

	t.Run("RejectsInvalidConfigFile", func(t *testing.T) {
		viper.Reset()
		dir := t.TempDir()

		raw, err := yaml.Marshal(map[string]any{
			"sandbox": map[string]any{"runtime": "lxc"},
		})
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o600))
		t.Chdir(dir)

		_, err = New()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config validation error")
	})
}
