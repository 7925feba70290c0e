package sandbox

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/isdmx/dynbox/config"
)

// NewFromConfig builds a Manager from the application configuration.
// Docker and Podman expose the same CLI surface for run, exec, kill and rm,
// so runtime selection only decides which binary the composed commands
// invoke.
func NewFromConfig(logger *zap.Logger, cfg *config.Config, opts ...Option) (*Manager, error) {
	switch cfg.Sandbox.Runtime {
	case "docker", "podman":
	default:
		return nil, fmt.Errorf("unsupported sandbox.runtime: %s", cfg.Sandbox.Runtime)
	}

	return NewManager(logger, &Config{
		Runtime:        cfg.Sandbox.Runtime,
		Image:          cfg.Sandbox.Image,
		NamePrefix:     cfg.Sandbox.NamePrefix,
		TimeoutSec:     cfg.Sandbox.TimeoutSec,
		Privileged:     cfg.Sandbox.Privileged,
		CombineOutputs: cfg.Sandbox.CombineOutputs,
		SettleDelay:    time.Duration(cfg.Sandbox.SettleDelaySec) * time.Second,
	}, opts...), nil
}
