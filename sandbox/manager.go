package sandbox

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSandboxUnavailable indicates that the container creation command did
// not succeed. It is the only error the lifecycle layer raises on its own;
// teardown is best-effort and command failures are returned as data.
var ErrSandboxUnavailable = errors.New("sandbox unavailable")

// returnCodeRe matches the status sentinel at the tail of exec output. The
// optional leading `\n` covers transports that escape line breaks; the
// trailing group captures the newline echo appends after the marker.
var returnCodeRe = regexp.MustCompile(`(?:\\n)?--return-(\d+)--(\n?)$`)

const (
	defaultRuntime     = "docker"
	defaultNamePrefix  = "dyn"
	defaultSettleDelay = 2 * time.Second
)

// NameGenerator produces the unique portion of a container name.
type NameGenerator func() string

// Config holds the parameters for one managed sandbox.
type Config struct {
	// Runtime is the container CLI binary, "docker" or "podman".
	Runtime string

	// Image is the container image the sandbox is started from. It may be
	// a local image or one pulled from a registry.
	Image string

	// NamePrefix is the human-readable prefix of the generated container name.
	NamePrefix string

	// TimeoutSec is how long the container lives after Start, in seconds.
	// The container runs /bin/sleep for this duration and exits on its own
	// if it is never stopped.
	TimeoutSec int

	// Privileged starts the container with elevated privileges.
	Privileged bool

	// CombineOutputs folds stderr of every executed command into stdout.
	CombineOutputs bool

	// SettleDelay is how long Stop waits before killing the container so
	// in-flight exec sessions can settle. Zero means the default of 2s.
	SettleDelay time.Duration
}

// Manager owns the identity and lifecycle of a single container sandbox
// and executes commands inside it. Each manager addresses exactly one
// container; the generated name is never reused across managers.
//
// Calls are synchronous and the manager does no locking of its own: the
// caller is responsible for not issuing overlapping operations against the
// same sandbox.
type Manager struct {
	logger         *zap.Logger
	runner         CommandRunner
	nameGen        NameGenerator
	runtime        string
	containerName  string
	image          string
	timeoutSec     int
	privileged     bool
	combineOutputs bool
	settleDelay    time.Duration
}

// Option defines a functional option for Manager.
type Option func(*Manager)

// WithCommandRunner sets the CommandRunner used to reach the container CLI.
func WithCommandRunner(runner CommandRunner) Option {
	return func(m *Manager) {
		m.runner = runner
	}
}

// WithNameGenerator sets the generator for the unique part of the container
// name, so tests can supply deterministic identifiers.
func WithNameGenerator(gen NameGenerator) Option {
	return func(m *Manager) {
		m.nameGen = gen
	}
}

// WithSettleDelay overrides the pause Stop takes before tearing the
// container down.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) {
		m.settleDelay = d
	}
}

// NewManager creates a manager for a single container sandbox. The
// container is named but not started; call Start (or use WithSandbox) to
// materialize it.
func NewManager(logger *zap.Logger, cfg *Config, opts ...Option) *Manager {
	m := &Manager{
		logger:         logger,
		runner:         ShellCommandRunner{},
		nameGen:        uuid.NewString,
		runtime:        cfg.Runtime,
		image:          cfg.Image,
		timeoutSec:     cfg.TimeoutSec,
		privileged:     cfg.Privileged,
		combineOutputs: cfg.CombineOutputs,
		settleDelay:    cfg.SettleDelay,
	}
	if m.runtime == "" {
		m.runtime = defaultRuntime
	}
	if m.settleDelay == 0 {
		m.settleDelay = defaultSettleDelay
	}

	for _, opt := range opts {
		opt(m)
	}

	prefix := cfg.NamePrefix
	if prefix == "" {
		prefix = defaultNamePrefix
	}
	m.containerName = prefix + "-" + m.nameGen()

	return m
}

// ContainerName returns the unique name addressing the managed container.
func (m *Manager) ContainerName() string {
	return m.containerName
}

// Start materializes the sandbox: it runs a detached container from the
// configured image that sleeps for the configured timeout. A creation
// failure is returned as ErrSandboxUnavailable.
func (m *Manager) Start(ctx context.Context) error {
	privilege := ""
	if m.privileged {
		privilege = "--privileged "
	}
	command := fmt.Sprintf("%s run -d %s--name %s %s /bin/sleep %d",
		m.runtime, privilege, m.containerName, m.image, m.timeoutSec)

	result, err := m.runner.Run(ctx, command)
	if err != nil {
		return fmt.Errorf("%w: starting the container failed: %v", ErrSandboxUnavailable, err)
	}
	if !result.Succeeded() {
		return fmt.Errorf("%w: %s run exited with status %d: %s",
			ErrSandboxUnavailable, m.runtime, result.ExitCode, strings.TrimSpace(result.Stderr))
	}

	m.logger.Info("sandbox started",
		zap.String("container", m.containerName),
		zap.String("image", m.image),
		zap.Int("timeout_sec", m.timeoutSec))
	return nil
}

// Stop tears the sandbox down. It pauses briefly so in-flight exec sessions
// can settle, then kills and removes the container by name. Teardown is
// best-effort: individual command failures are ignored, and stopping a
// sandbox that was never started is a no-op against the runtime.
func (m *Manager) Stop(ctx context.Context) {
	time.Sleep(m.settleDelay)

	if _, err := m.runner.Run(ctx, fmt.Sprintf("%s kill %s", m.runtime, m.containerName)); err != nil {
		m.logger.Debug("kill failed", zap.String("container", m.containerName), zap.Error(err))
	}
	if _, err := m.runner.Run(ctx, fmt.Sprintf("%s rm %s", m.runtime, m.containerName)); err != nil {
		m.logger.Debug("rm failed", zap.String("container", m.containerName), zap.Error(err))
	}

	m.logger.Info("sandbox stopped", zap.String("container", m.containerName))
}

// WithSandbox starts the manager's sandbox, runs fn against it, and always
// stops the sandbox afterwards. The error from fn (or from Start) is
// returned unmasked; teardown never swallows it.
func WithSandbox(ctx context.Context, m *Manager, fn func(*Manager) error) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Stop(ctx)
	return fn(m)
}

// Run executes the command inside the container via the runtime's exec
// channel, in the given working directory (sandbox home when empty).
//
// The exec payload is wrapped in single quotes, so single quotes in the
// user command are rewritten to double quotes to keep the composite
// invocation well-formed. A sentinel echoing the command's exit status is
// appended so the status survives the text-only transport; Run parses it
// back out and strips it, leaving the output byte-identical to what the
// command wrote. If the sentinel never makes it to the stream the
// transport's own result is returned as-is.
func (m *Manager) Run(ctx context.Context, command, workingDirectory string) (Result, error) {
	workingDirectory = ResolvePath(workingDirectory)
	command = strings.ReplaceAll(command, "'", `"`)

	inner := fmt.Sprintf("cd %s && %s", workingDirectory, command)
	if m.combineOutputs {
		inner += " 2>&1"
	}

	execCommand := fmt.Sprintf(`%s exec -i %s bash -c '%s ;  echo "--return-$?--"'`,
		m.runtime, m.containerName, inner)

	result, err := m.runner.Run(ctx, execCommand)
	if err != nil {
		return Result{}, err
	}

	if match := returnCodeRe.FindStringSubmatch(result.Stdout); match != nil {
		if code, convErr := strconv.Atoi(match[1]); convErr == nil {
			result.ExitCode = code
			// Strip the marker but keep the line break echo printed after
			// it, then drop exactly one trailing break: the kept break is
			// the injected one whenever the command's own output did not
			// end in a newline.
			out := result.Stdout[:len(result.Stdout)-len(match[0])] + match[2]
			result.Stdout = strings.TrimSuffix(out, "\n")
		}
	}

	return result, nil
}
