package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
)

// Result holds the captured outcome of one command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded reports whether the command exited with status zero.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// CommandRunner defines an interface for executing host CLI commands.
// Implementations run the full command string synchronously and capture
// its output. A non-zero exit status is data, not an error; errors are
// reserved for failures to run the command at all.
type CommandRunner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// ShellCommandRunner implements CommandRunner by spawning the host shell.
type ShellCommandRunner struct{}

// Run executes the command string with /bin/sh -c and captures its output.
func (ShellCommandRunner) Run(ctx context.Context, command string) (Result, error) {
	if command == "" {
		return Result{}, fmt.Errorf("no command provided")
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command) //nolint:gosec // command strings are composed by the manager

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			return Result{}, err
		}
	}

	return Result{
		Stdout:   stdoutBuf.String(),
		Stderr:   stderrBuf.String(),
		ExitCode: exitCode,
	}, nil
}
