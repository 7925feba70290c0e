// Package sandbox manages ephemeral container sandboxes.
//
// The sandbox package owns the lifecycle of a single named container and
// runs arbitrary shell commands inside it through the container runtime's
// exec channel. The exec channel is a plain text stream with no structured
// way to report a command's exit status, so the Manager injects a status
// sentinel into every composed command and parses it back out of the
// output stream.
//
// On top of the execution engine the package synthesizes filesystem
// introspection (existence checks, file and directory listing) purely from
// shell primitives.
//
// Usage:
//
//	mgr := sandbox.NewManager(logger, &sandbox.Config{Image: "ubuntu"})
//	err := sandbox.WithSandbox(ctx, mgr, func(m *sandbox.Manager) error {
//	    result, err := m.Run(ctx, "make test", "project")
//	    ...
//	})
package sandbox
