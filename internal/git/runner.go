package git

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strings"

	apperrors "github.com/five82/slayergit/internal/errors"
)

// Executor creates exec.Cmd instances. Tests substitute it to control the
// environment a command runs in without touching production code.
type Executor interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production Executor backed by os/exec.
type RealExecutor struct{}

// CommandContext creates a standard context-aware exec.Cmd.
func (RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// runner executes git subcommands against one repository.
type runner struct {
	binary string
	dir    string
	exec   Executor
}

// run executes git with args and returns stdout. Failures carry stderr in
// the error details.
func (r *runner) run(ctx context.Context, args ...string) (string, error) {
	full := append([]string{"-C", r.dir}, args...)
	cmd := r.exec.CommandContext(ctx, r.binary, full...) //nolint:gosec // args are built internally
	// Read-only commands must not take index.lock; the watcher would see it.
	cmd.Env = append(os.Environ(), "GIT_OPTIONAL_LOCKS=0", "LC_ALL=C", "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderrors.Is(err, exec.ErrNotFound) {
			return "", apperrors.GitNotInstalled(r.binary, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return stdout.String(), apperrors.CommandFailed("git "+strings.Join(args, " "), err).
			WithDetail("stderr", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// stderrOf returns the captured stderr of a failed command, if any.
func stderrOf(err error) string {
	var coded *apperrors.Error
	if !stderrors.As(err, &coded) {
		return ""
	}
	s, _ := coded.Details["stderr"].(string)
	return s
}
