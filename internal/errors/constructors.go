package errors

import (
	stderrors "errors"
	"fmt"
	"os/exec"
	"time"
)

// FetchFailed creates an error for a backend fetch that failed for one kind.
func FetchFailed(kind string, cause error) *Error {
	return Wrap(cause, ErrCodeFetchFailed, fmt.Sprintf("fetch %s failed", kind)).
		WithDetail("kind", kind)
}

// FetchTimeout creates an error for a fetch that did not settle in time.
func FetchTimeout(kind string, timeout time.Duration) *Error {
	return New(ErrCodeFetchTimeout,
		fmt.Sprintf("fetch %s did not finish within %s", kind, timeout)).
		WithDetail("kind", kind).
		WithDetail("timeout", timeout.String())
}

// ObserverFailed creates an error for a listener callback that failed or panicked.
func ObserverFailed(name string, cause error) *Error {
	return Wrap(cause, ErrCodeObserverFailed, fmt.Sprintf("observer %q failed", name)).
		WithDetail("observer", name)
}

// RefreshConflict creates the error returned to a rejected refresh request.
func RefreshConflict(inFlight string) *Error {
	return New(ErrCodeRefreshConflict, "a refresh is already in progress").
		WithDetail("inFlight", inFlight)
}

// InvalidRequest creates an error for a malformed refresh request.
func InvalidRequest(reason string) *Error {
	return New(ErrCodeInvalidRequest, fmt.Sprintf("invalid refresh request: %s", reason))
}

// CoordinatorStopped creates the error returned once the refresh loop has exited.
func CoordinatorStopped(cause error) *Error {
	return Wrap(cause, ErrCodeCoordinatorStopped, "refresh coordinator is not running")
}

// ConfigInvalid creates an invalid configuration error.
func ConfigInvalid(reason string) *Error {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// NotARepository creates an error for a path outside any git work tree.
func NotARepository(path string) *Error {
	return New(ErrCodeNotARepository, fmt.Sprintf("not a git repository: %s", path)).
		WithDetail("path", path)
}

// GitNotInstalled creates an error for a missing git executable.
func GitNotInstalled(binary string, cause error) *Error {
	return Wrap(cause, ErrCodeGitNotInstalled, fmt.Sprintf("git executable %q not found", binary)).
		WithDetail("binary", binary)
}

// CommandFailed creates a command execution failure error.
func CommandFailed(cmd string, cause error) *Error {
	err := Wrap(cause, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	var exitErr *exec.ExitError
	if stderrors.As(cause, &exitErr) {
		err = err.WithDetail("exitCode", exitErr.ExitCode())
	}
	return err
}
