package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three failure classes surfaced to MCP callers.
// InvalidArgument is raised before any network I/O; NotFound and RemoteError
// come back from the controller.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRemote          = errors.New("remote error")
)

// RemoteError carries the HTTP status and controller-supplied message for a
// failed request. It matches ErrRemote (or ErrNotFound for 404s) under
// errors.Is.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("controller returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("controller returned %d", e.StatusCode)
}

func (e *RemoteError) Is(target error) bool {
	if target == ErrNotFound {
		return e.StatusCode == 404
	}
	return target == ErrRemote
}

func invalidArgumentf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidArgument}, args...)...)
}
