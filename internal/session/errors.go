package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNothingToDisconnect is returned by Disconnect when no session
	// configuration exists. Disconnect is deliberately not idempotent when
	// there is nothing to tear down.
	ErrNothingToDisconnect = errors.New("no session configuration found, nothing to disconnect")

	// ErrAborted is returned when the user declines a confirmation. No side
	// effects have happened when this is returned.
	ErrAborted = errors.New("aborted by user")

	// ErrRemoteRejected is the sentinel matched by RemoteRejectedError so
	// callers can use errors.Is without caring about the message.
	ErrRemoteRejected = errors.New("configuration request rejected by the remote service")

	// ErrLocked is returned when another live invocation holds the session lock.
	ErrLocked = errors.New("another tunlease invocation is already running")
)

// RemoteRejectedError carries the server-provided rejection message verbatim.
type RemoteRejectedError struct {
	Message string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("remote rejected request: %s", e.Message)
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}
