package errsystem

import (
	"fmt"

	"github.com/google/uuid"
)

type errorType struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes surfaced to the user. The code is stable so it can be
// referenced in bug reports; the message is the default user-facing text.
var (
	ErrAllEndpointsFailed   = errorType{"TL-0001", "None of the configuration endpoints could be reached"}
	ErrRemoteRejected       = errorType{"TL-0002", "The configuration service rejected the request"}
	ErrDriverActivation     = errorType{"TL-0003", "The tunnel driver failed to bring the tunnel up"}
	ErrNothingToDisconnect  = errorType{"TL-0004", "There is no active session to disconnect"}
	ErrSessionLocked        = errorType{"TL-0005", "Another invocation is already operating on this machine"}
	ErrWriteConfiguration   = errorType{"TL-0006", "Unable to write the tunnel configuration file"}
	ErrPrivilegesMissing    = errorType{"TL-0007", "Elevated privileges for the tunnel driver are not set up"}
	ErrInteractiveRequired  = errorType{"TL-0008", "This command needs an interactive terminal or the --yes flag"}
	ErrInvalidArguments     = errorType{"TL-0009", "The command arguments are invalid"}
	ErrInterfaceEnumeration = errorType{"TL-0010", "Unable to enumerate tunnel network interfaces"}
)

type errSystem struct {
	id         string
	code       errorType
	message    string
	err        error
	attributes map[string]any
}

type option func(*errSystem)

// New creates a new error.
func New(code errorType, err error, opts ...option) *errSystem {
	res := &errSystem{
		id:         uuid.New().String(),
		err:        err,
		code:       code,
		attributes: make(map[string]any),
	}
	for _, opt := range opts {
		opt(res)
	}
	return res
}

func (e *errSystem) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.err.Error())
}

// WithUserMessage adds a user-friendly message to the error.
func WithUserMessage(message string, args ...any) option {
	return func(e *errSystem) {
		e.message = fmt.Sprintf(message, args...)
	}
}

// WithAttributes adds additional metadata attributes to the error.
func WithAttributes(attributes map[string]any) option {
	return func(e *errSystem) {
		for k, v := range attributes {
			e.attributes[k] = v
		}
	}
}

// WithContextMessage adds some internal context that can help with debugging.
func WithContextMessage(message string) option {
	return func(e *errSystem) {
		e.attributes["message"] = message
	}
}
