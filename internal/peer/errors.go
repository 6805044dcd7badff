package peer

import (
	"errors"
	"fmt"
)

var (
	ErrNoRemoteDescription = errors.New("no remote description installed")
	ErrSessionClosed       = errors.New("session closed")
	ErrChannelNotOpen      = errors.New("data channel not open")
	ErrUnexpectedSignal    = errors.New("unexpected signal type")
	ErrPeerDisconnected    = errors.New("peer disconnected")
)

// SessionError wraps a session failure with the operation that caused it.
type SessionError struct {
	Op      string
	Err     error
	Details string
}

func (e *SessionError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %v (%s)", e.Op, e.Err, e.Details)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

func NewError(op string, err error) *SessionError {
	return &SessionError{Op: op, Err: err}
}

func WrapError(op string, err error, details string) *SessionError {
	return &SessionError{Op: op, Err: err, Details: details}
}
