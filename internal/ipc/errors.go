package ipc

import (
	"errors"
	"fmt"

	"remotesync/internal/primitive"
)

var (
	// ErrAuthFailed reports a handshake where either side presented the wrong key.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrUnknownObject reports a name the host does not serve.
	ErrUnknownObject = errors.New("unknown object")
	// ErrNotExposed reports an operation outside the object's exposed set.
	ErrNotExposed = errors.New("operation not exposed")
)

const (
	codeUnknownObject = "unknown_object"
	codeNotExposed    = "not_exposed"
	codeRemote        = "remote"
)

// RemoteOperationError is a failure raised by a host-side object. Err holds
// the matching sentinel when the code is known, so errors.Is works across the
// connection.
type RemoteOperationError struct {
	Object  string
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *RemoteOperationError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Object, e.Op, e.Message)
}

func (e *RemoteOperationError) Unwrap() error {
	return e.Err
}

func toRemoteError(err error) *RemoteError {
	if err == nil {
		return nil
	}
	code := primitive.Code(err)
	switch {
	case code != "":
	case errors.Is(err, ErrUnknownObject):
		code = codeUnknownObject
	case errors.Is(err, ErrNotExposed):
		code = codeNotExposed
	default:
		code = codeRemote
	}
	return &RemoteError{Code: code, Message: err.Error()}
}

func sentinelFor(code string) error {
	if err := primitive.FromCode(code); err != nil {
		return err
	}
	switch code {
	case codeUnknownObject:
		return ErrUnknownObject
	case codeNotExposed:
		return ErrNotExposed
	}
	return nil
}

func fromRemoteError(object, op string, remote *RemoteError) error {
	if remote == nil {
		return nil
	}
	return &RemoteOperationError{
		Object:  object,
		Op:      op,
		Code:    remote.Code,
		Message: remote.Message,
		Err:     sentinelFor(remote.Code),
	}
}
