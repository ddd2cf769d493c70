package session

import (
	"errors"
	"fmt"

	"remotesync/internal/ipc"
)

// Error kinds reported by ErrorKind.
const (
	KindConfiguration = "configuration"
	KindDescriptorIO  = "descriptor_io"
	KindConnection    = "connection"
	KindRemote        = "remote"
)

// RemoteOperationError is a failure raised by the host's real object.
type RemoteOperationError = ipc.RemoteOperationError

// ErrorClassifier lets errors declare their taxonomy entry.
type ErrorClassifier interface {
	ErrorKind() string
}

// ConfigurationError reports a host constructed with an unusable object list.
type ConfigurationError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "session configuration"
	if e.Name != "" {
		msg += fmt.Sprintf(" (object %q)", e.Name)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *ConfigurationError) ErrorKind() string { return KindConfiguration }

// DescriptorIOError reports a descriptor that could not be written, read, or
// decoded.
type DescriptorIOError struct {
	Path string
	Op   string
	Err  error
}

func (e *DescriptorIOError) Error() string {
	return fmt.Sprintf("descriptor %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DescriptorIOError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *DescriptorIOError) ErrorKind() string { return KindDescriptorIO }

// ConnectionError reports a host that could not be reached, rejected the key,
// or is not the host run the descriptor was written for.
type ConnectionError struct {
	Address string
	Reason  string
	Err     error
}

func (e *ConnectionError) Error() string {
	msg := "connect " + e.Address
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ErrorKind implements ErrorClassifier.
func (e *ConnectionError) ErrorKind() string { return KindConnection }

// ErrStaleDescriptor reports a descriptor written by an earlier host run.
var ErrStaleDescriptor = errors.New("descriptor belongs to a different host session")

// ErrNoSuchObject reports a name the session did not bind.
var ErrNoSuchObject = errors.New("no such shared object")

// ErrWrongKind reports a typed accessor used on a name of another kind.
var ErrWrongKind = errors.New("shared object has a different kind")

// ErrClosed reports use of a session after Close.
var ErrClosed = errors.New("session closed")

// Classify returns the taxonomy entry for err, or "" when err is not one of
// the session errors.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	var remote *RemoteOperationError
	if errors.As(err, &remote) {
		return KindRemote
	}
	return ""
}
