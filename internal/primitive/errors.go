package primitive

import (
	"errors"
	"fmt"

	"remotesync/internal/registry"
)

// Failures raised by shared objects. They cross the wire as codes so callers
// on either side of a session can match them with errors.Is.
var (
	ErrKeyNotFound  = errors.New("key not found")
	ErrAttrNotFound = errors.New("attribute not found")
	ErrEmpty        = errors.New("queue empty")
	ErrFull         = errors.New("queue full")
	ErrNotLocked    = errors.New("release of unlocked lock")
	ErrUnknownOp    = errors.New("unknown operation")
	ErrBadArgs      = errors.New("invalid arguments")
	ErrClosed       = errors.New("object closed")
)

var errorCodes = []struct {
	code string
	err  error
}{
	{"key_not_found", ErrKeyNotFound},
	{"attr_not_found", ErrAttrNotFound},
	{"empty", ErrEmpty},
	{"full", ErrFull},
	{"not_locked", ErrNotLocked},
	{"unknown_op", ErrUnknownOp},
	{"bad_args", ErrBadArgs},
	{"closed", ErrClosed},
}

// Code returns the wire code for err, or "" when err is not a known failure.
func Code(err error) string {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			return entry.code
		}
	}
	return ""
}

// FromCode maps a wire code back to its sentinel. Unknown codes return nil.
func FromCode(code string) error {
	for _, entry := range errorCodes {
		if entry.code == code {
			return entry.err
		}
	}
	return nil
}

func unknownOp(kind registry.Kind, op string) error {
	return fmt.Errorf("%w: %s.%s", ErrUnknownOp, kind, op)
}
