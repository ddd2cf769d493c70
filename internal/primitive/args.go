package primitive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"remotesync/internal/registry"
)

// NoTimeout disables the deadline on blocking operations.
const NoTimeout time.Duration = -1

// Object is a shared object owned by a host. Invoke runs one named operation;
// the result must be JSON-encodable.
type Object interface {
	registry.Tagged
	Invoke(ctx context.Context, op string, args Args) (any, error)
}

// Args holds positional operation arguments as raw JSON values.
type Args []json.RawMessage

// EncodeArgs marshals each value into a positional argument.
func EncodeArgs(values ...any) (Args, error) {
	args := make(Args, 0, len(values))
	for i, value := range values {
		raw, err := Encode(value)
		if err != nil {
			return nil, fmt.Errorf("encode argument %d: %w", i, err)
		}
		args = append(args, raw)
	}
	return args, nil
}

// Encode marshals v, passing raw JSON through untouched.
func Encode(v any) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		if !json.Valid(raw) {
			return nil, fmt.Errorf("%w: invalid JSON value", ErrBadArgs)
		}
		return bytes.Clone(raw), nil
	}
	return json.Marshal(v)
}

// Len reports the number of supplied arguments.
func (a Args) Len() int { return len(a) }

// Raw returns argument i. Missing and null arguments report false.
func (a Args) Raw(i int) (json.RawMessage, bool) {
	if i < 0 || i >= len(a) {
		return nil, false
	}
	raw := bytes.TrimSpace(a[i])
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return a[i], true
}

// Value returns argument i as a stored value. A missing argument is an error;
// an explicit null is kept.
func (a Args) Value(i int) (json.RawMessage, error) {
	if i < 0 || i >= len(a) {
		return nil, fmt.Errorf("%w: missing argument %d", ErrBadArgs, i)
	}
	return Encode(a[i])
}

// Decode unmarshals required argument i into v.
func (a Args) Decode(i int, v any) error {
	raw, ok := a.Raw(i)
	if !ok {
		return fmt.Errorf("%w: missing argument %d", ErrBadArgs, i)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: argument %d: %v", ErrBadArgs, i, err)
	}
	return nil
}

// String decodes required argument i as a string.
func (a Args) String(i int) (string, error) {
	var s string
	err := a.Decode(i, &s)
	return s, err
}

// Bool decodes optional argument i, falling back to def.
func (a Args) Bool(i int, def bool) (bool, error) {
	if _, ok := a.Raw(i); !ok {
		return def, nil
	}
	var b bool
	err := a.Decode(i, &b)
	return b, err
}

// Timeout decodes optional argument i as seconds. Missing, null, and negative
// values yield NoTimeout.
func (a Args) Timeout(i int) (time.Duration, error) {
	if _, ok := a.Raw(i); !ok {
		return NoTimeout, nil
	}
	var seconds float64
	if err := a.Decode(i, &seconds); err != nil {
		return NoTimeout, err
	}
	if seconds < 0 {
		return NoTimeout, nil
	}
	if seconds >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64), nil
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// Seconds converts a timeout into the wire representation.
func Seconds(timeout time.Duration) float64 {
	if timeout < 0 {
		return -1
	}
	return timeout.Seconds()
}

func deadline(timeout time.Duration) (<-chan time.Time, func()) {
	if timeout < 0 {
		return nil, func() {}
	}
	timer := time.NewTimer(timeout)
	return timer.C, func() { timer.Stop() }
}
