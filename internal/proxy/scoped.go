package proxy

import (
	"encoding/json"
	"errors"
	"fmt"

	"remotesync/internal/registry"
)

// ErrNotAcquired reports an acquire operation that returned false.
var ErrNotAcquired = errors.New("acquire returned false")

// Scoped adds scoped acquisition to a handle whose proxy only forwards the
// individual acquire and release operations.
type Scoped struct {
	Handle
	caller  Caller
	binding registry.Binding
}

// Bind wraps inner so that With and Enter/Exit drive the named operations.
func Bind(caller Caller, inner Handle, binding registry.Binding) (*Scoped, error) {
	if inner == nil {
		return nil, errors.New("scoped binding requires a handle")
	}
	if binding.Acquire == "" || binding.Release == "" {
		return nil, fmt.Errorf("scoped binding for %q needs both acquire and release", inner.Name())
	}
	return &Scoped{Handle: inner, caller: caller, binding: binding}, nil
}

// Binding reports the bound operation names.
func (s *Scoped) Binding() registry.Binding {
	return s.binding
}

// Inner returns the wrapped handle.
func (s *Scoped) Inner() Handle {
	return s.Handle
}

// Enter runs the acquire operation.
func (s *Scoped) Enter() error {
	var result json.RawMessage
	if err := s.caller.Call(s.Name(), s.binding.Acquire, nil, &result); err != nil {
		return err
	}
	if string(result) == "false" {
		return fmt.Errorf("%s.%s: %w", s.Name(), s.binding.Acquire, ErrNotAcquired)
	}
	return nil
}

// Exit runs the release operation.
func (s *Scoped) Exit() error {
	return s.caller.Call(s.Name(), s.binding.Release, nil, nil)
}

// With acquires, runs fn, and releases exactly once however fn exits,
// including by panic. A failed acquire runs neither fn nor release. A release
// failure is returned only when fn itself succeeded.
func (s *Scoped) With(fn func() error) (err error) {
	if err := s.Enter(); err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.Exit(); releaseErr != nil && err == nil {
			err = releaseErr
		}
	}()
	return fn()
}
