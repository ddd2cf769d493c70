package primitive

import (
	"context"
	"fmt"
	"sync"
	"time"

	"remotesync/internal/registry"
)

// Event is a one-bit flag that waiters block on until it is set.
type Event struct {
	mu     sync.Mutex
	set    bool
	signal chan struct{}
}

// NewEvent returns a cleared event.
func NewEvent() *Event {
	return &Event{signal: make(chan struct{})}
}

func (e *Event) Kind() registry.Kind { return registry.KindEvent }

// Set raises the flag and wakes all waiters.
func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		return
	}
	e.set = true
	close(e.signal)
}

// Clear lowers the flag.
func (e *Event) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		return
	}
	e.set = false
	e.signal = make(chan struct{})
}

// IsSet reports the current flag.
func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Wait blocks until the flag is set or the timeout expires and returns the
// flag value at that moment.
func (e *Event) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	e.mu.Lock()
	if e.set {
		e.mu.Unlock()
		return true, nil
	}
	signal := e.signal
	e.mu.Unlock()

	expired, stop := deadline(timeout)
	defer stop()
	select {
	case <-signal:
		return true, nil
	case <-expired:
		return e.IsSet(), nil
	case <-ctx.Done():
		return false, ErrClosed
	}
}

func (e *Event) Invoke(ctx context.Context, op string, args Args) (any, error) {
	switch op {
	case "set":
		e.Set()
		return nil, nil
	case "clear":
		e.Clear()
		return nil, nil
	case "is_set":
		return e.IsSet(), nil
	case "wait":
		timeout, err := args.Timeout(0)
		if err != nil {
			return nil, err
		}
		return e.Wait(ctx, timeout)
	case "repr":
		return fmt.Sprintf("<Event set=%t>", e.IsSet()), nil
	default:
		return nil, unknownOp(registry.KindEvent, op)
	}
}
