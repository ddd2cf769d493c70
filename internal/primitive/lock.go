package primitive

import (
	"context"
	"time"

	"remotesync/internal/registry"
)

// Lock is a mutual-exclusion lock that any holder may release, including one
// on a different connection from the acquirer.
type Lock struct {
	slot chan struct{}
}

// NewLock returns an unlocked lock.
func NewLock() *Lock {
	return &Lock{slot: make(chan struct{}, 1)}
}

func (l *Lock) Kind() registry.Kind { return registry.KindLock }

// Acquire takes the lock. Non-blocking calls and expired timeouts report
// false. A canceled ctx reports ErrClosed.
func (l *Lock) Acquire(ctx context.Context, blocking bool, timeout time.Duration) (bool, error) {
	if !blocking {
		select {
		case l.slot <- struct{}{}:
			return true, nil
		default:
			return false, nil
		}
	}
	expired, stop := deadline(timeout)
	defer stop()
	select {
	case l.slot <- struct{}{}:
		return true, nil
	case <-expired:
		return false, nil
	case <-ctx.Done():
		return false, ErrClosed
	}
}

// Release frees the lock.
func (l *Lock) Release() error {
	select {
	case <-l.slot:
		return nil
	default:
		return ErrNotLocked
	}
}

// Locked reports whether the lock is held.
func (l *Lock) Locked() bool {
	return len(l.slot) == 1
}

func (l *Lock) repr() string {
	if l.Locked() {
		return "<Lock locked>"
	}
	return "<Lock unlocked>"
}

func (l *Lock) Invoke(ctx context.Context, op string, args Args) (any, error) {
	switch op {
	case "acquire":
		blocking, err := args.Bool(0, true)
		if err != nil {
			return nil, err
		}
		timeout, err := args.Timeout(1)
		if err != nil {
			return nil, err
		}
		return l.Acquire(ctx, blocking, timeout)
	case "release":
		return nil, l.Release()
	case "locked":
		return l.Locked(), nil
	case "repr":
		return l.repr(), nil
	default:
		return nil, unknownOp(registry.KindLock, op)
	}
}
