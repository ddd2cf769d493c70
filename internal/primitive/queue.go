package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"remotesync/internal/registry"
)

// Queue is a FIFO of JSON values. A maxsize of zero or less means unbounded.
type Queue struct {
	mu      sync.Mutex
	items   []json.RawMessage
	maxsize int
	changed chan struct{}
}

// NewQueue returns an empty queue holding at most maxsize items.
func NewQueue(maxsize int) *Queue {
	if maxsize < 0 {
		maxsize = 0
	}
	return &Queue{maxsize: maxsize, changed: make(chan struct{})}
}

func (q *Queue) Kind() registry.Kind { return registry.KindQueue }

// notifyLocked wakes every goroutine parked on the current change channel.
// Callers hold q.mu.
func (q *Queue) notifyLocked() {
	close(q.changed)
	q.changed = make(chan struct{})
}

func (q *Queue) fullLocked() bool {
	return q.maxsize > 0 && len(q.items) >= q.maxsize
}

// Put appends item. When the queue is full a non-blocking call, or a blocking
// call whose timeout expires, fails with ErrFull.
func (q *Queue) Put(ctx context.Context, item json.RawMessage, block bool, timeout time.Duration) error {
	expired, stop := deadline(timeout)
	defer stop()
	for {
		q.mu.Lock()
		if !q.fullLocked() {
			q.items = append(q.items, item)
			q.notifyLocked()
			q.mu.Unlock()
			return nil
		}
		changed := q.changed
		q.mu.Unlock()

		if !block {
			return ErrFull
		}
		select {
		case <-changed:
		case <-expired:
			return ErrFull
		case <-ctx.Done():
			return ErrClosed
		}
	}
}

// Get removes and returns the oldest item. When the queue is empty a
// non-blocking call, or a blocking call whose timeout expires, fails with
// ErrEmpty.
func (q *Queue) Get(ctx context.Context, block bool, timeout time.Duration) (json.RawMessage, error) {
	expired, stop := deadline(timeout)
	defer stop()
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.notifyLocked()
			q.mu.Unlock()
			return item, nil
		}
		changed := q.changed
		q.mu.Unlock()

		if !block {
			return nil, ErrEmpty
		}
		select {
		case <-changed:
		case <-expired:
			return nil, ErrEmpty
		case <-ctx.Done():
			return nil, ErrClosed
		}
	}
}

// Size reports the number of queued items.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Empty reports whether the queue holds no items.
func (q *Queue) Empty() bool {
	return q.Size() == 0
}

// Full reports whether a bounded queue is at capacity.
func (q *Queue) Full() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.fullLocked()
}

// MaxSize reports the configured capacity.
func (q *Queue) MaxSize() int {
	return q.maxsize
}

func (q *Queue) Invoke(ctx context.Context, op string, args Args) (any, error) {
	switch op {
	case "put":
		item, err := args.Value(0)
		if err != nil {
			return nil, err
		}
		block, err := args.Bool(1, true)
		if err != nil {
			return nil, err
		}
		timeout, err := args.Timeout(2)
		if err != nil {
			return nil, err
		}
		return nil, q.Put(ctx, item, block, timeout)
	case "get":
		block, err := args.Bool(0, true)
		if err != nil {
			return nil, err
		}
		timeout, err := args.Timeout(1)
		if err != nil {
			return nil, err
		}
		return q.Get(ctx, block, timeout)
	case "qsize":
		return q.Size(), nil
	case "empty":
		return q.Empty(), nil
	case "full":
		return q.Full(), nil
	case "maxsize":
		return q.MaxSize(), nil
	case "repr":
		return fmt.Sprintf("<Queue qsize=%d maxsize=%d>", q.Size(), q.maxsize), nil
	default:
		return nil, unknownOp(registry.KindQueue, op)
	}
}
