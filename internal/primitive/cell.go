package primitive

import (
	"context"
	"encoding/json"
	"sync"

	"remotesync/internal/registry"
)

// Cell holds a single JSON value.
type Cell struct {
	mu    sync.RWMutex
	value json.RawMessage
}

// NewCell returns a cell holding initial, or null when initial is empty.
func NewCell(initial json.RawMessage) (*Cell, error) {
	value, err := Encode(initial)
	if err != nil {
		return nil, err
	}
	return &Cell{value: value}, nil
}

func (c *Cell) Kind() registry.Kind { return registry.KindCell }

// Load returns the current value.
func (c *Cell) Load() json.RawMessage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Store replaces the current value.
func (c *Cell) Store(value json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

func (c *Cell) Invoke(_ context.Context, op string, args Args) (any, error) {
	switch op {
	case "get":
		return c.Load(), nil
	case "set":
		value, err := args.Value(0)
		if err != nil {
			return nil, err
		}
		c.Store(value)
		return nil, nil
	case "repr":
		return string(c.Load()), nil
	default:
		return nil, unknownOp(registry.KindCell, op)
	}
}
