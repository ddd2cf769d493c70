package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"

	"remotesync/internal/registry"
)

// Dict maps string keys to JSON values. Every operation is atomic on its own;
// sequences of operations are not.
type Dict struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage
}

// NewDict returns a dict seeded from a JSON object. An empty initial value
// yields an empty dict.
func NewDict(initial json.RawMessage) (*Dict, error) {
	entries := map[string]json.RawMessage{}
	if len(initial) > 0 {
		if err := json.Unmarshal(initial, &entries); err != nil {
			return nil, fmt.Errorf("%w: dict initial value must be a JSON object: %v", ErrBadArgs, err)
		}
		if entries == nil {
			entries = map[string]json.RawMessage{}
		}
	}
	return &Dict{entries: entries}, nil
}

func (d *Dict) Kind() registry.Kind { return registry.KindDict }

// Get returns the value stored under key.
func (d *Dict) Get(key string) (json.RawMessage, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	value, ok := d.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	return value, nil
}

// Set stores value under key.
func (d *Dict) Set(key string, value json.RawMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[key] = value
}

// Delete removes key.
func (d *Dict) Delete(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.entries[key]; !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, key)
	}
	delete(d.entries, key)
	return nil
}

// Keys lists keys in sorted order.
func (d *Dict) Keys() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.entries))
}

// Snapshot copies the current entries.
func (d *Dict) Snapshot() map[string]json.RawMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.entries)
}

// Len reports the number of entries.
func (d *Dict) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

func (d *Dict) Invoke(_ context.Context, op string, args Args) (any, error) {
	switch op {
	case "get":
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		return d.Get(key)
	case "lookup":
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		d.mu.RLock()
		defer d.mu.RUnlock()
		if value, ok := d.entries[key]; ok {
			return value, nil
		}
		if def, ok := args.Raw(1); ok {
			return def, nil
		}
		return nil, nil
	case "set":
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		value, err := args.Value(1)
		if err != nil {
			return nil, err
		}
		d.Set(key, value)
		return nil, nil
	case "delete":
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		return nil, d.Delete(key)
	case "contains":
		key, err := args.String(0)
		if err != nil {
			return nil, err
		}
		d.mu.RLock()
		defer d.mu.RUnlock()
		_, ok := d.entries[key]
		return ok, nil
	case "len":
		return d.Len(), nil
	case "keys":
		return d.Keys(), nil
	case "items":
		return d.Snapshot(), nil
	case "pop":
		return d.pop(args)
	case "setdefault":
		return d.setDefault(args)
	case "update":
		var incoming map[string]json.RawMessage
		if err := args.Decode(0, &incoming); err != nil {
			return nil, err
		}
		d.mu.Lock()
		defer d.mu.Unlock()
		maps.Copy(d.entries, incoming)
		return nil, nil
	case "clear":
		d.mu.Lock()
		defer d.mu.Unlock()
		clear(d.entries)
		return nil, nil
	case "repr":
		encoded, err := json.Marshal(d.Snapshot())
		if err != nil {
			return nil, err
		}
		return string(encoded), nil
	default:
		return nil, unknownOp(registry.KindDict, op)
	}
}

func (d *Dict) pop(args Args) (any, error) {
	key, err := args.String(0)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if value, ok := d.entries[key]; ok {
		delete(d.entries, key)
		return value, nil
	}
	if args.Len() > 1 {
		return args.Value(1)
	}
	return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, key)
}

func (d *Dict) setDefault(args Args) (any, error) {
	key, err := args.String(0)
	if err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if value, ok := d.entries[key]; ok {
		return value, nil
	}
	value := json.RawMessage("null")
	if args.Len() > 1 {
		if value, err = args.Value(1); err != nil {
			return nil, err
		}
	}
	d.entries[key] = value
	return value, nil
}
