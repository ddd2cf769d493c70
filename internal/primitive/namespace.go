package primitive

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"remotesync/internal/registry"
)

// Namespace is a bag of named attributes.
type Namespace struct {
	mu    sync.RWMutex
	attrs map[string]json.RawMessage
}

// NewNamespace returns a namespace seeded from a JSON object.
func NewNamespace(initial json.RawMessage) (*Namespace, error) {
	attrs := map[string]json.RawMessage{}
	if len(initial) > 0 {
		if err := json.Unmarshal(initial, &attrs); err != nil {
			return nil, fmt.Errorf("%w: namespace initial value must be a JSON object: %v", ErrBadArgs, err)
		}
		if attrs == nil {
			attrs = map[string]json.RawMessage{}
		}
	}
	return &Namespace{attrs: attrs}, nil
}

func (n *Namespace) Kind() registry.Kind { return registry.KindNamespace }

func (n *Namespace) getAttr(name string) (json.RawMessage, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	value, ok := n.attrs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAttrNotFound, name)
	}
	return value, nil
}

// String renders the namespace as Namespace(a=1, b="x").
func (n *Namespace) String() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	parts := make([]string, 0, len(n.attrs))
	for _, name := range slices.Sorted(maps.Keys(n.attrs)) {
		parts = append(parts, name+"="+string(n.attrs[name]))
	}
	return "Namespace(" + strings.Join(parts, ", ") + ")"
}

func (n *Namespace) Invoke(_ context.Context, op string, args Args) (any, error) {
	switch op {
	case "getattr":
		name, err := args.String(0)
		if err != nil {
			return nil, err
		}
		return n.getAttr(name)
	case "setattr":
		name, err := args.String(0)
		if err != nil {
			return nil, err
		}
		value, err := args.Value(1)
		if err != nil {
			return nil, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		n.attrs[name] = value
		return nil, nil
	case "delattr":
		name, err := args.String(0)
		if err != nil {
			return nil, err
		}
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.attrs[name]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrAttrNotFound, name)
		}
		delete(n.attrs, name)
		return nil, nil
	case "attrs":
		n.mu.RLock()
		defer n.mu.RUnlock()
		return maps.Clone(n.attrs), nil
	case "repr":
		return n.String(), nil
	default:
		return nil, unknownOp(registry.KindNamespace, op)
	}
}
