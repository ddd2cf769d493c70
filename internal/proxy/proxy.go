package proxy

import (
	"remotesync/internal/primitive"
	"remotesync/internal/registry"
)

// Caller forwards one operation to a named object. *ipc.Client implements it.
type Caller interface {
	Call(object, op string, args primitive.Args, reply any) error
}

// Handle is the live, per-session view of one shared object.
type Handle interface {
	Name() string
	Kind() registry.Kind
	// Repr returns the object's own rendering without mutating it.
	Repr() (string, error)
}

type base struct {
	caller Caller
	name   string
	kind   registry.Kind
}

func (b base) Name() string        { return b.name }
func (b base) Kind() registry.Kind { return b.kind }

func (b base) Repr() (string, error) {
	var s string
	err := b.call("repr", &s)
	return s, err
}

func (b base) call(op string, reply any, values ...any) error {
	args, err := primitive.EncodeArgs(values...)
	if err != nil {
		return err
	}
	return b.caller.Call(b.name, op, args, reply)
}

var constructors = map[registry.Kind]func(base) Handle{
	registry.KindLock:      func(b base) Handle { return &Lock{base: b} },
	registry.KindEvent:     func(b base) Handle { return &Event{base: b} },
	registry.KindQueue:     func(b base) Handle { return &Queue{base: b} },
	registry.KindCell:      func(b base) Handle { return &Cell{base: b} },
	registry.KindDict:      func(b base) Handle { return &Dict{base: b} },
	registry.KindNamespace: func(b base) Handle { return &Namespace{base: b} },
}

// New returns the handle type registered for kind. Kinds without a
// specialized proxy get an *Opaque handle.
func New(caller Caller, name string, kind registry.Kind) Handle {
	b := base{caller: caller, name: name, kind: kind}
	if build, ok := constructors[kind]; ok {
		return build(b)
	}
	b.kind = registry.KindOpaque
	return &Opaque{base: b}
}

// Opaque forwards arbitrary operations by name.
type Opaque struct{ base }

// Call invokes op with positional args and decodes the result into reply.
func (o *Opaque) Call(op string, reply any, args ...any) error {
	return o.call(op, reply, args...)
}
