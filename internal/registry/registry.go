package registry

import (
	"fmt"
	"slices"
	"strings"
)

// Kind identifies the proxy implementation used to remote a shared object.
type Kind string

const (
	// KindOpaque selects the default call-by-name proxy.
	KindOpaque    Kind = ""
	KindLock      Kind = "lock"
	KindEvent     Kind = "event"
	KindQueue     Kind = "queue"
	KindCell      Kind = "cell"
	KindDict      Kind = "dict"
	KindNamespace Kind = "namespace"
)

// Format selects type-specific rendering in the inspector.
type Format string

const (
	FormatNone  Format = ""
	FormatQueue Format = "queue"
	FormatEvent Format = "event"
)

// Binding names the operations that implement scoped acquisition.
type Binding struct {
	Acquire string
	Release string
}

// Spec describes how a kind is remoted.
type Spec struct {
	Kind   Kind
	Ops    []string
	Wrap   *Binding
	Format Format
}

// Tagged is implemented by values that declare their kind.
type Tagged interface {
	Kind() Kind
}

var table = map[Kind]Spec{
	KindLock: {
		Kind: KindLock,
		Ops:  []string{"acquire", "release", "locked", "repr"},
		Wrap: &Binding{Acquire: "acquire", Release: "release"},
	},
	KindEvent: {
		Kind:   KindEvent,
		Ops:    []string{"set", "clear", "is_set", "wait", "repr"},
		Format: FormatEvent,
	},
	KindQueue: {
		Kind:   KindQueue,
		Ops:    []string{"put", "get", "qsize", "empty", "full", "maxsize", "repr"},
		Format: FormatQueue,
	},
	KindCell: {
		Kind: KindCell,
		Ops:  []string{"get", "set", "repr"},
	},
	KindDict: {
		Kind: KindDict,
		Ops: []string{
			"get", "lookup", "set", "delete", "contains", "len", "keys", "items",
			"pop", "setdefault", "update", "clear", "repr",
		},
	},
	KindNamespace: {
		Kind: KindNamespace,
		Ops:  []string{"getattr", "setattr", "delattr", "attrs", "repr"},
	},
}

// Lookup returns the proxy spec registered for kind. Unknown and opaque kinds
// report false, which selects the default proxy.
func Lookup(kind Kind) (Spec, bool) {
	spec, ok := table[kind]
	if !ok {
		return Spec{}, false
	}
	spec.Ops = slices.Clone(spec.Ops)
	if spec.Wrap != nil {
		wrap := *spec.Wrap
		spec.Wrap = &wrap
	}
	return spec, true
}

// KindOf reports the kind a value declares, or KindOpaque.
func KindOf(v any) Kind {
	if tagged, ok := v.(Tagged); ok {
		return tagged.Kind()
	}
	return KindOpaque
}

// ParseKind converts user input into a Kind. The empty string and "opaque"
// both map to KindOpaque.
func ParseKind(value string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" || normalized == "opaque" {
		return KindOpaque, nil
	}
	kind := Kind(normalized)
	if _, ok := table[kind]; !ok {
		return KindOpaque, fmt.Errorf("unknown object kind %q", value)
	}
	return kind, nil
}

// Kinds lists the specialized kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindLock, KindEvent, KindQueue, KindCell, KindDict, KindNamespace}
}

// formatReads are the operations the inspector issues for each format hint.
var formatReads = map[Format][]string{
	FormatQueue: {"empty", "qsize", "full"},
	FormatEvent: {"is_set"},
}

// AlwaysServed reports whether op is served for kind whatever its exposed
// list says: repr, plus the state reads its format hint renders.
func AlwaysServed(kind Kind, op string) bool {
	if op == "repr" {
		return true
	}
	spec, ok := table[kind]
	if !ok {
		return false
	}
	return slices.Contains(formatReads[spec.Format], op)
}

// Supports reports whether op is part of the kind's operation set.
func Supports(kind Kind, op string) bool {
	spec, ok := table[kind]
	if !ok {
		return false
	}
	return slices.Contains(spec.Ops, op)
}

// String renders the kind for logs and tables.
func (k Kind) String() string {
	if k == KindOpaque {
		return "opaque"
	}
	return string(k)
}
