package hostrun

import (
	"fmt"

	"remotesync/internal/config"
	"remotesync/internal/primitive"
	"remotesync/internal/registry"
	"remotesync/internal/session"
)

// BuildObjects constructs the real primitives declared in the config, in
// declaration order.
func BuildObjects(declared []config.Object) ([]session.Object, error) {
	objects := make([]session.Object, 0, len(declared))
	for _, decl := range declared {
		value, err := buildObject(decl)
		if err != nil {
			return nil, &session.ConfigurationError{Name: decl.Name, Reason: "invalid declaration", Err: err}
		}
		objects = append(objects, session.Object{
			Name:    decl.Name,
			Value:   value,
			Exposed: decl.Exposed,
		})
	}
	return objects, nil
}

func buildObject(decl config.Object) (primitive.Object, error) {
	kind, err := registry.ParseKind(decl.Kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case registry.KindLock:
		return primitive.NewLock(), nil
	case registry.KindEvent:
		return primitive.NewEvent(), nil
	case registry.KindQueue:
		return primitive.NewQueue(decl.Capacity), nil
	case registry.KindCell:
		return primitive.NewCell(decl.InitialValue())
	case registry.KindDict:
		return primitive.NewDict(decl.InitialValue())
	case registry.KindNamespace:
		return primitive.NewNamespace(decl.InitialValue())
	default:
		return nil, fmt.Errorf("kind %s cannot be declared in config", kind)
	}
}
