package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"remotesync/internal/descriptor"
	"remotesync/internal/ipc"
	"remotesync/internal/ledger"
	"remotesync/internal/logging"
	"remotesync/internal/proxy"
	"remotesync/internal/registry"
)

// Role says whether a session owns the real objects.
type Role int

const (
	// RoleHost owns the objects and serves them.
	RoleHost Role = iota + 1
	// RolePeer reaches a host through its descriptor.
	RolePeer
)

func (r Role) String() string {
	switch r {
	case RoleHost:
		return "host"
	case RolePeer:
		return "peer"
	default:
		return "unknown"
	}
}

// Session holds one remote handle per shared name. Both roles expose the
// same surface; on the host every handle still goes through the broker so
// host and peers observe one serialized copy of each object.
type Session struct {
	role           Role
	descriptorPath string
	desc           descriptor.Descriptor
	logger         *slog.Logger

	client  *ipc.Client
	server  *ipc.Server
	ledger  *ledger.Store
	handles map[string]proxy.Handle
	names   []string

	closeOnce sync.Once
	closeErr  error
}

// Role reports whether this session is the host or a peer.
func (s *Session) Role() Role { return s.role }

// ID returns the host session id recorded in the descriptor.
func (s *Session) ID() string { return s.desc.SessionID }

// DescriptorPath returns the descriptor file the session wrote or read.
func (s *Session) DescriptorPath() string { return s.descriptorPath }

// Descriptor returns a copy of the session's descriptor.
func (s *Session) Descriptor() descriptor.Descriptor {
	d := s.desc
	d.Connection.AuthKey = slices.Clone(d.Connection.AuthKey)
	d.Objects = slices.Clone(d.Objects)
	d.ContextWrap = slices.Clone(d.ContextWrap)
	d.Formats = slices.Clone(d.Formats)
	return d
}

// Names lists the bound names in registration order.
func (s *Session) Names() []string { return slices.Clone(s.names) }

// Format returns the rendering hint for name.
func (s *Session) Format(name string) registry.Format { return s.desc.Format(name) }

// Get returns the handle bound under name. Scoped names return a
// *proxy.Scoped.
func (s *Session) Get(name string) (proxy.Handle, error) {
	handle, ok := s.handles[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchObject, name)
	}
	return handle, nil
}

func handleAs[T proxy.Handle](s *Session, name string) (T, error) {
	var zero T
	handle, err := s.Get(name)
	if err != nil {
		return zero, err
	}
	if scoped, ok := handle.(*proxy.Scoped); ok {
		handle = scoped.Inner()
	}
	typed, ok := handle.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %q is %s", ErrWrongKind, name, handle.Kind())
	}
	return typed, nil
}

// Lock returns the lock handle bound under name.
func (s *Session) Lock(name string) (*proxy.Lock, error) { return handleAs[*proxy.Lock](s, name) }

// Event returns the event handle bound under name.
func (s *Session) Event(name string) (*proxy.Event, error) { return handleAs[*proxy.Event](s, name) }

// Queue returns the queue handle bound under name.
func (s *Session) Queue(name string) (*proxy.Queue, error) { return handleAs[*proxy.Queue](s, name) }

// Cell returns the cell handle bound under name.
func (s *Session) Cell(name string) (*proxy.Cell, error) { return handleAs[*proxy.Cell](s, name) }

// Dict returns the dict handle bound under name.
func (s *Session) Dict(name string) (*proxy.Dict, error) { return handleAs[*proxy.Dict](s, name) }

// Namespace returns the namespace handle bound under name.
func (s *Session) Namespace(name string) (*proxy.Namespace, error) {
	return handleAs[*proxy.Namespace](s, name)
}

// Opaque returns the generic handle for a name without a specialized proxy.
func (s *Session) Opaque(name string) (*proxy.Opaque, error) {
	return handleAs[*proxy.Opaque](s, name)
}

// Scoped returns the scoped-acquisition handle for a wrapped name.
func (s *Session) Scoped(name string) (*proxy.Scoped, error) {
	handle, err := s.Get(name)
	if err != nil {
		return nil, err
	}
	scoped, ok := handle.(*proxy.Scoped)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no scoped acquisition", ErrWrongKind, name)
	}
	return scoped, nil
}

// Close disconnects the session. On the host it also stops the server,
// which unblocks pending operations, and marks the ledger entry stopped.
// The descriptor file is left in place.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.client != nil {
			_ = s.client.Close()
		}
		if s.server != nil {
			s.server.Close()
		}
		if s.role == RoleHost && s.ledger != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.ledger.RecordStop(ctx, s.desc.SessionID, time.Now()); err != nil {
				logging.WarnWithContext(s.logger, "ledger stop not recorded", "ledger_stop_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "session history shows this host as still running"),
					logging.String(logging.FieldErrorHint, "check the ledger database path and permissions"))
				s.closeErr = err
			}
		}
		s.logger.Debug("session closed")
	})
	return s.closeErr
}

// bind resolves every descriptor name through client and builds its handle.
func bind(client *ipc.Client, desc descriptor.Descriptor) (map[string]proxy.Handle, []string, error) {
	handles := make(map[string]proxy.Handle, len(desc.Objects))
	names := make([]string, 0, len(desc.Objects))
	for _, obj := range desc.Objects {
		resolved, err := client.Resolve(obj.Name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve %q: %w", obj.Name, err)
		}
		if resolved.Kind != obj.Kind {
			return nil, nil, fmt.Errorf("resolve %q: host serves kind %s, descriptor says %s",
				obj.Name, resolved.Kind, obj.Kind)
		}
		var handle proxy.Handle = proxy.New(client, obj.Name, obj.Kind)
		if wrap, ok := desc.Wrap(obj.Name); ok {
			scoped, err := proxy.Bind(client, handle, registry.Binding{Acquire: wrap.Acquire, Release: wrap.Release})
			if err != nil {
				return nil, nil, err
			}
			handle = scoped
		}
		handles[obj.Name] = handle
		names = append(names, obj.Name)
	}
	return handles, names, nil
}
