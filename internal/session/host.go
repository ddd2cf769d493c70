package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	metrics "github.com/hashicorp/go-metrics"

	"remotesync/internal/descriptor"
	"remotesync/internal/ipc"
	"remotesync/internal/ledger"
	"remotesync/internal/logging"
	"remotesync/internal/netutil"
	"remotesync/internal/primitive"
	"remotesync/internal/registry"
)

// AuthKeySize is the length of generated shared keys.
const AuthKeySize = 32

// Object is one named object a host shares. Kind overrides the proxy kind
// and may only be set for objects without a native kind of their own.
// Exposed restricts the served operations; nil serves the full set.
type Object struct {
	Name    string
	Value   primitive.Object
	Kind    registry.Kind
	Exposed []string
}

// HostOptions configures NewHost.
type HostOptions struct {
	DescriptorPath string
	// BindHost is the listen interface. Empty listens on all interfaces.
	BindHost string
	// AdvertiseHost is written into the descriptor. Empty resolves the
	// machine's outbound address.
	AdvertiseHost string
	// Port is the listen port. Zero allocates a free port.
	Port int
	// AuthKey is the shared key. Nil generates AuthKeySize random bytes.
	AuthKey          []byte
	SessionID        string
	HandshakeTimeout time.Duration
	DialTimeout      time.Duration
	Logger           *slog.Logger
	Metrics          metrics.MetricSink
	// Ledger, when set, records the host run.
	Ledger *ledger.Store
}

type plannedObject struct {
	obj    Object
	kind   registry.Kind
	native registry.Kind
}

// NewHost serves objects under their names, writes the descriptor peers
// need, and binds a handle per name for the host's own use. The caller must
// Close the returned session.
func NewHost(ctx context.Context, opts HostOptions, objects []Object) (*Session, error) {
	planned, err := planObjects(objects)
	if err != nil {
		return nil, err
	}
	if opts.DescriptorPath == "" {
		return nil, &ConfigurationError{Reason: "descriptor path is required"}
	}

	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := logging.NewComponentLogger(opts.Logger, "session").With(
		logging.String(logging.FieldRole, RoleHost.String()),
		logging.String(logging.FieldSessionID, sessionID))

	key := opts.AuthKey
	if len(key) == 0 {
		key = make([]byte, AuthKeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate auth key: %w", err)
		}
	}
	port := opts.Port
	if port == 0 {
		if port, err = netutil.FreePort(); err != nil {
			return nil, err
		}
	}
	advertise := opts.AdvertiseHost
	if advertise == "" {
		advertise = netutil.HostAddress()
	}

	desc := buildDescriptor(sessionID, advertise, port, key, planned)
	if err := desc.Validate(); err != nil {
		return nil, &ConfigurationError{Reason: "descriptor", Err: err}
	}

	entries := make([]ipc.Entry, 0, len(planned))
	for _, p := range planned {
		entries = append(entries, ipc.Entry{Name: p.obj.Name, Object: p.obj.Value, Kind: p.kind, Exposed: p.obj.Exposed})
	}
	listenAddr := net.JoinHostPort(opts.BindHost, strconv.Itoa(port))
	server, err := ipc.NewServer(ctx, ipc.ServerOptions{
		Addr:             listenAddr,
		AuthKey:          key,
		SessionID:        sessionID,
		HandshakeTimeout: opts.HandshakeTimeout,
		Logger:           opts.Logger,
		Metrics:          opts.Metrics,
	}, entries)
	if err != nil {
		return nil, err
	}

	if err := descriptor.Write(opts.DescriptorPath, desc); err != nil {
		server.Close()
		return nil, &DescriptorIOError{Path: opts.DescriptorPath, Op: "write", Err: err}
	}
	server.Serve()

	loopback := net.JoinHostPort(loopbackHost(opts.BindHost), strconv.Itoa(port))
	client, err := ipc.Dial(ctx, loopback, key, opts.DialTimeout)
	if err != nil {
		server.Close()
		_ = descriptor.Remove(opts.DescriptorPath)
		return nil, &ConnectionError{Address: loopback, Reason: "host loopback", Err: err}
	}
	handles, names, err := bind(client, desc)
	if err != nil {
		_ = client.Close()
		server.Close()
		_ = descriptor.Remove(opts.DescriptorPath)
		return nil, &ConnectionError{Address: loopback, Reason: "host loopback", Err: err}
	}

	s := &Session{
		role:           RoleHost,
		descriptorPath: opts.DescriptorPath,
		desc:           desc,
		logger:         logger,
		client:         client,
		server:         server,
		ledger:         opts.Ledger,
		handles:        handles,
		names:          names,
	}
	if opts.Ledger != nil {
		record := ledger.Session{
			ID:             sessionID,
			DescriptorPath: opts.DescriptorPath,
			Address:        desc.Connection.Address(),
			PID:            os.Getpid(),
			Objects:        names,
			StartedAt:      time.Now(),
		}
		if err := opts.Ledger.RecordStart(ctx, record); err != nil {
			logging.WarnWithContext(logger, "ledger start not recorded", "ledger_start_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "session history will miss this host run"),
				logging.String(logging.FieldErrorHint, "check the ledger database path and permissions"))
			s.ledger = nil
		}
	}
	logger.Info("host session started",
		logging.String("address", desc.Connection.Address()),
		logging.String("listen", server.Addr().String()),
		logging.String("descriptor", opts.DescriptorPath),
		logging.Int("objects", len(names)))
	return s, nil
}

func planObjects(objects []Object) ([]plannedObject, error) {
	seen := make(map[string]struct{}, len(objects))
	planned := make([]plannedObject, 0, len(objects))
	for i, obj := range objects {
		if obj.Name == "" {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("object %d has no name", i)}
		}
		if obj.Value == nil {
			return nil, &ConfigurationError{Name: obj.Name, Reason: "object value is nil"}
		}
		if _, dup := seen[obj.Name]; dup {
			return nil, &ConfigurationError{Name: obj.Name, Reason: "duplicate object name"}
		}
		seen[obj.Name] = struct{}{}

		native := registry.KindOf(obj.Value)
		kind := native
		if obj.Kind != registry.KindOpaque {
			if _, ok := registry.Lookup(obj.Kind); !ok {
				return nil, &ConfigurationError{Name: obj.Name, Reason: fmt.Sprintf("unknown proxy kind %q", obj.Kind)}
			}
			if native != registry.KindOpaque && native != obj.Kind {
				return nil, &ConfigurationError{Name: obj.Name,
					Reason: fmt.Sprintf("proxy kind %s does not match native kind %s", obj.Kind, native)}
			}
			kind = obj.Kind
		}
		if kind != registry.KindOpaque {
			for _, op := range obj.Exposed {
				if !registry.Supports(kind, op) {
					return nil, &ConfigurationError{Name: obj.Name,
						Reason: fmt.Sprintf("exposed operation %q is not a %s operation", op, kind)}
				}
			}
		}
		if spec, ok := registry.Lookup(native); ok && spec.Wrap != nil && len(obj.Exposed) > 0 {
			for _, op := range []string{spec.Wrap.Acquire, spec.Wrap.Release} {
				if !slices.Contains(obj.Exposed, op) {
					return nil, &ConfigurationError{Name: obj.Name,
						Reason: fmt.Sprintf("exposed operations must include %q for scoped acquisition", op)}
				}
			}
		}
		planned = append(planned, plannedObject{obj: obj, kind: kind, native: native})
	}
	return planned, nil
}

// buildDescriptor derives wrap bindings and format hints from each object's
// native kind so peers apply exactly what the host applied.
func buildDescriptor(sessionID, host string, port int, key []byte, planned []plannedObject) descriptor.Descriptor {
	desc := descriptor.Descriptor{
		Version:   descriptor.CurrentVersion,
		SessionID: sessionID,
		Connection: descriptor.Connection{
			Host:    host,
			Port:    port,
			AuthKey: append([]byte(nil), key...),
		},
	}
	for _, p := range planned {
		desc.Objects = append(desc.Objects, descriptor.Object{
			Name:    p.obj.Name,
			Kind:    p.kind,
			Exposed: append([]string(nil), p.obj.Exposed...),
		})
		spec, ok := registry.Lookup(p.native)
		if !ok {
			continue
		}
		if spec.Wrap != nil {
			desc.ContextWrap = append(desc.ContextWrap, descriptor.ContextWrap{
				Name:    p.obj.Name,
				Acquire: spec.Wrap.Acquire,
				Release: spec.Wrap.Release,
			})
		}
		if spec.Format != registry.FormatNone {
			desc.Formats = append(desc.Formats, descriptor.FormatHint{Name: p.obj.Name, Format: spec.Format})
		}
	}
	return desc
}

func loopbackHost(bindHost string) string {
	if bindHost == "" {
		return "127.0.0.1"
	}
	if ip := net.ParseIP(bindHost); ip != nil && ip.IsUnspecified() {
		if ip.To4() != nil {
			return "127.0.0.1"
		}
		return "::1"
	}
	return bindHost
}
