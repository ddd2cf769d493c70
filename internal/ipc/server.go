package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"slices"
	"sync"
	"time"

	metrics "github.com/hashicorp/go-metrics"

	"remotesync/internal/logging"
	"remotesync/internal/primitive"
	"remotesync/internal/registry"
)

// DefaultHandshakeTimeout bounds the key exchange on new connections.
const DefaultHandshakeTimeout = 5 * time.Second

// Entry is one object served under a name.
type Entry struct {
	Name    string
	Object  primitive.Object
	Kind    registry.Kind
	Exposed []string
}

func (e Entry) allows(op string) bool {
	if registry.AlwaysServed(e.Kind, op) {
		return true
	}
	if len(e.Exposed) > 0 {
		return slices.Contains(e.Exposed, op)
	}
	if e.Kind == registry.KindOpaque {
		return true
	}
	return registry.Supports(e.Kind, op)
}

// ServerOptions configures a broker server.
type ServerOptions struct {
	// Addr is the TCP listen address, e.g. ":50123" for all interfaces.
	Addr             string
	AuthKey          []byte
	SessionID        string
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
	Metrics          metrics.MetricSink
}

// Server serves shared objects over JSON-RPC on authenticated TCP
// connections.
type Server struct {
	key       []byte
	timeout   time.Duration
	logger    *slog.Logger
	sink      metrics.MetricSink
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer binds the listener and registers the broker service. Blocking
// object operations run under ctx and fail with primitive.ErrClosed once the
// server closes.
func NewServer(ctx context.Context, opts ServerOptions, entries []Entry) (*Server, error) {
	if len(opts.AuthKey) == 0 {
		return nil, errors.New("ipc server requires an auth key")
	}
	logger := logging.NewComponentLogger(opts.Logger, "ipc")
	sink := opts.Metrics
	if sink == nil {
		sink = &metrics.BlackholeSink{}
	}
	timeout := opts.HandshakeTimeout
	if timeout <= 0 {
		timeout = DefaultHandshakeTimeout
	}

	table := make(map[string]Entry, len(entries))
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Object == nil {
			return nil, fmt.Errorf("ipc server: object %q is nil", entry.Name)
		}
		if _, dup := table[entry.Name]; dup {
			return nil, fmt.Errorf("ipc server: duplicate object %q", entry.Name)
		}
		table[entry.Name] = entry
		names = append(names, entry.Name)
	}

	listener, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", opts.Addr, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	svc := &service{
		sessionID: opts.SessionID,
		names:     names,
		entries:   table,
		logger:    logger,
		sink:      sink,
		ctx:       serverCtx,
	}
	if err := rpcServer.RegisterName(serviceName, svc); err != nil {
		cancel()
		_ = listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		key:       append([]byte(nil), opts.AuthKey...),
		timeout:   timeout,
		logger:    logger,
		sink:      sink,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Addr reports the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve starts accepting connections until Close is called.
func (s *Server) Serve() {
	s.logger.Debug("broker listening", logging.String("addr", s.listener.Addr().String()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "peers may fail to connect"),
					logging.String(logging.FieldErrorHint, "check file descriptor limits and restart the host if needed"))
				continue
			}
			if !s.track(conn) {
				_ = conn.Close()
				return
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.untrack(c)
				s.serveConn(c)
			}(conn)
		}
	}()
}

func (s *Server) serveConn(conn net.Conn) {
	peer := conn.RemoteAddr().String()
	if err := serverHandshake(conn, s.key, s.timeout); err != nil {
		s.sink.IncrCounter([]string{"remotesync", "auth", "failure"}, 1)
		logging.WarnWithContext(s.logger, "peer handshake failed", "ipc_auth_failed",
			logging.String(logging.FieldPeerAddr, peer),
			logging.Error(err),
			logging.String(logging.FieldImpact, "peer connection rejected"),
			logging.String(logging.FieldErrorHint, "make sure the peer reads the descriptor written by this host"))
		return
	}
	s.logger.Debug("peer connected", logging.String(logging.FieldPeerAddr, peer))
	s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(conn))
	s.logger.Debug("peer disconnected", logging.String(logging.FieldPeerAddr, peer))
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	s.sink.SetGauge([]string{"remotesync", "connections"}, float32(len(s.conns)))
	return true
}

func (s *Server) untrack(conn net.Conn) {
	_ = conn.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns == nil {
		return
	}
	delete(s.conns, conn)
	s.sink.SetGauge([]string{"remotesync", "connections"}, float32(len(s.conns)))
}

// Close stops accepting, unblocks pending operations, drops every peer
// connection, and waits for handlers to exit.
func (s *Server) Close() {
	s.cancel()
	_ = s.listener.Close()
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for conn := range conns {
		_ = conn.Close()
	}
	s.wg.Wait()
}

type service struct {
	sessionID string
	names     []string
	entries   map[string]Entry
	logger    *slog.Logger
	sink      metrics.MetricSink
	ctx       context.Context
}

func (s *service) Hello(_ HelloRequest, resp *HelloResponse) error {
	resp.SessionID = s.sessionID
	resp.Names = slices.Clone(s.names)
	return nil
}

func (s *service) Resolve(req ResolveRequest, resp *ResolveResponse) error {
	entry, ok := s.entries[req.Name]
	if !ok {
		resp.Error = toRemoteError(fmt.Errorf("%w: %q", ErrUnknownObject, req.Name))
		return nil
	}
	resp.Name = entry.Name
	resp.Kind = entry.Kind
	resp.Exposed = slices.Clone(entry.Exposed)
	return nil
}

func (s *service) Invoke(req CallRequest, resp *CallResponse) error {
	start := time.Now()
	labels := []metrics.Label{
		{Name: logging.FieldObject, Value: req.Object},
		{Name: logging.FieldOp, Value: req.Op},
	}
	s.sink.IncrCounterWithLabels([]string{"remotesync", "call", "count"}, 1, labels)
	defer func() {
		elapsed := float32(time.Since(start).Seconds() * 1000)
		s.sink.AddSampleWithLabels([]string{"remotesync", "call", "latency_ms"}, elapsed, labels)
	}()

	result, err := s.dispatch(req)
	if err != nil {
		resp.Error = toRemoteError(err)
		s.sink.IncrCounterWithLabels([]string{"remotesync", "call", "error"}, 1,
			append(labels, metrics.Label{Name: "code", Value: resp.Error.Code}))
		s.logger.Debug("call failed",
			logging.String(logging.FieldObject, req.Object),
			logging.String(logging.FieldOp, req.Op),
			logging.String("code", resp.Error.Code),
			logging.Error(err))
		return nil
	}
	encoded, err := primitive.Encode(result)
	if err != nil {
		resp.Error = toRemoteError(fmt.Errorf("encode result: %w", err))
		return nil
	}
	resp.Result = encoded
	return nil
}

func (s *service) dispatch(req CallRequest) (any, error) {
	entry, ok := s.entries[req.Object]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownObject, req.Object)
	}
	if !entry.allows(req.Op) {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotExposed, req.Object, req.Op)
	}
	return entry.Object.Invoke(s.ctx, req.Op, primitive.Args(req.Args))
}
