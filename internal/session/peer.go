package session

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"remotesync/internal/descriptor"
	"remotesync/internal/ipc"
	"remotesync/internal/logging"
)

// PeerOptions configures NewPeer.
type PeerOptions struct {
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// NewPeer reads the descriptor at path, authenticates against the host it
// names, and binds the same handles the host bound. Failures are not
// retried.
func NewPeer(ctx context.Context, path string, opts PeerOptions) (*Session, error) {
	desc, err := descriptor.Read(path)
	if err != nil {
		return nil, &DescriptorIOError{Path: path, Op: "read", Err: err}
	}

	logger := logging.NewComponentLogger(opts.Logger, "session").With(
		logging.String(logging.FieldRole, RolePeer.String()),
		logging.String(logging.FieldSessionID, desc.SessionID))

	addr := desc.Connection.Address()
	client, err := ipc.Dial(ctx, addr, desc.Connection.AuthKey, opts.DialTimeout)
	if err != nil {
		reason := "host unreachable"
		if errors.Is(err, ipc.ErrAuthFailed) {
			reason = "authentication key mismatch"
		}
		return nil, &ConnectionError{Address: addr, Reason: reason, Err: err}
	}

	hello, err := client.Hello()
	if err != nil {
		_ = client.Close()
		return nil, &ConnectionError{Address: addr, Reason: "session handshake", Err: err}
	}
	if hello.SessionID != desc.SessionID {
		_ = client.Close()
		return nil, &ConnectionError{Address: addr, Reason: "host was restarted", Err: ErrStaleDescriptor}
	}
	if !slices.Equal(hello.Names, desc.Names()) {
		_ = client.Close()
		return nil, &ConnectionError{Address: addr, Reason: "host serves a different object table", Err: ErrStaleDescriptor}
	}

	handles, names, err := bind(client, desc)
	if err != nil {
		_ = client.Close()
		return nil, &ConnectionError{Address: addr, Reason: "bind objects", Err: err}
	}

	logger.Debug("peer session attached",
		logging.String(logging.FieldPeerAddr, addr),
		logging.Int("objects", len(names)))
	return &Session{
		role:           RolePeer,
		descriptorPath: path,
		desc:           desc,
		logger:         logger,
		client:         client,
		handles:        handles,
		names:          names,
	}, nil
}
