package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"remotesync/internal/logging"
	"remotesync/internal/session"
)

// StartHost serves objects on loopback with a descriptor in a temp dir.
func StartHost(t testing.TB, objects ...session.Object) *session.Session {
	t.Helper()

	host, err := session.NewHost(context.Background(), session.HostOptions{
		DescriptorPath: filepath.Join(t.TempDir(), "session.toml"),
		BindHost:       "127.0.0.1",
		AdvertiseHost:  "127.0.0.1",
		Logger:         logging.NewNop(),
	}, objects)
	if err != nil {
		t.Fatalf("session.NewHost: %v", err)
	}
	t.Cleanup(func() {
		_ = host.Close()
	})
	return host
}

// Attach opens a peer session on host's descriptor.
func Attach(t testing.TB, host *session.Session) *session.Session {
	t.Helper()

	peer, err := session.NewPeer(context.Background(), host.DescriptorPath(), session.PeerOptions{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("session.NewPeer: %v", err)
	}
	t.Cleanup(func() {
		_ = peer.Close()
	})
	return peer
}
