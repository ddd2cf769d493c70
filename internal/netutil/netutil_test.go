package netutil_test

import (
	"net"
	"strconv"
	"testing"

	"remotesync/internal/netutil"
)

func TestFreePortIsBindable(t *testing.T) {
	port, err := netutil.FreePort()
	if err != nil {
		t.Fatalf("FreePort: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Fatalf("port out of range: %d", port)
	}
	listener, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	if err != nil {
		t.Skipf("port %d taken between release and bind: %v", port, err)
	}
	_ = listener.Close()
}

func TestHostAddressParses(t *testing.T) {
	addr := netutil.HostAddress()
	if net.ParseIP(addr) == nil {
		t.Fatalf("HostAddress returned %q, want an IP", addr)
	}
}
