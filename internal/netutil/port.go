package netutil

import (
	"context"
	"fmt"
	"net"
)

// FreePort binds an ephemeral TCP port, releases it, and returns its number.
// The port is not held, so a caller racing another process may still lose it
// at bind time.
func FreePort() (int, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	listener, err := lc.Listen(context.Background(), "tcp", ":0")
	if err != nil {
		return 0, fmt.Errorf("allocate free port: %w", err)
	}
	defer listener.Close()
	addr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("allocate free port: unexpected address %v", listener.Addr())
	}
	return addr.Port, nil
}
