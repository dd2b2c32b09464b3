package e2e

import (
	"context"
	"net"
	"testing"
)

// FreeAddr reserves an ephemeral localhost port and returns it as host:port
// after releasing the listener.
func FreeAddr(tb testing.TB) string {
	tb.Helper()

	var listenCfg net.ListenConfig

	listener, err := listenCfg.Listen(context.Background(), "tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("allocate free port: %v", err)
	}

	defer func() {
		_ = listener.Close()
	}()

	return listener.Addr().String()
}
