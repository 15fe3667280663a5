package head

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/arloliu/go-pnp/internal/sim"
	"github.com/arloliu/go-pnp/transport"
)

// testReadTimeout is the transport read timeout used by tests.
const testReadTimeout = 20 * time.Millisecond

// newPipeConn creates a net.Pipe pair and registers cleanup.
func newPipeConn(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()

	local, remote := net.Pipe()
	t.Cleanup(func() {
		_ = local.Close()
		_ = remote.Close()
	})

	return local, remote
}

// pipeOpener returns an Opener handing out the local end of a pipe once.
func pipeOpener(local net.Conn) Opener {
	return func(context.Context) (transport.Port, error) {
		return transport.NewConnPort(local, testReadTimeout), nil
	}
}

// newTestConfig creates a DriverConfig wired to the local end of a pipe.
func newTestConfig(t *testing.T, local net.Conn, opts ...DriverOption) *DriverConfig {
	t.Helper()

	cfg, err := NewDriverConfig("", append([]DriverOption{WithOpener(pipeOpener(local))}, opts...)...)
	if err != nil {
		t.Fatalf("newTestConfig: %v", err)
	}

	return cfg
}

// newRawDriver creates a connected driver whose controller end is returned
// for byte-level scripting.
func newRawDriver(t *testing.T, opts ...DriverOption) (*Driver, net.Conn) {
	t.Helper()

	local, remote := newPipeConn(t)

	d, err := NewDriver(newTestConfig(t, local, opts...))
	if err != nil {
		t.Fatalf("newRawDriver: %v", err)
	}
	if err := d.Connect(context.Background()); err != nil {
		t.Fatalf("newRawDriver: connect: %v", err)
	}
	t.Cleanup(func() { _ = d.Disconnect() })

	return d, remote
}

// newSimDriver creates a connected driver talking to a simulated controller.
func newSimDriver(t *testing.T, simOpts []sim.Option, opts ...DriverOption) (*Driver, *sim.Controller) {
	t.Helper()

	d, remote := newRawDriver(t, opts...)
	ctrl := sim.New(simOpts...)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = ctrl.Serve(ctx, remote)
	}()
	t.Cleanup(func() {
		cancel()
		_ = remote.Close()
		<-done
	})

	return d, ctrl
}

// readExactly reads exactly n bytes from r, failing the test on error.
func readExactly(t *testing.T, r io.Reader, n int) []byte {
	t.Helper()

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		t.Errorf("readExactly: %v", err)
	}

	return buf
}

// readOneByte reads exactly 1 byte from r, failing the test on error.
func readOneByte(t *testing.T, r io.Reader) byte {
	t.Helper()

	return readExactly(t, r, 1)[0]
}

// mustWrite writes data to w, failing the test on error.
func mustWrite(t *testing.T, w io.Writer, data ...byte) {
	t.Helper()

	if _, err := w.Write(data); err != nil {
		t.Errorf("mustWrite: %v", err)
	}
}
