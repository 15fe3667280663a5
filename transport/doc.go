// Package transport provides the byte-stream ports a head driver talks through.
//
// Three backends are available:
//
//   - BackendSerial: native serial port via go.bug.st/serial (default).
//   - BackendTarm:   serial port via github.com/tarm/serial, for hosts where the
//     native backend cannot configure the adapter.
//   - BackendTCP:    a serial-to-network bridge reachable at host:port.
//
// Every backend reports "no byte arrived within the read timeout" as ErrTimeout,
// distinct from a lost or closed connection. Drivers rely on that distinction to
// keep waiting on a slow controller while failing fast on a dead link.
package transport
