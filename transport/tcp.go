package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"
)

// ConnPort adapts a net.Conn, such as a TCP serial bridge or one end of a
// net.Pipe, to the Port contract by applying a read deadline to every Read.
type ConnPort struct {
	conn        net.Conn
	readTimeout time.Duration
}

// NewConnPort wraps conn. readTimeout must be positive.
func NewConnPort(conn net.Conn, readTimeout time.Duration) *ConnPort {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}

	return &ConnPort{conn: conn, readTimeout: readTimeout}
}

func dialTCP(cfg Config) (Port, error) {
	timeout := cfg.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}

	conn, err := net.DialTimeout("tcp", cfg.Address, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", cfg.Address, err)
	}

	return NewConnPort(conn, cfg.ReadTimeout), nil
}

func (p *ConnPort) Read(b []byte) (int, error) {
	if err := p.conn.SetReadDeadline(time.Now().Add(p.readTimeout)); err != nil {
		return 0, mapConnErr(err)
	}

	n, err := p.conn.Read(b)
	if err != nil {
		return n, mapConnErr(err)
	}

	return n, nil
}

func (p *ConnPort) Write(b []byte) (int, error) {
	n, err := p.conn.Write(b)
	if err != nil {
		return n, mapConnErr(err)
	}

	return n, nil
}

func (p *ConnPort) Close() error {
	return p.conn.Close()
}

func mapConnErr(err error) error {
	var netErr net.Error
	if errors.Is(err, os.ErrDeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
