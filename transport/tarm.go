package transport

import (
	"errors"
	"fmt"
	"io"
	"os"

	tarm "github.com/tarm/serial"
)

// tarmPort adapts a tarm/serial port. On POSIX hosts an expired read timeout
// surfaces as (0, io.EOF), on Windows as (0, nil); both mean "no byte yet".
// A locally closed port reports os.ErrClosed.
type tarmPort struct {
	port io.ReadWriteCloser
}

func openTarm(cfg Config) (Port, error) {
	c := &tarm.Config{
		Name:        cfg.Address,
		Baud:        cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
		Size:        byte(cfg.DataBits), //nolint:gosec // validated to [5, 8]
		Parity:      tarmParity(cfg.Parity),
		StopBits:    tarm.Stop1,
	}
	if cfg.StopBits == 2 {
		c.StopBits = tarm.Stop2
	}

	p, err := tarm.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("transport: open serial port %s: %w", cfg.Address, err)
	}

	return &tarmPort{port: p}, nil
}

func tarmParity(p Parity) tarm.Parity {
	switch p {
	case ParityOdd:
		return tarm.ParityOdd
	case ParityEven:
		return tarm.ParityEven
	default:
		return tarm.ParityNone
	}
}

func (p *tarmPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && len(b) > 0 && (err == nil || errors.Is(err, io.EOF)) {
		return 0, ErrTimeout
	}
	if err != nil {
		return n, mapTarmErr(err)
	}

	return n, nil
}

func (p *tarmPort) Write(b []byte) (int, error) {
	n, err := p.port.Write(b)
	if err != nil {
		return n, mapTarmErr(err)
	}

	return n, nil
}

func (p *tarmPort) Close() error {
	return p.port.Close()
}

func mapTarmErr(err error) error {
	if errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
