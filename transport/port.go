package transport

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTimeout indicates no byte arrived within the port's read timeout.
	ErrTimeout = errors.New("transport: read timeout")

	// ErrClosed indicates the port was closed locally or by the remote end.
	ErrClosed = errors.New("transport: port closed")

	// ErrUnknownBackend indicates an unsupported backend name.
	ErrUnknownBackend = errors.New("transport: unknown backend")
)

// Port is a byte stream to the head controller.
//
// Read returns ErrTimeout (possibly wrapped) with n == 0 when no data arrived
// within the configured read timeout. Any other error is a connection failure.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

// Backend selects the port implementation.
type Backend string

const (
	BackendSerial Backend = "serial"
	BackendTarm   Backend = "tarm"
	BackendTCP    Backend = "tcp"
)

// ParseBackend converts a backend name into a Backend.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case BackendSerial, BackendTarm, BackendTCP:
		return b, nil
	case "":
		return BackendSerial, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}

// Parity of a serial line.
type Parity string

const (
	ParityNone Parity = "N"
	ParityOdd  Parity = "O"
	ParityEven Parity = "E"
)

// Default line settings of the head controller.
const (
	DefaultBaudRate    = 115200
	DefaultDataBits    = 8
	DefaultStopBits    = 1
	DefaultReadTimeout = 100 * time.Millisecond
	DefaultDialTimeout = 3 * time.Second
)

// Config describes how to open a Port.
type Config struct {
	Backend Backend
	// Address is a device path ("/dev/ttyUSB0", "COM3") or, for BackendTCP, "host:port".
	Address     string
	BaudRate    int
	DataBits    int
	StopBits    int
	Parity      Parity
	ReadTimeout time.Duration
	DialTimeout time.Duration
}

// DefaultConfig returns the 115200 8N1 settings for the serial device at address.
func DefaultConfig(address string) Config {
	return Config{
		Backend:     BackendSerial,
		Address:     address,
		BaudRate:    DefaultBaudRate,
		DataBits:    DefaultDataBits,
		StopBits:    DefaultStopBits,
		Parity:      ParityNone,
		ReadTimeout: DefaultReadTimeout,
		DialTimeout: DefaultDialTimeout,
	}
}

// Validate checks the configuration without opening anything.
func (c Config) Validate() error {
	if c.Address == "" {
		return errors.New("transport: address is required")
	}
	if _, err := ParseBackend(string(c.Backend)); err != nil {
		return err
	}
	if c.ReadTimeout <= 0 {
		return errors.New("transport: read timeout must be positive")
	}
	if c.Backend == BackendTCP {
		return nil
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("transport: invalid baud rate %d", c.BaudRate)
	}
	if c.DataBits < 5 || c.DataBits > 8 {
		return fmt.Errorf("transport: data bits %d out of range [5, 8]", c.DataBits)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("transport: stop bits must be 1 or 2, got %d", c.StopBits)
	}
	switch c.Parity {
	case ParityNone, ParityOdd, ParityEven:
	default:
		return fmt.Errorf("transport: invalid parity %q", c.Parity)
	}

	return nil
}

// Open opens the port described by cfg.
func Open(cfg Config) (Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendTarm:
		return openTarm(cfg)
	case BackendTCP:
		return dialTCP(cfg)
	default:
		return openSerial(cfg)
	}
}

// IsTimeout reports whether err signals an empty read rather than a failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
