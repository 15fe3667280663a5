package head

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/transport"
)

// Axis limits of the head.
const (
	MinZ = -12.0 // fully down, mm
	MaxZ = 0.0   // fully up, mm
	MinC = -180.0
	MaxC = 180.0
)

// Default home position of the gantry, in millimeters.
const (
	DefaultHomeX = -437.0
	DefaultHomeY = 437.0
)

// MaxPollAttemptsLimit bounds WithMaxPollAttempts.
const MaxPollAttemptsLimit = 1 << 20

// ReadRetryPolicy controls how long a read keeps retrying while the transport
// reports that no byte has arrived yet.
//
// The zero value retries forever, which is how the controller's own host
// software behaves. Setting either field bounds the wait; the read then fails
// with ErrTimeout.
type ReadRetryPolicy struct {
	// MaxAttempts is the number of transport reads per byte. 0 means unbounded.
	MaxAttempts int
	// Deadline bounds the total time spent waiting for one byte. 0 means none.
	Deadline time.Duration
}

// Unbounded reports whether the policy never gives up.
func (p ReadRetryPolicy) Unbounded() bool {
	return p.MaxAttempts == 0 && p.Deadline == 0
}

// Opener opens the byte stream to the controller.
type Opener func(ctx context.Context) (transport.Port, error)

// PumpFunc is called when the vacuum pump should change state because the
// first part was picked (on == true) or the last part was placed (on == false).
type PumpFunc func(ctx context.Context, on bool) error

// DriverConfig holds all configuration for a head Driver.
type DriverConfig struct {
	port   transport.Config
	opener Opener

	readRetry       ReadRetryPolicy
	maxPollAttempts int

	homeX, homeY float64
	toolOffsets  [NozzleCount]location.Location

	verifyStatusChecksum bool
	pumpFunc             PumpFunc

	logger logger.Logger
}

// NewDriverConfig creates a new driver configuration for the serial device at address.
//
// address may be empty when WithOpener supplies the byte stream.
// opts are functional options applied in order; see With* functions.
func NewDriverConfig(address string, opts ...DriverOption) (*DriverConfig, error) {
	cfg := &DriverConfig{
		port:                 transport.DefaultConfig(address),
		homeX:                DefaultHomeX,
		homeY:                DefaultHomeY,
		verifyStatusChecksum: true,
		logger:               logger.GetLogger(),
	}
	for i := range cfg.toolOffsets {
		cfg.toolOffsets[i] = location.New(0, 0, 0, 0)
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.opener == nil {
		if err := cfg.port.Validate(); err != nil {
			return nil, fmt.Errorf("head: %w", err)
		}
	}

	return cfg, nil
}

// --- Getters ---

// Port returns the transport configuration.
func (cfg *DriverConfig) Port() transport.Config { return cfg.port }

// ReadRetryPolicy returns the read retry policy.
func (cfg *DriverConfig) ReadRetryPolicy() ReadRetryPolicy { return cfg.readRetry }

// MaxPollAttempts returns the poll limit per exchange. 0 means unbounded.
func (cfg *DriverConfig) MaxPollAttempts() int { return cfg.maxPollAttempts }

// HomePosition returns the gantry position recorded after homing.
func (cfg *DriverConfig) HomePosition() (x, y float64) { return cfg.homeX, cfg.homeY }

// ToolOffset returns the offset added to the reported location of nozzle n.
func (cfg *DriverConfig) ToolOffset(n NozzleID) location.Location {
	if !n.Valid() {
		return location.New(0, 0, 0, 0)
	}

	return cfg.toolOffsets[n.Index()]
}

// VerifyStatusChecksum returns whether status payload checksums are verified.
func (cfg *DriverConfig) VerifyStatusChecksum() bool { return cfg.verifyStatusChecksum }

// GetLogger returns the configured logger.
func (cfg *DriverConfig) GetLogger() logger.Logger { return cfg.logger }

func (cfg *DriverConfig) openPort(ctx context.Context) (transport.Port, error) {
	if cfg.opener != nil {
		return cfg.opener(ctx)
	}

	return transport.Open(cfg.port)
}

// --- DriverOption ---

// DriverOption is a functional option for configuring a DriverConfig.
type DriverOption interface {
	apply(*DriverConfig) error
}

type driverOptFunc func(*DriverConfig) error

func (f driverOptFunc) apply(cfg *DriverConfig) error { return f(cfg) }

// WithBackend selects the transport backend. The default is transport.BackendSerial.
func WithBackend(b transport.Backend) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		backend, err := transport.ParseBackend(string(b))
		if err != nil {
			return fmt.Errorf("head: %w", err)
		}
		cfg.port.Backend = backend

		return nil
	})
}

// WithBaudRate sets the serial line speed.
func WithBaudRate(baud int) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if baud <= 0 {
			return fmt.Errorf("head: baud rate %d must be positive", baud)
		}
		cfg.port.BaudRate = baud

		return nil
	})
}

// WithLineSettings sets data bits, parity and stop bits of the serial line.
func WithLineSettings(dataBits int, parity transport.Parity, stopBits int) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		cfg.port.DataBits = dataBits
		cfg.port.Parity = parity
		cfg.port.StopBits = stopBits

		return nil
	})
}

// WithReadTimeout sets the transport read timeout, the interval after which
// the transport reports that no byte has arrived yet.
func WithReadTimeout(d time.Duration) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if d <= 0 {
			return errors.New("head: read timeout must be positive")
		}
		cfg.port.ReadTimeout = d

		return nil
	})
}

// WithDialTimeout sets the connect timeout of the TCP backend.
func WithDialTimeout(d time.Duration) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if d <= 0 {
			return errors.New("head: dial timeout must be positive")
		}
		cfg.port.DialTimeout = d

		return nil
	})
}

// WithReadRetryPolicy sets how long reads keep retrying on transport timeouts.
func WithReadRetryPolicy(p ReadRetryPolicy) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if p.MaxAttempts < 0 {
			return fmt.Errorf("head: max read attempts %d must not be negative", p.MaxAttempts)
		}
		if p.Deadline < 0 {
			return fmt.Errorf("head: read deadline %v must not be negative", p.Deadline)
		}
		cfg.readRetry = p

		return nil
	})
}

// WithMaxPollAttempts bounds the number of poll opcodes sent per exchange.
// 0 (the default) polls until the controller reports completion.
func WithMaxPollAttempts(n int) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if n < 0 || n > MaxPollAttemptsLimit {
			return fmt.Errorf("head: max poll attempts %d out of range [0, %d]", n, MaxPollAttemptsLimit)
		}
		cfg.maxPollAttempts = n

		return nil
	})
}

// WithHomePosition sets the gantry position, in millimeters, recorded after homing.
func WithHomePosition(x, y float64) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return errors.New("head: home position must be finite")
		}
		cfg.homeX, cfg.homeY = x, y

		return nil
	})
}

// WithToolOffset sets the offset of nozzle n relative to the head.
// Reported locations add the offset; move targets subtract it.
func WithToolOffset(n NozzleID, offset location.Location) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if !n.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidNozzle, uint8(n))
		}
		if !offset.Units.Valid() {
			return fmt.Errorf("head: tool offset for %s has invalid units", n)
		}
		for _, v := range []float64{offset.X, offset.Y, offset.Z, offset.C} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("head: tool offset for %s must be finite", n)
			}
		}
		cfg.toolOffsets[n.Index()] = offset.In(location.Millimeters)

		return nil
	})
}

// WithStatusChecksum enables or disables checksum verification of status
// payloads. Enabled by default. Disabling it accepts corrupted payloads and
// only logs the mismatch, matching older host software.
func WithStatusChecksum(verify bool) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		cfg.verifyStatusChecksum = verify

		return nil
	})
}

// WithPumpFunc sets the action run on pump state transitions.
// The default does nothing.
func WithPumpFunc(f PumpFunc) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		cfg.pumpFunc = f

		return nil
	})
}

// WithOpener replaces the transport backend with a custom byte stream.
func WithOpener(o Opener) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if o == nil {
			return errors.New("head: opener must not be nil")
		}
		cfg.opener = o

		return nil
	})
}

// WithLogger sets the logger for the driver.
func WithLogger(l logger.Logger) DriverOption {
	return driverOptFunc(func(cfg *DriverConfig) error {
		if l == nil {
			return errors.New("head: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
