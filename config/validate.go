package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/arloliu/go-pnp/head"
	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/transport"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	h := cfg.Head

	// ------------------------------------------------------------
	// PORT
	// ------------------------------------------------------------

	p := h.Port
	if p.Address == "" {
		return errors.New("config: head.port.address is required")
	}
	if _, err := transport.ParseBackend(p.Backend); err != nil {
		return fmt.Errorf("config: head.port.backend: %w", err)
	}
	if p.BaudRate < 0 {
		return fmt.Errorf("config: head.port.baud_rate %d must not be negative", p.BaudRate)
	}
	if p.DataBits != 0 && (p.DataBits < 5 || p.DataBits > 8) {
		return fmt.Errorf("config: head.port.data_bits %d out of range [5, 8]", p.DataBits)
	}
	if p.StopBits != 0 && p.StopBits != 1 && p.StopBits != 2 {
		return fmt.Errorf("config: head.port.stop_bits must be 1 or 2, got %d", p.StopBits)
	}
	switch transport.Parity(p.Parity) {
	case "", transport.ParityNone, transport.ParityOdd, transport.ParityEven:
	default:
		return fmt.Errorf("config: head.port.parity %q must be N, O or E", p.Parity)
	}
	if p.ReadTimeoutMs < 0 || p.DialTimeoutMs < 0 {
		return errors.New("config: head.port timeouts must not be negative")
	}

	// ------------------------------------------------------------
	// EXCHANGE LIMITS
	// ------------------------------------------------------------

	if h.ReadRetry.MaxAttempts < 0 || h.ReadRetry.DeadlineMs < 0 {
		return errors.New("config: head.read_retry values must not be negative")
	}
	if h.MaxPollAttempts < 0 || h.MaxPollAttempts > head.MaxPollAttemptsLimit {
		return fmt.Errorf("config: head.max_poll_attempts %d out of range [0, %d]",
			h.MaxPollAttempts, head.MaxPollAttemptsLimit)
	}

	// ------------------------------------------------------------
	// GEOMETRY
	// ------------------------------------------------------------

	if h.Home != nil && !finite(h.Home.X, h.Home.Y) {
		return errors.New("config: head.home must be finite")
	}

	for name, off := range h.ToolOffsets {
		if _, err := head.ParseNozzleID(name); err != nil {
			return fmt.Errorf("config: head.tool_offsets: %w", err)
		}
		if off.Units != "" {
			if _, err := location.ParseUnit(off.Units); err != nil {
				return fmt.Errorf("config: head.tool_offsets.%s: %w", name, err)
			}
		}
		if !finite(off.X, off.Y, off.Z, off.C) {
			return fmt.Errorf("config: head.tool_offsets.%s must be finite", name)
		}
	}

	if h.LogLevel != "" {
		if _, ok := logger.ParseLevel(h.LogLevel); !ok {
			return fmt.Errorf("config: head.log_level %q is not a known level", h.LogLevel)
		}
	}

	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
