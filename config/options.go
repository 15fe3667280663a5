package config

import (
	"fmt"
	"sort"
	"time"

	"github.com/arloliu/go-pnp/head"
	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/transport"
)

// Options converts a validated, normalized configuration into driver options.
// The port address is returned separately for head.NewDriverConfig.
func Options(cfg *Config) (address string, opts []head.DriverOption, err error) {
	h := cfg.Head
	p := h.Port

	opts = []head.DriverOption{
		head.WithBackend(transport.Backend(p.Backend)),
		head.WithBaudRate(p.BaudRate),
		head.WithLineSettings(p.DataBits, transport.Parity(p.Parity), p.StopBits),
		head.WithReadTimeout(time.Duration(p.ReadTimeoutMs) * time.Millisecond),
		head.WithDialTimeout(time.Duration(p.DialTimeoutMs) * time.Millisecond),
		head.WithReadRetryPolicy(head.ReadRetryPolicy{
			MaxAttempts: h.ReadRetry.MaxAttempts,
			Deadline:    time.Duration(h.ReadRetry.DeadlineMs) * time.Millisecond,
		}),
		head.WithMaxPollAttempts(h.MaxPollAttempts),
	}

	if h.Home != nil {
		opts = append(opts, head.WithHomePosition(h.Home.X, h.Home.Y))
	}
	if h.VerifyStatusChecksum != nil {
		opts = append(opts, head.WithStatusChecksum(*h.VerifyStatusChecksum))
	}

	names := make([]string, 0, len(h.ToolOffsets))
	for name := range h.ToolOffsets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		off := h.ToolOffsets[name]

		n, err := head.ParseNozzleID(name)
		if err != nil {
			return "", nil, fmt.Errorf("config: head.tool_offsets: %w", err)
		}
		units, err := location.ParseUnit(off.Units)
		if err != nil {
			return "", nil, fmt.Errorf("config: head.tool_offsets.%s: %w", name, err)
		}

		opts = append(opts, head.WithToolOffset(n, location.Location{
			Units: units, X: off.X, Y: off.Y, Z: off.Z, C: off.C,
		}))
	}

	return p.Address, opts, nil
}

// DriverConfig builds a head.DriverConfig from cfg. extra options are applied
// after the file settings, so they win.
func DriverConfig(cfg *Config, extra ...head.DriverOption) (*head.DriverConfig, error) {
	address, opts, err := Options(cfg)
	if err != nil {
		return nil, err
	}

	return head.NewDriverConfig(address, append(opts, extra...)...)
}
