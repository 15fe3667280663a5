package config

import (
	"strings"
	"time"

	"github.com/arloliu/go-pnp/head"
	"github.com/arloliu/go-pnp/transport"
)

// Normalize fills in defaults for every omitted setting.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	h := &cfg.Head

	p := &h.Port
	if p.Backend == "" {
		p.Backend = string(transport.BackendSerial)
	}
	p.Backend = strings.ToLower(strings.TrimSpace(p.Backend))
	if p.BaudRate == 0 {
		p.BaudRate = transport.DefaultBaudRate
	}
	if p.DataBits == 0 {
		p.DataBits = transport.DefaultDataBits
	}
	if p.StopBits == 0 {
		p.StopBits = transport.DefaultStopBits
	}
	if p.Parity == "" {
		p.Parity = string(transport.ParityNone)
	}
	if p.ReadTimeoutMs == 0 {
		p.ReadTimeoutMs = int(transport.DefaultReadTimeout / time.Millisecond)
	}
	if p.DialTimeoutMs == 0 {
		p.DialTimeoutMs = int(transport.DefaultDialTimeout / time.Millisecond)
	}

	if h.Home == nil {
		h.Home = &PositionConfig{X: head.DefaultHomeX, Y: head.DefaultHomeY}
	}

	// nozzle keys are matched case-insensitively; store them canonical
	if len(h.ToolOffsets) > 0 {
		offsets := make(map[string]OffsetConfig, len(h.ToolOffsets))
		for name, off := range h.ToolOffsets {
			if off.Units == "" {
				off.Units = "mm"
			}
			offsets[strings.ToUpper(strings.TrimSpace(name))] = off
		}
		h.ToolOffsets = offsets
	}

	if h.VerifyStatusChecksum == nil {
		verify := true
		h.VerifyStatusChecksum = &verify
	}

	if h.LogLevel == "" {
		h.LogLevel = "info"
	}
}
