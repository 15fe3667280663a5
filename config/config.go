// Package config loads head driver settings from a YAML file and turns them
// into head.DriverOption values.
//
// The expected order is Load, Validate, Normalize, Options.
package config

// Config is the root of a driver settings file.
type Config struct {
	Head HeadConfig `yaml:"head"`
}

// ---- HEAD ----

type HeadConfig struct {
	Port            PortConfig      `yaml:"port"`
	ReadRetry       ReadRetryConfig `yaml:"read_retry"`
	MaxPollAttempts int             `yaml:"max_poll_attempts"` // 0 = poll until done

	// Home is the gantry position recorded after homing (optional).
	Home *PositionConfig `yaml:"home"`

	// ToolOffsets is keyed by nozzle name ("N1".."N4").
	ToolOffsets map[string]OffsetConfig `yaml:"tool_offsets"`

	// VerifyStatusChecksum defaults to true when omitted.
	VerifyStatusChecksum *bool `yaml:"verify_status_checksum"`

	LogLevel string `yaml:"log_level"`
}

// ---- PORT ----

type PortConfig struct {
	Backend       string `yaml:"backend"` // serial | tarm | tcp
	Address       string `yaml:"address"`
	BaudRate      int    `yaml:"baud_rate"`
	DataBits      int    `yaml:"data_bits"`
	StopBits      int    `yaml:"stop_bits"`
	Parity        string `yaml:"parity"` // N | O | E
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
	DialTimeoutMs int    `yaml:"dial_timeout_ms"`
}

// ---- READ RETRY ----

// ReadRetryConfig bounds how long a read waits for a byte. Zero values mean unbounded.
type ReadRetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	DeadlineMs  int `yaml:"deadline_ms"`
}

// ---- GEOMETRY ----

type PositionConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

type OffsetConfig struct {
	Units string  `yaml:"units"` // mm | cm | m | in | mil
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	C     float64 `yaml:"c"`
}
