package head

import (
	"errors"
	"fmt"
)

// Sentinel errors of the head driver.
var (
	// ErrProtocolMismatch indicates the controller answered a handshake with an unexpected byte.
	ErrProtocolMismatch = errors.New("head: protocol mismatch")
	// ErrTimeout indicates the read retry policy or poll limit was exhausted.
	ErrTimeout = errors.New("head: timeout waiting for controller")
	// ErrChecksumMismatch indicates a status payload failed checksum verification.
	ErrChecksumMismatch = errors.New("head: checksum mismatch")
	// ErrTransport indicates the byte stream failed; the exchange was aborted.
	ErrTransport = errors.New("head: transport failure")
	// ErrNotConnected indicates an operation on a driver that is not connected.
	ErrNotConnected = errors.New("head: driver is not connected")
	// ErrInvalidNozzle indicates a nozzle id outside N1..N4.
	ErrInvalidNozzle = errors.New("head: invalid nozzle")
	// ErrConfigNil indicates a nil DriverConfig was provided.
	ErrConfigNil = errors.New("head: driver config is nil")
)

// Stage is the step of an exchange a failure happened at.
type Stage string

const (
	StageOpen    Stage = "open"
	StageSelect  Stage = "select"
	StagePayload Stage = "payload"
	StagePoll    Stage = "poll"
	StageFetch   Stage = "fetch"
)

// ProtocolError reports a handshake byte that did not match the expected ack.
// It matches ErrProtocolMismatch with errors.Is.
type ProtocolError struct {
	Command  string
	Stage    Stage
	Expected byte
	Received byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("head: %s %s: expected ack 0x%02x, received 0x%02x",
		e.Command, e.Stage, e.Expected, e.Received)
}

func (e *ProtocolError) Is(target error) bool {
	return target == ErrProtocolMismatch
}

// ChecksumError reports a status payload whose trailing byte did not match.
// It matches ErrChecksumMismatch with errors.Is.
type ChecksumError struct {
	Command  string
	Expected byte
	Received byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("head: %s: checksum mismatch: computed 0x%02x, wire 0x%02x",
		e.Command, e.Expected, e.Received)
}

func (e *ChecksumError) Is(target error) bool {
	return target == ErrChecksumMismatch
}
