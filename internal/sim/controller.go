// Package sim provides a simulated head controller that speaks the device side
// of the wire protocol. It is used by tests and by the bench CLI's --sim mode.
package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/wire"
)

// NozzleCount is the number of nozzles on the simulated head.
const NozzleCount = 4

// Reply bytes the simulator uses when it does not like what it received.
const (
	UnknownOpcodeReply byte = 0xEE
	BusyReply          byte = 0x00
)

// Home position the simulated gantry moves to.
const (
	HomeX = -437.0
	HomeY = 437.0
)

// Stage identifies the handshake step a fault is injected at.
type Stage int

const (
	StageNone Stage = iota
	StagePrimary
	StageSecondary
	StageFetch
)

// Exchange is one completed command as seen by the controller.
type Exchange struct {
	Command  string
	Payload  wire.Payload
	Checksum byte
	// ChecksumOK is false when the trailing byte did not match the payload.
	ChecksumOK bool
	// Polls counts the poll opcodes received before completion was answered.
	Polls int
}

// State is the physical state of the simulated head.
type State struct {
	X, Y       float64
	Z, C       [NozzleCount]float64
	Air        [NozzleCount]byte
	LightsDown byte
	LightsUp   byte
	Homed      bool
}

// Controller is a simulated head controller. It is safe to inspect from other
// goroutines while Serve runs.
type Controller struct {
	mu        sync.Mutex
	state     State
	exchanges []Exchange

	busyPolls     int
	faultStage    Stage
	faultCommand  string
	faultReply    byte
	corruptStatus bool
	silentAfter   int
	bytesRead     int
	bytesWritten  int
	logger        logger.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithBusyPolls makes the controller answer n polls with BusyReply before completing.
func WithBusyPolls(n int) Option {
	return func(c *Controller) { c.busyPolls = n }
}

// WithWrongAck makes the controller answer the given stage of every exchange of
// command (a wire.Command name, empty for all) with reply instead of the expected ack.
func WithWrongAck(command string, stage Stage, reply byte) Option {
	return func(c *Controller) {
		c.faultCommand = command
		c.faultStage = stage
		c.faultReply = reply
	}
}

// WithCorruptStatus makes read-status replies carry a wrong checksum byte.
func WithCorruptStatus() Option {
	return func(c *Controller) { c.corruptStatus = true }
}

// WithSilenceAfter makes the controller stop answering after n bytes have been read.
func WithSilenceAfter(n int) Option {
	return func(c *Controller) { c.silentAfter = n }
}

// WithLogger sets the controller's logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// New creates a simulated controller with all axes at zero.
func New(opts ...Option) *Controller {
	c := &Controller{logger: logger.GetLogger()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns a copy of the physical state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SetAir sets the air sensor value reported for the 1-based nozzle id.
func (c *Controller) SetAir(nozzle int, v byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Air[nozzle-1] = v
}

// Exchanges returns the completed exchanges in order.
func (c *Controller) Exchanges() []Exchange {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Exchange, len(c.exchanges))
	copy(out, c.exchanges)

	return out
}

// ExchangesOf returns the completed exchanges of the named command.
func (c *Controller) ExchangesOf(command string) []Exchange {
	var out []Exchange
	for _, ex := range c.Exchanges() {
		if ex.Command == command {
			out = append(out, ex)
		}
	}

	return out
}

// BytesRead returns the number of bytes the controller has received.
func (c *Controller) BytesRead() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.bytesRead
}

// ClearExchanges forgets the recorded exchanges and byte counters.
func (c *Controller) ClearExchanges() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.exchanges = nil
	c.bytesRead = 0
	c.bytesWritten = 0
}

// Serve runs the device side of the protocol on rw until ctx is cancelled or
// the stream ends. A closed stream is not an error.
func (c *Controller) Serve(ctx context.Context, rw io.ReadWriter) error {
	s := &session{c: c, rw: rw}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		op, err := s.read()
		if err != nil {
			return endOfStream(err)
		}

		if err := s.dispatch(op); err != nil {
			return endOfStream(err)
		}
	}
}

// ServeListener accepts connections on ln and serves them one at a time until
// ctx is cancelled.
func (c *Controller) ServeListener(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("sim: accept: %w", err)
		}

		err = c.Serve(ctx, conn)
		_ = conn.Close()
		if err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Warn("sim: session ended", "error", err)
		}
	}
}

func endOfStream(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) || errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}

type session struct {
	c  *Controller
	rw io.ReadWriter
}

func (s *session) read() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(s.rw, b[:]); err != nil {
		return 0, err
	}

	s.c.mu.Lock()
	s.c.bytesRead++
	silent := s.c.silentAfter > 0 && s.c.bytesRead > s.c.silentAfter
	s.c.mu.Unlock()

	if silent {
		// keep draining so the host never blocks on write
		for {
			if _, err := io.ReadFull(s.rw, b[:]); err != nil {
				return 0, err
			}
		}
	}

	return b[0], nil
}

func (s *session) write(b ...byte) error {
	s.c.mu.Lock()
	s.c.bytesWritten += len(b)
	s.c.mu.Unlock()

	_, err := s.rw.Write(b)

	return err
}

func (s *session) reply(cmd wire.Command, stage Stage, want byte) error {
	s.c.mu.Lock()
	fault := s.c.faultStage == stage && (s.c.faultCommand == "" || s.c.faultCommand == cmd.Name)
	faultReply := s.c.faultReply
	s.c.mu.Unlock()

	if fault {
		return s.write(faultReply)
	}

	return s.write(want)
}

func (s *session) dispatch(op byte) error {
	matches := wire.LookupPrimary(op)
	if len(matches) == 0 {
		s.c.logger.Debug("sim: unknown opcode", "opcode", fmt.Sprintf("%02x", op))
		return s.write(UnknownOpcodeReply)
	}
	cmd := matches[0]

	if err := s.reply(cmd, StagePrimary, cmd.PrimaryAck); err != nil {
		return err
	}

	sel, err := s.read()
	if err != nil {
		return err
	}
	if sel != cmd.SecondaryOpcode {
		return s.write(UnknownOpcodeReply)
	}
	if err := s.reply(cmd, StageSecondary, cmd.SecondaryAck); err != nil {
		return err
	}

	if cmd.Name == wire.ReadStatus.Name {
		return s.status()
	}

	return s.command(op)
}

func (s *session) status() error {
	fetch, err := s.read()
	if err != nil {
		return err
	}
	if fetch != wire.ReadStatus.PollOpcode {
		return s.write(UnknownOpcodeReply)
	}
	if err := s.reply(wire.ReadStatus, StageFetch, wire.ReadStatus.PollResponse); err != nil {
		return err
	}

	s.c.mu.Lock()
	var p wire.Payload
	copy(p[:], s.c.state.Air[:])
	sum := wire.ChecksumByte(p[:])
	if s.c.corruptStatus {
		sum ^= 0xFF
	}
	s.c.exchanges = append(s.c.exchanges, Exchange{
		Command: wire.ReadStatus.Name, Payload: p, Checksum: sum, ChecksumOK: !s.c.corruptStatus,
	})
	s.c.mu.Unlock()

	return s.write(append(p[:], sum)...)
}

func (s *session) command(op byte) error {
	var frame [wire.PayloadSize + 1]byte
	for i := range frame {
		b, err := s.read()
		if err != nil {
			return err
		}
		frame[i] = b
	}

	var p wire.Payload
	copy(p[:], frame[:wire.PayloadSize])
	cmd := classify(op, &p)

	ex := Exchange{
		Command:    cmd.Name,
		Payload:    p,
		Checksum:   frame[wire.PayloadSize],
		ChecksumOK: wire.ChecksumByte(p[:]) == frame[wire.PayloadSize],
	}

	s.c.mu.Lock()
	busy := s.c.busyPolls
	s.c.mu.Unlock()

	for {
		poll, err := s.read()
		if err != nil {
			return err
		}
		if poll != cmd.PollOpcode {
			if err := s.write(UnknownOpcodeReply); err != nil {
				return err
			}
			continue
		}

		ex.Polls++
		if ex.Polls <= busy {
			if err := s.write(BusyReply); err != nil {
				return err
			}
			continue
		}

		break
	}

	s.c.mu.Lock()
	if ex.ChecksumOK {
		s.c.apply(cmd, &p)
	}
	s.c.exchanges = append(s.c.exchanges, ex)
	s.c.mu.Unlock()

	return s.write(cmd.PollResponse)
}

// classify tells Home and LightsUp apart by payload; they share their opcodes.
func classify(op byte, p *wire.Payload) wire.Command {
	matches := wire.LookupPrimary(op)
	if len(matches) == 1 {
		return matches[0]
	}
	if *p == wire.HomePayload() {
		return wire.Home
	}

	return wire.LightsUp
}

// apply must be called with c.mu held.
func (c *Controller) apply(cmd wire.Command, p *wire.Payload) {
	switch cmd.Name {
	case wire.Home.Name:
		c.state.X, c.state.Y = HomeX, HomeY
		c.state.Homed = true
	case wire.MoveXY.Name:
		c.state.X, c.state.Y = wire.DecodeMoveXY(p)
	case wire.MoveZ.Name:
		z, n := wire.DecodeMoveZ(p)
		if n >= 1 && n <= NozzleCount {
			c.state.Z[n-1] = z
		}
	case wire.MoveC.Name:
		v, n := wire.DecodeMoveC(p)
		if n >= 1 && n <= NozzleCount {
			c.state.C[n-1] = v
		}
	case wire.ActuateAir.Name:
		if n := p[1]; n >= 1 && n <= NozzleCount {
			c.state.Air[n-1] = p[0]
		}
	case wire.LightsDown.Name:
		c.state.LightsDown = p[0]
	case wire.LightsUp.Name:
		c.state.LightsUp = p[4]
	}
}
