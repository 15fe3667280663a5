package head

import (
	"context"
	"fmt"

	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/wire"
)

// sequencer runs protocol exchanges over a commandChannel.
//
// This type is NOT goroutine-safe. The driver must ensure that only one
// exchange is active at a time, consistent with the half-duplex nature of the link.
type sequencer struct {
	ch      *commandChannel
	cfg     *DriverConfig
	logger  logger.Logger
	metrics *DriverMetrics
}

func newSequencer(ch *commandChannel, cfg *DriverConfig, l logger.Logger, m *DriverMetrics) *sequencer {
	return &sequencer{ch: ch, cfg: cfg, logger: l, metrics: m}
}

// execute runs a payload-bearing exchange end to end:
//
//  1. Open: write the primary opcode, expect the primary ack.
//  2. Select: write the secondary opcode, expect the secondary ack.
//  3. Payload: write the 8 payload bytes and their checksum byte.
//  4. Poll: write the poll opcode until the poll response is read.
//
// A mismatched ack aborts the exchange with a *ProtocolError.
func (s *sequencer) execute(ctx context.Context, cmd wire.Command, p wire.Payload) error {
	s.logger.Debug("head: exchange start", "command", cmd.Name, "payload", fmt.Sprintf("% x", p[:]))

	err := s.run(ctx, cmd, p)
	if err != nil {
		s.fail(cmd, err)
		return err
	}

	s.metrics.incExchangeCount()
	s.logger.Debug("head: exchange done", "command", cmd.Name)

	return nil
}

func (s *sequencer) run(ctx context.Context, cmd wire.Command, p wire.Payload) error {
	if err := s.handshake(ctx, cmd, StageOpen, cmd.PrimaryOpcode, cmd.PrimaryAck); err != nil {
		return err
	}
	if err := s.handshake(ctx, cmd, StageSelect, cmd.SecondaryOpcode, cmd.SecondaryAck); err != nil {
		return err
	}

	var frame [wire.PayloadSize + 1]byte
	copy(frame[:], p[:])
	frame[wire.PayloadSize] = wire.ChecksumByte(p[:])

	if err := s.ch.writeAll(frame[:]); err != nil {
		return fmt.Errorf("head: %s %s: %w", cmd.Name, StagePayload, err)
	}

	return s.poll(ctx, cmd)
}

// poll writes the poll opcode afresh for every read until the controller
// reports completion. Any other byte means the move is still in progress.
func (s *sequencer) poll(ctx context.Context, cmd wire.Command) error {
	limit := s.cfg.maxPollAttempts

	for attempt := 1; ; attempt++ {
		if err := s.ch.writeByte(cmd.PollOpcode); err != nil {
			return fmt.Errorf("head: %s %s: %w", cmd.Name, StagePoll, err)
		}
		s.metrics.incPollCount()

		b, err := s.ch.readByte(ctx)
		if err != nil {
			return fmt.Errorf("head: %s %s: %w", cmd.Name, StagePoll, err)
		}
		if b == cmd.PollResponse {
			return nil
		}

		if limit > 0 && attempt >= limit {
			return fmt.Errorf("head: %s %s: %w: no completion after %d polls", cmd.Name, StagePoll, ErrTimeout, attempt)
		}
	}
}

// readStatus runs the read-status exchange and returns the 8-byte status payload.
//
// After Open and Select, the fetch opcode is written and acknowledged, then the
// controller sends 8 payload bytes and a checksum byte.
func (s *sequencer) readStatus(ctx context.Context) (wire.Payload, error) {
	cmd := wire.ReadStatus
	s.logger.Debug("head: exchange start", "command", cmd.Name)

	p, err := s.runStatus(ctx, cmd)
	if err != nil {
		s.fail(cmd, err)
		return wire.Payload{}, err
	}

	s.metrics.incExchangeCount()
	s.logger.Debug("head: exchange done", "command", cmd.Name, "payload", fmt.Sprintf("% x", p[:]))

	return p, nil
}

func (s *sequencer) runStatus(ctx context.Context, cmd wire.Command) (wire.Payload, error) {
	var p wire.Payload

	if err := s.handshake(ctx, cmd, StageOpen, cmd.PrimaryOpcode, cmd.PrimaryAck); err != nil {
		return p, err
	}
	if err := s.handshake(ctx, cmd, StageSelect, cmd.SecondaryOpcode, cmd.SecondaryAck); err != nil {
		return p, err
	}
	if err := s.handshake(ctx, cmd, StageFetch, cmd.PollOpcode, cmd.PollResponse); err != nil {
		return p, err
	}

	for i := range p {
		b, err := s.ch.readByte(ctx)
		if err != nil {
			return p, fmt.Errorf("head: %s %s: %w", cmd.Name, StagePayload, err)
		}
		p[i] = b
	}

	wireSum, err := s.ch.readByte(ctx)
	if err != nil {
		return p, fmt.Errorf("head: %s %s: %w", cmd.Name, StagePayload, err)
	}

	if sum := wire.ChecksumByte(p[:]); sum != wireSum {
		cerr := &ChecksumError{Command: cmd.Name, Expected: sum, Received: wireSum}
		if s.cfg.verifyStatusChecksum {
			s.metrics.incChecksumErrCount()
			return p, cerr
		}
		s.logger.Warn("head: status checksum ignored", "error", cerr)
	}

	return p, nil
}

func (s *sequencer) handshake(ctx context.Context, cmd wire.Command, stage Stage, op, ack byte) error {
	if err := s.ch.writeByte(op); err != nil {
		return fmt.Errorf("head: %s %s: %w", cmd.Name, stage, err)
	}

	b, err := s.ch.readByte(ctx)
	if err != nil {
		return fmt.Errorf("head: %s %s: %w", cmd.Name, stage, err)
	}

	if b != ack {
		s.metrics.incProtocolErrCount()
		return &ProtocolError{Command: cmd.Name, Stage: stage, Expected: ack, Received: b}
	}

	return nil
}

func (s *sequencer) fail(cmd wire.Command, err error) {
	s.metrics.incExchangeErrCount()
	s.logger.Error("head: exchange aborted", "command", cmd.Name, "error", err)
}
