package head

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/arloliu/go-pnp/logger"
	"github.com/arloliu/go-pnp/transport"
)

// commandChannel owns the byte stream to the controller.
//
// Reads and writes are NOT serialized here; the driver runs one exchange at a
// time. open and close are serialized against each other by mu.
type commandChannel struct {
	mu     sync.Mutex
	portMu sync.RWMutex
	port   transport.Port

	cfg     *DriverConfig
	logger  logger.Logger
	metrics *DriverMetrics
}

func newCommandChannel(cfg *DriverConfig, l logger.Logger, m *DriverMetrics) *commandChannel {
	return &commandChannel{cfg: cfg, logger: l, metrics: m}
}

// open opens the byte stream. It is a no-op when already open.
func (ch *commandChannel) open(ctx context.Context) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.current() != nil {
		return nil
	}

	port, err := ch.cfg.openPort(ctx)
	if err != nil {
		return fmt.Errorf("%w: open: %w", ErrTransport, err)
	}

	ch.portMu.Lock()
	ch.port = port
	ch.portMu.Unlock()

	return nil
}

// close closes the byte stream. It is a no-op when already closed.
func (ch *commandChannel) close() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.portMu.Lock()
	port := ch.port
	ch.port = nil
	ch.portMu.Unlock()

	if port == nil {
		return nil
	}

	if err := port.Close(); err != nil {
		return fmt.Errorf("%w: close: %w", ErrTransport, err)
	}

	return nil
}

func (ch *commandChannel) current() transport.Port {
	ch.portMu.RLock()
	defer ch.portMu.RUnlock()

	return ch.port
}

// writeByte writes a single opcode byte.
func (ch *commandChannel) writeByte(b byte) error {
	return ch.writeAll([]byte{b})
}

// writeAll writes all bytes in data, tracing each one.
func (ch *commandChannel) writeAll(data []byte) error {
	port := ch.current()
	if port == nil {
		return ErrNotConnected
	}

	if ch.logger.Enabled(logger.TraceLevel) {
		for _, b := range data {
			ch.logger.Trace(fmt.Sprintf("> %02x", b))
		}
	}

	for written := 0; written < len(data); {
		n, err := port.Write(data[written:])
		written += n
		ch.metrics.addBytesWritten(n)

		if err != nil {
			return fmt.Errorf("%w: write: %w", ErrTransport, err)
		}
	}

	return nil
}

// readByte reads one byte, retrying while the transport reports that nothing has
// arrived yet, as far as the read retry policy allows. Any other transport error
// is returned at once.
func (ch *commandChannel) readByte(ctx context.Context) (byte, error) {
	port := ch.current()
	if port == nil {
		return 0, ErrNotConnected
	}

	policy := ch.cfg.readRetry
	start := time.Now()
	var buf [1]byte

	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		n, err := port.Read(buf[:])
		if n == 1 {
			ch.metrics.incBytesRead()
			if ch.logger.Enabled(logger.TraceLevel) {
				ch.logger.Trace(fmt.Sprintf("< %02x", buf[0]))
			}

			return buf[0], nil
		}

		if err != nil && !transport.IsTimeout(err) {
			if errors.Is(err, transport.ErrClosed) && ch.current() == nil {
				return 0, ErrNotConnected
			}

			return 0, fmt.Errorf("%w: read: %w", ErrTransport, err)
		}

		ch.metrics.incReadRetryCount()

		if policy.MaxAttempts > 0 && attempt >= policy.MaxAttempts {
			return 0, fmt.Errorf("%w: no byte after %d reads", ErrTimeout, attempt)
		}
		if policy.Deadline > 0 && time.Since(start) >= policy.Deadline {
			return 0, fmt.Errorf("%w: no byte within %v", ErrTimeout, policy.Deadline)
		}
	}
}
