package head

import (
	"context"
	"testing"
	"time"

	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReadByte_RetriesUntilByteArrives(t *testing.T) {
	d, remote := newRawDriver(t)

	go func() {
		time.Sleep(5 * testReadTimeout)
		mustWrite(t, remote, 0x42)
	}()

	b, err := d.ch.readByte(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x42), b)
	assert.GreaterOrEqual(t, d.Metrics().ReadRetryCount.Load(), uint64(1))
	assert.Equal(t, uint64(1), d.Metrics().BytesRead.Load())
}

func TestReadByte_MaxAttempts(t *testing.T) {
	d, _ := newRawDriver(t, WithReadRetryPolicy(ReadRetryPolicy{MaxAttempts: 3}))

	_, err := d.ch.readByte(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, uint64(3), d.Metrics().ReadRetryCount.Load())
}

func TestReadByte_Deadline(t *testing.T) {
	deadline := 3 * testReadTimeout
	d, _ := newRawDriver(t, WithReadRetryPolicy(ReadRetryPolicy{Deadline: deadline}))

	start := time.Now()
	_, err := d.ch.readByte(context.Background())
	require.ErrorIs(t, err, ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), deadline)
}

func TestReadByte_ContextCancelled(t *testing.T) {
	d, _ := newRawDriver(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*testReadTimeout)
	defer cancel()

	_, err := d.ch.readByte(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestReadByte_RemoteClosed(t *testing.T) {
	d, remote := newRawDriver(t)
	require.NoError(t, remote.Close())

	_, err := d.ch.readByte(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestReadByte_NotConnected(t *testing.T) {
	d, _ := newRawDriver(t)
	require.NoError(t, d.Disconnect())

	_, err := d.ch.readByte(context.Background())
	require.ErrorIs(t, err, ErrNotConnected)

	err = d.ch.writeByte(0x48)
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestWriteAll(t *testing.T) {
	d, remote := newRawDriver(t)

	done := make(chan []byte)
	go func() { done <- readExactly(t, remote, 4) }()

	require.NoError(t, d.ch.writeAll([]byte{0x01, 0x02, 0x03, 0x04}))
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, <-done)
	assert.Equal(t, uint64(4), d.Metrics().BytesWritten.Load())
}

func TestWriteAll_RemoteClosed(t *testing.T) {
	d, remote := newRawDriver(t)
	require.NoError(t, remote.Close())

	err := d.ch.writeAll([]byte{0x48})
	require.ErrorIs(t, err, ErrTransport)
}

func TestChannel_TracesEveryByte(t *testing.T) {
	mockLogger := logger.NewMockLogger()
	mockLogger.On("With", mock.Anything, mock.Anything).Return(mockLogger)
	mockLogger.On("Enabled", mock.Anything).Return(true)
	mockLogger.On("Trace", mock.Anything, mock.Anything).Return()
	mockLogger.On("Debug", mock.Anything, mock.Anything).Return()
	mockLogger.On("Info", mock.Anything, mock.Anything).Return()
	mockLogger.On("Warn", mock.Anything, mock.Anything).Return()
	mockLogger.On("Error", mock.Anything, mock.Anything).Return()

	d, _ := newSimDriver(t, nil, WithLogger(mockLogger))

	require.NoError(t, d.MoveTo(context.Background(), N1, location.New(10, 5, 0, 0)))

	var traces []string
	for _, call := range mockLogger.Calls {
		if call.Method == "Trace" {
			traces = append(traces, call.Arguments.String(0))
		}
	}

	assert.Equal(t, []string{
		"> 48", "< 05",
		"> c8", "< 0d",
		"> e8", "> 03", "> 00", "> 00", "> f4", "> 01", "> 00", "> 00", "> ed",
		"> 08", "< 4d",
	}, traces)
	mockLogger.AssertCalled(t, "Enabled", logger.TraceLevel)
}
