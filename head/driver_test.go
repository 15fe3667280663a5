package head

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/arloliu/go-pnp/location"
	"github.com/arloliu/go-pnp/transport"
	"github.com/arloliu/go-pnp/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_ConnectIdempotent(t *testing.T) {
	local, _ := newPipeConn(t)

	var opened atomic.Int32
	opener := func(context.Context) (transport.Port, error) {
		opened.Add(1)
		return transport.NewConnPort(local, testReadTimeout), nil
	}

	cfg, err := NewDriverConfig("", WithOpener(opener))
	require.NoError(t, err)
	d, err := NewDriver(cfg)
	require.NoError(t, err)

	assert.Equal(t, ClosedState, d.State())
	assert.False(t, d.IsConnected())

	require.NoError(t, d.Connect(context.Background()))
	require.NoError(t, d.Connect(context.Background()))
	assert.Equal(t, int32(1), opened.Load())
	assert.True(t, d.IsConnected())
	assert.Equal(t, OpenedState, d.State())
	assert.Equal(t, uint32(1), d.Metrics().ConnectedGauge.Load())

	require.NoError(t, d.Disconnect())
	require.NoError(t, d.Disconnect())
	assert.False(t, d.IsConnected())
	assert.Equal(t, ClosedState, d.State())
	assert.Equal(t, uint32(0), d.Metrics().ConnectedGauge.Load())
	assert.Equal(t, uint64(1), d.Metrics().ConnectCount.Load())
}

func TestDriver_ConnectFailure(t *testing.T) {
	boom := errors.New("no such device")
	cfg, err := NewDriverConfig("", WithOpener(func(context.Context) (transport.Port, error) {
		return nil, boom
	}))
	require.NoError(t, err)
	d, err := NewDriver(cfg)
	require.NoError(t, err)

	err = d.Connect(context.Background())
	require.ErrorIs(t, err, ErrTransport)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, ClosedState, d.State())
}

func TestDriver_NotConnected(t *testing.T) {
	local, _ := newPipeConn(t)
	d, err := NewDriver(newTestConfig(t, local))
	require.NoError(t, err)
	ctx := context.Background()

	require.ErrorIs(t, d.Home(ctx), ErrNotConnected)
	require.ErrorIs(t, d.MoveTo(ctx, N1, location.New(1, 1, 0, 0)), ErrNotConnected)
	require.ErrorIs(t, d.Actuate(ctx, "N1-Air", true), ErrNotConnected)
	require.ErrorIs(t, d.Pick(ctx, N1), ErrNotConnected)
	require.ErrorIs(t, d.Place(ctx, N1), ErrNotConnected)

	_, _, err = d.ReadActuator(ctx, "N1-Air")
	require.ErrorIs(t, err, ErrNotConnected)

	assert.Equal(t, AxisState{}, d.Snapshot())
}

func TestDriver_ReconnectKeepsCache(t *testing.T) {
	d, _ := newSimDriver(t, nil)
	ctx := context.Background()

	require.NoError(t, d.MoveTo(ctx, N1, location.New(3, 4, 0, 0)))
	require.NoError(t, d.Disconnect())

	loc, err := d.Location(N1)
	require.NoError(t, err)
	assertLocation(t, location.New(3, 4, 0, 0), loc)
}

func TestDriver_DisconnectAbortsExchange(t *testing.T) {
	d, remote := newRawDriver(t)

	// swallow the host's bytes without answering
	go func() { _, _ = io.Copy(io.Discard, remote) }()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Home(context.Background()) }()

	time.Sleep(5 * testReadTimeout)
	require.NoError(t, d.Disconnect())

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(time.Second):
		t.Fatal("exchange did not abort after disconnect")
	}
}

func TestDriver_ContextCancelsExchange(t *testing.T) {
	d, remote := newRawDriver(t)
	go func() { _, _ = io.Copy(io.Discard, remote) }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*testReadTimeout)
	defer cancel()

	err := d.Home(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint64(1), d.Metrics().ExchangeErrCount.Load())
}

func TestDriver_SerializesExchanges(t *testing.T) {
	d, ctrl := newSimDriver(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, n := range Nozzles() {
		wg.Add(1)
		go func(n NozzleID) {
			defer wg.Done()
			assert.NoError(t, d.MoveTo(ctx, n, location.Unspecified().WithZ(-float64(n))))
		}(n)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, d.Actuate(ctx, "N1-Air", true))
	}()
	wg.Wait()

	exchanges := ctrl.Exchanges()
	require.Len(t, exchanges, 5)
	for _, ex := range exchanges {
		assert.True(t, ex.ChecksumOK, ex.Command)
	}
	assert.Len(t, ctrl.ExchangesOf(wire.MoveZ.Name), 4)

	st := ctrl.State()
	for _, n := range Nozzles() {
		assert.InDelta(t, -float64(n), st.Z[n.Index()], 1e-9)
		assert.InDelta(t, -float64(n), d.Snapshot().Z[n.Index()], 0)
	}
	assert.Equal(t, uint64(5), d.Metrics().ExchangeCount.Load())
}
