package transport

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTarmPipe(t *testing.T) (*tarmPort, *os.File) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = r.Close()
		_ = w.Close()
	})

	return &tarmPort{port: r}, w
}

func TestTarmPort_ReadByte(t *testing.T) {
	p, w := newTarmPipe(t)

	_, err := w.Write([]byte{0x42})
	require.NoError(t, err)

	buf := make([]byte, 1)
	n, err := p.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, byte(0x42), buf[0])
}

func TestTarmPort_EOFIsTimeout(t *testing.T) {
	p, w := newTarmPipe(t)
	require.NoError(t, w.Close())

	n, err := p.Read(make([]byte, 1))
	assert.Zero(t, n)
	require.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsTimeout(err))
}

func TestTarmPort_LocalCloseIsClosed(t *testing.T) {
	p, _ := newTarmPipe(t)
	require.NoError(t, p.Close())

	_, err := p.Read(make([]byte, 1))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, err, os.ErrClosed)
	assert.False(t, IsTimeout(err))

	_, err = p.Write([]byte{0x48})
	require.ErrorIs(t, err, ErrClosed)
}
