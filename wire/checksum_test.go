package wire

import (
	"math/rand"
	"testing"

	"github.com/sigurn/crc16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_Empty(t *testing.T) {
	assert.Equal(t, uint16(0), Checksum(nil))
	assert.Equal(t, uint16(0), Checksum([]byte{}))
	assert.Equal(t, byte(0), ChecksumByte(nil))
}

func TestChecksum_ReferenceVectors(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want uint16
	}{
		{"check string", []byte("123456789"), 0x31C3},
		{"home payload", []byte{0x01, 0, 0, 0, 0, 0, 0, 0}, 0x47D3},
		{"move-xy 10,5", []byte{0xE8, 0x03, 0, 0, 0xF4, 0x01, 0, 0}, 0xD4ED},
		{"move-c 90 N1", []byte{0x84, 0x03, 0x32, 0x01, 0, 0, 0, 0}, 0x24F3},
		{"all zero", make([]byte, PayloadSize), 0x0000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Checksum(tt.in))
			assert.Equal(t, byte(tt.want), ChecksumByte(tt.in))
		})
	}
}

func TestChecksum_TableEntries(t *testing.T) {
	assert.Equal(t, uint16(0x0000), checksumTable[0])
	assert.Equal(t, uint16(0x1021), checksumTable[1])
	assert.Equal(t, uint16(0x8108), checksumTable[8])
	assert.Equal(t, uint16(0x1ef0), checksumTable[255])

	// A single byte b checksums to table[b].
	for i := 0; i < 256; i++ {
		require.Equal(t, checksumTable[i], Checksum([]byte{byte(i)}), "byte 0x%02x", i)
	}
}

func TestChecksum_MatchesXmodem(t *testing.T) {
	table := crc16.MakeTable(crc16.CRC16_XMODEM)
	rng := rand.New(rand.NewSource(1)) //nolint:gosec

	for i := 0; i < 500; i++ {
		buf := make([]byte, rng.Intn(64)+1)
		rng.Read(buf)
		require.Equal(t, crc16.Checksum(buf, table), Checksum(buf), "input % x", buf)
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	p := MoveXYPayload(123.45, -67.89)
	first := Checksum(p[:])
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Checksum(p[:]))
	}
}
