package wire

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutInt32LE(t *testing.T) {
	var p Payload
	PutInt32LE(1000, &p, 0)
	PutInt32LE(-1, &p, 4)

	assert.Equal(t, Payload{0xE8, 0x03, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}, p)
	assert.Equal(t, int32(1000), Int32LE(&p, 0))
	assert.Equal(t, int32(-1), Int32LE(&p, 4))
}

func TestPutInt16LE(t *testing.T) {
	var p Payload
	PutInt16LE(900, &p, 0)
	PutInt16LE(-1800, &p, 6)

	assert.Equal(t, Payload{0x84, 0x03, 0, 0, 0, 0, 0xF8, 0xF8}, p)
	assert.Equal(t, int16(900), Int16LE(&p, 0))
	assert.Equal(t, int16(-1800), Int16LE(&p, 6))
}

func TestHomePayload(t *testing.T) {
	assert.Equal(t, Payload{0x01, 0, 0, 0, 0, 0, 0, 0}, HomePayload())
}

func TestMoveXYPayload(t *testing.T) {
	p := MoveXYPayload(10, 5)
	assert.Equal(t, Payload{0xE8, 0x03, 0, 0, 0xF4, 0x01, 0, 0}, p)

	x, y := DecodeMoveXY(&p)
	assert.InDelta(t, 10.0, x, 1e-9)
	assert.InDelta(t, 5.0, y, 1e-9)

	p = MoveXYPayload(-437, 437)
	x, y = DecodeMoveXY(&p)
	assert.InDelta(t, -437.0, x, 1e-9)
	assert.InDelta(t, 437.0, y, 1e-9)
}

func TestMoveZPayload(t *testing.T) {
	p := MoveZPayload(-12, 3)
	// 12000 = 0x2EE0
	assert.Equal(t, Payload{0xE0, 0x2E, ZMarker, 3, 0, 0, 0, 0}, p)

	p = MoveZPayload(0, 1)
	assert.Equal(t, Payload{0, 0, ZMarker, 1, 0, 0, 0, 0}, p)
}

func TestMoveZ_RoundTrip(t *testing.T) {
	for z := -12.0; z <= 0; z += 0.0137 {
		p := MoveZPayload(z, 2)
		got, nozzle := DecodeMoveZ(&p)
		require.InDelta(t, z, got, 0.5/ZScale+1e-12, "z=%v", z)
		require.Equal(t, byte(2), nozzle)
	}

	p := MoveZPayload(0, 4)
	got, _ := DecodeMoveZ(&p)
	assert.False(t, math.Signbit(got), "decoded zero must not be negative zero")
}

func TestMoveCPayload(t *testing.T) {
	p := MoveCPayload(90, 1)
	assert.Equal(t, Payload{0x84, 0x03, ZMarker, 1, 0, 0, 0, 0}, p)

	c, nozzle := DecodeMoveC(&p)
	assert.InDelta(t, 90.0, c, 1e-9)
	assert.Equal(t, byte(1), nozzle)

	p = MoveCPayload(-180, 4)
	c, _ = DecodeMoveC(&p)
	assert.InDelta(t, -180.0, c, 1e-9)
}

func TestRounding_HalfUp(t *testing.T) {
	assert.Equal(t, int16(1), ScaleC(0.05))
	assert.Equal(t, int16(0), ScaleC(-0.05))
	assert.Equal(t, int32(1235), ScaleXY(12.345))
	assert.Equal(t, int16(2345), ScaleZ(-2.345))
}

func TestScaleXY_Saturates(t *testing.T) {
	assert.Equal(t, int32(math.MaxInt32), ScaleXY(3e7))
	assert.Equal(t, int32(math.MinInt32), ScaleXY(-3e7))
	assert.Equal(t, int32(math.MaxInt32), ScaleXY(math.Inf(1)))
	assert.Equal(t, int32(math.MinInt32), ScaleXY(math.Inf(-1)))
	assert.Equal(t, int32(-2000000000), ScaleXY(-2e7))

	p := MoveXYPayload(3e7, -3e7)
	assert.Equal(t, Payload{0xff, 0xff, 0xff, 0x7f, 0x00, 0x00, 0x00, 0x80}, p)
}

func TestActuatorPayloads(t *testing.T) {
	assert.Equal(t, Payload{0xFF, 2, 0, 0, 0, 0, 0, 0}, AirPayload(0xFF, 2))
	assert.Equal(t, Payload{7, 0, 0, 0, 0, 0, 0, 0}, LightsDownPayload(7))
	assert.Equal(t, Payload{0, 0, 0, 0, 7, 0, 0, 0}, LightsUpPayload(7))
}
