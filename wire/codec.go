package wire

import (
	"encoding/binary"
	"math"
)

// PayloadSize is the fixed number of data bytes in every exchange.
const PayloadSize = 8

// ZMarker is the fixed byte placed at offset 2 of Z and rotation payloads.
const ZMarker byte = 0x32

// Fixed-point scale factors for coordinate fields.
const (
	XYScale = 100  // X/Y: hundredths of a millimeter
	ZScale  = 1000 // Z: micrometers, sign inverted
	CScale  = 10   // C: tenths of a degree
)

// Payload is the 8-byte data section of an exchange.
type Payload [PayloadSize]byte

// PutInt32LE writes v into buf at off, least-significant byte first.
func PutInt32LE(v int32, buf *Payload, off int) {
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(v)) //nolint:gosec // two's complement on the wire
}

// PutInt16LE writes v into buf at off, least-significant byte first.
func PutInt16LE(v int16, buf *Payload, off int) {
	binary.LittleEndian.PutUint16(buf[off:off+2], uint16(v)) //nolint:gosec // two's complement on the wire
}

// Int32LE reads a little-endian int32 from buf at off.
func Int32LE(buf *Payload, off int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[off : off+4])) //nolint:gosec
}

// Int16LE reads a little-endian int16 from buf at off.
func Int16LE(buf *Payload, off int) int16 {
	return int16(binary.LittleEndian.Uint16(buf[off : off+2])) //nolint:gosec
}

// round rounds half up, the convention of the controller's host software.
// Callers pass the scaled product through an explicit float64 conversion so it
// is rounded before the addition and never fused with it.
func round(v float64) float64 {
	return math.Floor(v + 0.5)
}

// ScaleXY converts a millimeter X/Y value to its wire integer, saturating at
// the int32 range.
func ScaleXY(mm float64) int32 {
	v := round(float64(mm * XYScale))
	switch {
	case v >= math.MaxInt32:
		return math.MaxInt32
	case v <= math.MinInt32:
		return math.MinInt32
	}

	return int32(v)
}

// ScaleZ converts a millimeter Z value to its sign-inverted wire integer.
func ScaleZ(mm float64) int16 {
	return int16(round(float64(-mm * ZScale)))
}

// ScaleC converts a rotation in degrees to its wire integer.
func ScaleC(deg float64) int16 {
	return int16(round(float64(deg * CScale)))
}

// HomePayload returns the fixed homing payload: int32 1 followed by int32 0.
func HomePayload() Payload {
	var p Payload
	PutInt32LE(1, &p, 0)
	PutInt32LE(0, &p, 4)

	return p
}

// MoveXYPayload encodes a gantry move to (x, y) millimeters.
func MoveXYPayload(x, y float64) Payload {
	var p Payload
	PutInt32LE(ScaleXY(x), &p, 0)
	PutInt32LE(ScaleXY(y), &p, 4)

	return p
}

// MoveZPayload encodes a Z move to z millimeters for the 1-based nozzle id.
func MoveZPayload(z float64, nozzle byte) Payload {
	var p Payload
	PutInt16LE(ScaleZ(z), &p, 0)
	p[2] = ZMarker
	p[3] = nozzle

	return p
}

// MoveCPayload encodes a rotation to c degrees for the 1-based nozzle id.
func MoveCPayload(c float64, nozzle byte) Payload {
	var p Payload
	PutInt16LE(ScaleC(c), &p, 0)
	p[2] = ZMarker
	p[3] = nozzle

	return p
}

// AirPayload encodes an air valve value for the 1-based nozzle id.
func AirPayload(value, nozzle byte) Payload {
	var p Payload
	p[0] = value
	p[1] = nozzle

	return p
}

// LightsDownPayload encodes the down-looking light bank value.
func LightsDownPayload(value byte) Payload {
	var p Payload
	p[0] = value

	return p
}

// LightsUpPayload encodes the up-looking light bank value.
func LightsUpPayload(value byte) Payload {
	var p Payload
	p[4] = value

	return p
}

// DecodeMoveXY returns the millimeter coordinates carried by a move-xy payload.
func DecodeMoveXY(p *Payload) (x, y float64) {
	return float64(Int32LE(p, 0)) / XYScale, float64(Int32LE(p, 4)) / XYScale
}

// DecodeMoveZ returns the millimeter Z and nozzle id carried by a move-z payload.
func DecodeMoveZ(p *Payload) (z float64, nozzle byte) {
	z = -float64(Int16LE(p, 0)) / ZScale
	if z == 0 {
		z = 0 // normalize -0
	}

	return z, p[3]
}

// DecodeMoveC returns the rotation and nozzle id carried by a move-c payload.
func DecodeMoveC(p *Payload) (c float64, nozzle byte) {
	return float64(Int16LE(p, 0)) / CScale, p[3]
}
