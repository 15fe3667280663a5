package location

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want LengthUnit
	}{
		{"mm", Millimeters},
		{"", Millimeters},
		{"CM", Centimeters},
		{"m", Meters},
		{"inches", Inches},
		{"thou", Mils},
	}
	for _, tt := range tests {
		got, err := ParseUnit(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseUnit("furlong")
	assert.ErrorContains(t, err, "unknown length unit")
}

func TestConvert(t *testing.T) {
	assert.InDelta(t, 25.4, Convert(1, Inches, Millimeters), 1e-12)
	assert.InDelta(t, 1.0, Convert(1000, Mils, Inches), 1e-12)
	assert.InDelta(t, 0.437, Convert(437, Millimeters, Meters), 1e-12)
	assert.True(t, math.IsNaN(Convert(math.NaN(), Inches, Millimeters)))
}

func TestLocation_InKeepsRotation(t *testing.T) {
	l := Location{Units: Inches, X: 1, Y: 2, Z: -0.1, C: 45}
	mm := l.In(Millimeters)

	assert.Equal(t, Millimeters, mm.Units)
	assert.InDelta(t, 25.4, mm.X, 1e-12)
	assert.InDelta(t, 50.8, mm.Y, 1e-12)
	assert.InDelta(t, -2.54, mm.Z, 1e-12)
	assert.InDelta(t, 45.0, mm.C, 1e-12)
}

func TestLocation_AddSubtract(t *testing.T) {
	base := New(10, 20, -1, 90)
	off := Location{Units: Centimeters, X: 1, Y: -1, Z: 0, C: 5}

	sum := base.Add(off)
	assert.InDelta(t, 20.0, sum.X, 1e-12)
	assert.InDelta(t, 10.0, sum.Y, 1e-12)
	assert.InDelta(t, 95.0, sum.C, 1e-12)

	back := sum.Subtract(off)
	assert.InDelta(t, base.X, back.X, 1e-12)
	assert.InDelta(t, base.Y, back.Y, 1e-12)
	assert.InDelta(t, base.C, back.C, 1e-12)
}

func TestLocation_UnspecifiedSurvivesOffset(t *testing.T) {
	l := Unspecified().WithX(5).Subtract(New(1, 1, 1, 1))

	assert.InDelta(t, 4.0, l.X, 1e-12)
	assert.True(t, math.IsNaN(l.Y))
	assert.True(t, math.IsNaN(l.Z))
	assert.True(t, math.IsNaN(l.C))
}

func TestLengthUnit_String(t *testing.T) {
	assert.Equal(t, "mm", Millimeters.String())
	assert.Equal(t, "mil", Mils.String())
	assert.Equal(t, "LengthUnit(9)", LengthUnit(9).String())
	assert.False(t, LengthUnit(9).Valid())
}
