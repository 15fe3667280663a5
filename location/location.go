// Package location defines the coordinate value exchanged with a head driver
// and the length units it may be expressed in.
//
// Drivers work in millimeters and degrees internally. Any axis may be left
// unspecified by setting it to NaN; a driver keeps its current value for that axis.
package location

import (
	"fmt"
	"math"
	"strings"
)

// LengthUnit is a unit of linear measure.
type LengthUnit int

const (
	Millimeters LengthUnit = iota
	Centimeters
	Meters
	Inches
	Mils
)

var unitNames = map[LengthUnit]string{
	Millimeters: "mm",
	Centimeters: "cm",
	Meters:      "m",
	Inches:      "in",
	Mils:        "mil",
}

// millimeters per unit
var unitScale = map[LengthUnit]float64{
	Millimeters: 1,
	Centimeters: 10,
	Meters:      1000,
	Inches:      25.4,
	Mils:        0.0254,
}

func (u LengthUnit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}

	return fmt.Sprintf("LengthUnit(%d)", int(u))
}

// Valid reports whether u is a known unit.
func (u LengthUnit) Valid() bool {
	_, ok := unitScale[u]
	return ok
}

// ParseUnit converts a unit name ("mm", "cm", "m", "in", "mil") into a LengthUnit.
func ParseUnit(name string) (LengthUnit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mm", "millimeters", "":
		return Millimeters, nil
	case "cm", "centimeters":
		return Centimeters, nil
	case "m", "meters":
		return Meters, nil
	case "in", "inch", "inches":
		return Inches, nil
	case "mil", "mils", "thou":
		return Mils, nil
	default:
		return 0, fmt.Errorf("location: unknown length unit %q", name)
	}
}

// Convert converts v from unit from to unit to. NaN stays NaN.
func Convert(v float64, from, to LengthUnit) float64 {
	if from == to {
		return v
	}

	return v * unitScale[from] / unitScale[to]
}

// Location is a head position. X, Y and Z are in Units, C (rotation) in degrees.
type Location struct {
	Units LengthUnit
	X     float64
	Y     float64
	Z     float64
	C     float64
}

// New returns a location in millimeters.
func New(x, y, z, c float64) Location {
	return Location{Units: Millimeters, X: x, Y: y, Z: z, C: c}
}

// Unspecified returns a millimeter location with every axis unspecified.
func Unspecified() Location {
	nan := math.NaN()
	return Location{Units: Millimeters, X: nan, Y: nan, Z: nan, C: nan}
}

// In returns l converted to units. Rotation is unaffected.
func (l Location) In(units LengthUnit) Location {
	return Location{
		Units: units,
		X:     Convert(l.X, l.Units, units),
		Y:     Convert(l.Y, l.Units, units),
		Z:     Convert(l.Z, l.Units, units),
		C:     l.C,
	}
}

// Add returns l + o, with o converted to l's units.
func (l Location) Add(o Location) Location {
	o = o.In(l.Units)
	return Location{Units: l.Units, X: l.X + o.X, Y: l.Y + o.Y, Z: l.Z + o.Z, C: l.C + o.C}
}

// Subtract returns l - o, with o converted to l's units.
func (l Location) Subtract(o Location) Location {
	o = o.In(l.Units)
	return Location{Units: l.Units, X: l.X - o.X, Y: l.Y - o.Y, Z: l.Z - o.Z, C: l.C - o.C}
}

// WithX returns a copy of l with X replaced.
func (l Location) WithX(x float64) Location {
	l.X = x

	return l
}

// WithY returns a copy of l with Y replaced.
func (l Location) WithY(y float64) Location {
	l.Y = y

	return l
}

// WithZ returns a copy of l with Z replaced.
func (l Location) WithZ(z float64) Location {
	l.Z = z

	return l
}

// WithC returns a copy of l with C replaced.
func (l Location) WithC(c float64) Location {
	l.C = c

	return l
}

func (l Location) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f %s)", l.X, l.Y, l.Z, l.C, l.Units)
}
