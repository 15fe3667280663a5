package head

import (
	"fmt"
	"strings"
)

// NozzleCount is the number of nozzles on the head.
const NozzleCount = 4

// NozzleID identifies one of the four nozzles. The numeric value is the
// 1-based id carried on the wire.
type NozzleID uint8

const (
	N1 NozzleID = iota + 1
	N2
	N3
	N4
)

// Nozzles returns all nozzle ids in order.
func Nozzles() []NozzleID {
	return []NozzleID{N1, N2, N3, N4}
}

// Valid reports whether n is one of N1..N4.
func (n NozzleID) Valid() bool {
	return n >= N1 && n <= N4
}

// Index returns the 0-based array index of n.
func (n NozzleID) Index() int {
	return int(n) - 1
}

// Wire returns the 1-based id byte sent to the controller.
func (n NozzleID) Wire() byte {
	return byte(n)
}

func (n NozzleID) String() string {
	if !n.Valid() {
		return fmt.Sprintf("NozzleID(%d)", uint8(n))
	}

	return fmt.Sprintf("N%d", uint8(n))
}

// ParseNozzleID parses "N1".."N4" (case-insensitive).
func ParseNozzleID(s string) (NozzleID, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) == 2 && s[0] == 'N' && s[1] >= '1' && s[1] <= '4' {
		return NozzleID(s[1] - '0'), nil
	}

	return 0, fmt.Errorf("%w: %q", ErrInvalidNozzle, s)
}
