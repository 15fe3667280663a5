package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "move-xy(48/05 c8/0d 08/4d)", MoveXY.String())
	assert.Equal(t, "read-status(40/0c 00/11 80/19)", ReadStatus.String())
}

func TestCommand_HomeSharesLightsUpOpcodes(t *testing.T) {
	assert.Equal(t, Home.PrimaryOpcode, LightsUp.PrimaryOpcode)
	assert.Equal(t, Home.SecondaryOpcode, LightsUp.SecondaryOpcode)
	assert.Equal(t, Home.PollOpcode, LightsUp.PollOpcode)

	matches := LookupPrimary(0x47)
	assert.Len(t, matches, 2)
	assert.Empty(t, LookupPrimary(0x99))
}

func TestCommand_PollOpcodeIsPrimaryLowBits(t *testing.T) {
	// Every motion/actuation command polls with the primary opcode minus 0x40
	// and selects with the primary opcode plus 0x80.
	for _, c := range []Command{Home, MoveXY, MoveZ, MoveC, ActuateAir, LightsDown, LightsUp} {
		assert.Equal(t, c.PrimaryOpcode-0x40, c.PollOpcode, c.Name)
		assert.Equal(t, c.PrimaryOpcode+0x80, c.SecondaryOpcode, c.Name)
	}
}
