package wire

import "fmt"

// Command describes one protocol exchange kind. Commands are immutable values
// defined once per operation; the payload is built separately for each call.
type Command struct {
	Name            string
	PrimaryOpcode   byte
	PrimaryAck      byte
	SecondaryOpcode byte
	SecondaryAck    byte
	// PollOpcode is written repeatedly until PollResponse is read back.
	// For ReadStatus it is the single fetch request preceding the returned payload.
	PollOpcode   byte
	PollResponse byte
}

// String returns the command name and its opcode pairs, e.g. "move-xy(48/05 c8/0d 08/4d)".
func (c Command) String() string {
	return fmt.Sprintf("%s(%02x/%02x %02x/%02x %02x/%02x)",
		c.Name,
		c.PrimaryOpcode, c.PrimaryAck,
		c.SecondaryOpcode, c.SecondaryAck,
		c.PollOpcode, c.PollResponse,
	)
}

// Command table of the head controller.
var (
	Home = Command{
		Name: "home", PrimaryOpcode: 0x47, PrimaryAck: 0x0b,
		SecondaryOpcode: 0xc7, SecondaryAck: 0x03, PollOpcode: 0x07, PollResponse: 0x43,
	}
	MoveXY = Command{
		Name: "move-xy", PrimaryOpcode: 0x48, PrimaryAck: 0x05,
		SecondaryOpcode: 0xc8, SecondaryAck: 0x0d, PollOpcode: 0x08, PollResponse: 0x4d,
	}
	MoveZ = Command{
		Name: "move-z", PrimaryOpcode: 0x42, PrimaryAck: 0x0e,
		SecondaryOpcode: 0xc2, SecondaryAck: 0x06, PollOpcode: 0x02, PollResponse: 0x46,
	}
	MoveC = Command{
		Name: "move-c", PrimaryOpcode: 0x41, PrimaryAck: 0x0d,
		SecondaryOpcode: 0xc1, SecondaryAck: 0x05, PollOpcode: 0x01, PollResponse: 0x45,
	}
	ActuateAir = Command{
		Name: "actuate-air", PrimaryOpcode: 0x43, PrimaryAck: 0x0f,
		SecondaryOpcode: 0xc3, SecondaryAck: 0x07, PollOpcode: 0x03, PollResponse: 0x47,
	}
	LightsDown = Command{
		Name: "lights-down", PrimaryOpcode: 0x44, PrimaryAck: 0x08,
		SecondaryOpcode: 0xc4, SecondaryAck: 0x00, PollOpcode: 0x04, PollResponse: 0x40,
	}
	// LightsUp shares its opcode pairs with Home; the payload tells them apart.
	LightsUp = Command{
		Name: "lights-up", PrimaryOpcode: 0x47, PrimaryAck: 0x0b,
		SecondaryOpcode: 0xc7, SecondaryAck: 0x03, PollOpcode: 0x07, PollResponse: 0x43,
	}
	ReadStatus = Command{
		Name: "read-status", PrimaryOpcode: 0x40, PrimaryAck: 0x0c,
		SecondaryOpcode: 0x00, SecondaryAck: 0x11, PollOpcode: 0x80, PollResponse: 0x19,
	}
)

// Commands lists every payload-bearing command followed by ReadStatus.
var Commands = []Command{Home, MoveXY, MoveZ, MoveC, ActuateAir, LightsDown, LightsUp, ReadStatus}

// LookupPrimary returns the commands whose primary opcode is op.
// Home and LightsUp share an opcode, so more than one command may match.
func LookupPrimary(op byte) []Command {
	var out []Command
	for _, c := range Commands {
		if c.PrimaryOpcode == op {
			out = append(out, c)
		}
	}

	return out
}
