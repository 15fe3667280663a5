// Package head implements a driver for a four-nozzle pick-and-place head
// controlled over a serial byte stream.
//
// # Protocol Overview
//
// The controller speaks a synchronous, half-duplex request/acknowledge
// protocol. Every exchange is driven by the host:
//
//   - Open:   write the primary opcode, read the primary ack.
//   - Select: write the secondary opcode, read the secondary ack.
//   - Data:   write the 8-byte payload and one checksum byte.
//   - Poll:   write the poll opcode until the poll response comes back.
//
// Opcodes, payload layouts and the checksum live in package [wire].
// A wrong ack aborts the exchange with a [*ProtocolError]; the driver never
// resends a request on its own.
//
// # Axes
//
// X and Y belong to the shared gantry, so moving any nozzle moves all four.
// Z (up/down, [-12, 0] mm) and C (rotation, [-180, 180] degrees) are
// addressed per nozzle. The driver caches the last commanded value of every
// axis and suppresses moves that would not change it. The cache is only ever
// updated after an exchange completes.
//
// # Actuators
//
// Actuators are addressed by name: "N1-Air" through "N4-Air" for the nozzle
// air valves, "Lights-Down" and "Lights-Up" for the light banks. Unknown names
// are ignored. Reading "N<i>-Air" returns the air sensor value of that nozzle.
//
// # Blocking
//
// Exchanges run synchronously on the calling goroutine and are serialized by
// the driver. With the default [ReadRetryPolicy] a read waits for as long as
// the controller stays silent; configure [WithReadRetryPolicy] or cancel the
// context to bound it.
package head
