// Package wire implements the byte-level framing of the four-nozzle placement
// head protocol.
//
// Every command exchange carries a fixed 8-byte payload followed by a single
// checksum byte. The checksum is the low byte of a table-driven CRC16-CCITT
// (polynomial 0x1021, initial value 0) computed over the 8 payload bytes.
//
// # Exchange Overview
//
// An exchange is a two-stage handshake followed by the payload and a poll loop:
//
//   - Open:   host writes the primary opcode, head answers with the primary ack.
//   - Select: host writes the secondary opcode, head answers with the secondary ack.
//   - Data:   host writes the 8 payload bytes and the checksum byte.
//   - Poll:   host writes the poll opcode until the head answers with the poll response.
//
// The read-status exchange replaces Data/Poll with a single fetch handshake
// after which the head sends an 8-byte payload and a checksum byte.
//
// # Coordinate encoding
//
// All multi-byte fields are little-endian:
//
//   - X, Y: round(mm × 100) as int32.
//   - Z:    round(−mm × 1000) as int16, so 0 is fully up and −12 mm fully down.
//   - C:    round(deg × 10) as int16.
//
// Z and C payloads carry the marker byte 0x32 at offset 2 and the 1-based
// nozzle id at offset 3.
package wire
