// Package stream implements GS1 framing for encoded bdoc documents.
//
// GS1 is a transport envelope that carries bdoc payloads across a byte
// pipe, providing:
//   - Message boundaries (explicit payload length)
//   - Multiplexing via stream IDs (sid)
//   - Ordering via sequence numbers (seq)
//   - Integrity via optional CRC-32
//   - State verification via an optional state digest (base)
//   - Optional payload compression (zstd, lz4)
//
// GS1 headers are not part of the document encoding; the payload is the
// exact byte sequence produced by bdoc.Encode.
package stream

import (
	"fmt"
)

// Version is the GS1 protocol version.
const Version uint8 = 1

// FrameKind indicates the semantic category of a frame's payload.
type FrameKind uint8

const (
	KindDoc   FrameKind = 0 // Document to round-trip; the reply echoes it re-encoded
	KindFetch FrameKind = 1 // Request for the saved state (no payload)
	KindState FrameKind = 2 // Saved state reply; empty payload means no state
	KindSave  FrameKind = 3 // Document to store as the saved state
	KindAck   FrameKind = 4 // Acknowledgement
	KindErr   FrameKind = 5 // Error event
	KindPing  FrameKind = 6 // Keepalive
	KindPong  FrameKind = 7 // Ping response
)

// String returns the kind name.
func (k FrameKind) String() string {
	switch k {
	case KindDoc:
		return "doc"
	case KindFetch:
		return "fetch"
	case KindState:
		return "state"
	case KindSave:
		return "save"
	case KindAck:
		return "ack"
	case KindErr:
		return "err"
	case KindPing:
		return "ping"
	case KindPong:
		return "pong"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses a kind string or numeric value.
func ParseKind(s string) (FrameKind, bool) {
	switch s {
	case "doc", "0":
		return KindDoc, true
	case "fetch", "1":
		return KindFetch, true
	case "state", "2":
		return KindState, true
	case "save", "3":
		return KindSave, true
	case "ack", "4":
		return KindAck, true
	case "err", "5":
		return KindErr, true
	case "ping", "6":
		return KindPing, true
	case "pong", "7":
		return KindPong, true
	default:
		var n int
		if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n >= 0 && n <= 255 {
			return FrameKind(n), true
		}
		return 0, false
	}
}

// Flags for GS1 frames.
type Flags uint8

const (
	FlagHasCRC     Flags = 0x01 // CRC-32 is present
	FlagHasBase    Flags = 0x02 // Base digest is present
	FlagFinal      Flags = 0x04 // End-of-stream for this SID
	FlagCompressed Flags = 0x08 // Payload was compressed on the wire
)

// Frame represents a single GS1 frame.
type Frame struct {
	// Required fields
	Version uint8     // Protocol version (must be 1)
	SID     uint64    // Stream identifier
	Seq     uint64    // Sequence number (per-SID, monotonic)
	Kind    FrameKind // Frame kind
	Payload []byte    // Uncompressed payload bytes

	// Optional fields
	CRC         *uint32        // CRC-32 of the uncompressed payload (nil if not present)
	Base        *Digest        // State digest (nil if not present)
	Compression CompressionTag // How the payload travels on the wire
	Flags       Flags          // Flag bits
	Final       bool           // End-of-stream marker
}

// HasCRC returns true if CRC is present.
func (f *Frame) HasCRC() bool {
	return f.CRC != nil
}

// HasBase returns true if a base digest is present.
func (f *Frame) HasBase() bool {
	return f.Base != nil
}

// IsFinal returns true if this is the final frame for this SID.
func (f *Frame) IsFinal() bool {
	return f.Final || f.Flags&FlagFinal != 0
}

// MaxPayloadSize is the default maximum payload size (64 MiB), applied to
// both the wire length and the decompressed length.
const MaxPayloadSize = 64 * 1024 * 1024

// ParseError is returned for malformed frames.
type ParseError struct {
	Reason string
	Offset int
}

func (e *ParseError) Error() string {
	if e.Offset >= 0 {
		return fmt.Sprintf("gs1: %s at offset %d", e.Reason, e.Offset)
	}
	return fmt.Sprintf("gs1: %s", e.Reason)
}

// CRCMismatchError is returned when CRC verification fails.
type CRCMismatchError struct {
	Expected uint32
	Got      uint32
}

func (e *CRCMismatchError) Error() string {
	return fmt.Sprintf("gs1: CRC mismatch: expected %08x, got %08x", e.Expected, e.Got)
}

// BaseMismatchError is returned when base digest verification fails.
type BaseMismatchError struct {
	Expected Digest
	Got      Digest
}

func (e *BaseMismatchError) Error() string {
	return fmt.Sprintf("gs1: base digest mismatch: expected %s, got %s", e.Expected, e.Got)
}
