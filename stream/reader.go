package stream

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Neumenon/bdoc/bdoc"
)

// Reader reads GS1 frames from an io.Reader.
type Reader struct {
	r          *bufio.Reader
	maxPayload int
	verifyCRC  bool
	offset     int
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxPayload sets the maximum payload size (default: 64 MiB). The
// limit applies to both the wire length and the decompressed length, and
// may exceed MaxPayloadSize.
func WithMaxPayload(max int) ReaderOption {
	return func(r *Reader) {
		r.maxPayload = max
	}
}

// WithCRCVerification enables or disables CRC verification.
func WithCRCVerification(enabled bool) ReaderOption {
	return func(r *Reader) {
		r.verifyCRC = enabled
	}
}

// NewReader creates a new GS1 frame reader.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	reader := &Reader{
		r:          bufio.NewReader(r),
		maxPayload: MaxPayloadSize,
		verifyCRC:  true,
	}
	for _, opt := range opts {
		opt(reader)
	}
	return reader
}

// header holds the lengths parsed alongside a frame.
type header struct {
	wireLen int
	rawLen  int
	hasRaw  bool
}

// Next reads and returns the next frame.
// Returns io.EOF when no more frames are available.
func (r *Reader) Next() (*Frame, error) {
	start := r.offset
	headerLine, err := r.r.ReadString('\n')
	r.offset += len(headerLine)
	if err != nil {
		if err == io.EOF && headerLine == "" {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	frame, h, err := parseHeader(headerLine, start)
	if err != nil {
		return nil, err
	}

	if h.wireLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("payload too large: %d > %d", h.wireLen, r.maxPayload), Offset: start}
	}
	if h.hasRaw && h.rawLen > r.maxPayload {
		return nil, &ParseError{Reason: fmt.Sprintf("raw payload too large: %d > %d", h.rawLen, r.maxPayload), Offset: start}
	}

	var wire []byte
	if h.wireLen > 0 {
		wire = make([]byte, h.wireLen)
		n, err := io.ReadFull(r.r, wire)
		r.offset += n
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
	}

	// Consume trailing newline (optional at EOF)
	if b, err := r.r.ReadByte(); err == nil {
		if b != '\n' {
			r.r.UnreadByte()
		} else {
			r.offset++
		}
	}

	if frame.Compression != CompressionNone {
		if !h.hasRaw {
			return nil, &ParseError{Reason: "comp without raw", Offset: start}
		}
		raw, err := decompressPayload(wire, frame.Compression, h.rawLen)
		if err != nil {
			return nil, &ParseError{Reason: err.Error(), Offset: start}
		}
		frame.Payload = raw
		frame.Flags |= FlagCompressed
	} else {
		frame.Payload = wire
	}

	if r.verifyCRC && frame.CRC != nil {
		computed := ComputeCRC(frame.Payload)
		if computed != *frame.CRC {
			return nil, &CRCMismatchError{Expected: *frame.CRC, Got: computed}
		}
	}

	return frame, nil
}

// NextDocument reads the next frame and decodes its payload. Frames with
// an empty payload yield a nil document.
func (r *Reader) NextDocument() (*Frame, *bdoc.Document, error) {
	frame, err := r.Next()
	if err != nil {
		return nil, nil, err
	}
	if len(frame.Payload) == 0 {
		return frame, nil, nil
	}
	doc, err := bdoc.Decode(frame.Payload)
	if err != nil {
		return frame, nil, err
	}
	return frame, doc, nil
}

// parseHeader parses the @frame{...} header line.
func parseHeader(line string, offset int) (*Frame, header, error) {
	var h header
	line = strings.TrimSpace(line)

	if !strings.HasPrefix(line, "@frame{") {
		return nil, h, &ParseError{Reason: "expected @frame{", Offset: offset}
	}
	endIdx := strings.LastIndex(line, "}")
	if endIdx < 0 {
		return nil, h, &ParseError{Reason: "missing closing }", Offset: offset + len(line)}
	}

	frame := &Frame{Version: Version}
	seen := map[string]bool{}

	for _, pair := range tokenize(line[7:endIdx]) {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		seen[key] = true

		switch key {
		case "v":
			v, err := strconv.ParseUint(val, 10, 8)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid version", Offset: offset}
			}
			if uint8(v) != Version {
				return nil, h, &ParseError{Reason: "unsupported version " + val, Offset: offset}
			}
			frame.Version = uint8(v)

		case "sid":
			sid, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid sid", Offset: offset}
			}
			frame.SID = sid

		case "seq":
			seq, err := strconv.ParseUint(val, 10, 64)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid seq", Offset: offset}
			}
			frame.Seq = seq

		case "kind":
			kind, ok := ParseKind(val)
			if !ok {
				return nil, h, &ParseError{Reason: "invalid kind: " + val, Offset: offset}
			}
			frame.Kind = kind

		case "len":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid len", Offset: offset}
			}
			h.wireLen = int(l)

		case "raw":
			l, err := strconv.ParseUint(val, 10, 32)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid raw", Offset: offset}
			}
			h.rawLen = int(l)
			h.hasRaw = true

		case "crc":
			crc, ok := parseCRC(val)
			if !ok {
				return nil, h, &ParseError{Reason: "invalid crc: " + val, Offset: offset}
			}
			frame.CRC = &crc
			frame.Flags |= FlagHasCRC

		case "base":
			base, err := ParseDigest(val)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid base: " + val, Offset: offset}
			}
			frame.Base = &base
			frame.Flags |= FlagHasBase

		case "comp":
			tag, err := ParseCompressionTag(val)
			if err != nil {
				return nil, h, &ParseError{Reason: "invalid comp: " + val, Offset: offset}
			}
			frame.Compression = tag

		case "final":
			frame.Final = val == "true" || val == "1"
			if frame.Final {
				frame.Flags |= FlagFinal
			}
		}
	}

	if !seen["len"] {
		return nil, h, &ParseError{Reason: "missing len", Offset: offset}
	}
	return frame, h, nil
}

// tokenize splits key=value pairs separated by spaces or commas.
func tokenize(s string) []string {
	var tokens []string
	var current bytes.Buffer
	inQuote := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			inQuote = !inQuote
			current.WriteByte(c)
		case (c == ' ' || c == ',' || c == '\t') && !inQuote:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(c)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// parseCRC parses "crc32:XXXXXXXX" or "XXXXXXXX".
func parseCRC(val string) (uint32, bool) {
	val = strings.TrimPrefix(val, "crc32:")
	if len(val) != 8 {
		return 0, false
	}
	v, err := strconv.ParseUint(val, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// ReadAll reads all frames until EOF.
func (r *Reader) ReadAll() ([]*Frame, error) {
	var frames []*Frame
	for {
		frame, err := r.Next()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}
