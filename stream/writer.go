package stream

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/Neumenon/bdoc/bdoc"
)

// Writer writes GS1 frames to an io.Writer. It is safe for concurrent
// use; each frame is written atomically with respect to other frames.
type Writer struct {
	mu          sync.Mutex
	w           io.Writer
	withCRC     bool
	compression CompressionTag
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCRC computes and includes a CRC-32 for every non-empty payload.
func WithCRC() WriterOption {
	return func(w *Writer) {
		w.withCRC = true
	}
}

// WithCompression compresses payloads with tag. Payloads that do not
// shrink are sent uncompressed.
func WithCompression(tag CompressionTag) WriterOption {
	return func(w *Writer) {
		w.compression = tag
	}
}

// NewWriter creates a new GS1 frame writer.
func NewWriter(w io.Writer, opts ...WriterOption) *Writer {
	writer := &Writer{w: w}
	for _, opt := range opts {
		opt(writer)
	}
	return writer
}

// WriteFrame writes a single frame.
//
// Format:
//
//	@frame{v=1 sid=N seq=N kind=K len=N [crc=X] [base=alg:X] [comp=C raw=N] [final=true]}\n
//	<payload bytes>\n
//
// len is the number of payload bytes on the wire; raw is the
// uncompressed length when comp is present. The CRC always covers the
// uncompressed payload.
func (w *Writer) WriteFrame(f *Frame) error {
	wire := f.Payload
	compression := f.Compression
	if compression == CompressionNone {
		compression = w.compression
	}
	if compression != CompressionNone && len(f.Payload) > 0 {
		compressed, err := compressPayload(f.Payload, compression)
		switch {
		case errors.Is(err, errIncompressible):
			compression = CompressionNone
		case err != nil:
			return fmt.Errorf("compress payload: %w", err)
		default:
			wire = compressed
		}
	} else {
		compression = CompressionNone
	}

	var header strings.Builder
	header.WriteString("@frame{")

	header.WriteString("v=")
	if f.Version == 0 {
		header.WriteByte('1')
	} else {
		header.WriteString(strconv.Itoa(int(f.Version)))
	}

	header.WriteString(" sid=")
	header.WriteString(strconv.FormatUint(f.SID, 10))

	header.WriteString(" seq=")
	header.WriteString(strconv.FormatUint(f.Seq, 10))

	header.WriteString(" kind=")
	header.WriteString(f.Kind.String())

	header.WriteString(" len=")
	header.WriteString(strconv.Itoa(len(wire)))

	crc := f.CRC
	if crc == nil && w.withCRC && len(f.Payload) > 0 {
		computed := ComputeCRC(f.Payload)
		crc = &computed
	}
	if crc != nil {
		fmt.Fprintf(&header, " crc=%08x", *crc)
	}

	if f.Base != nil {
		header.WriteString(" base=")
		header.WriteString(f.Base.String())
	}

	if compression != CompressionNone {
		header.WriteString(" comp=")
		header.WriteString(compression.String())
		header.WriteString(" raw=")
		header.WriteString(strconv.Itoa(len(f.Payload)))
	}

	if f.IsFinal() {
		header.WriteString(" final=true")
	}

	header.WriteString("}\n")

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := io.WriteString(w.w, header.String()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if len(wire) > 0 {
		if _, err := w.w.Write(wire); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
	}
	if _, err := io.WriteString(w.w, "\n"); err != nil {
		return fmt.Errorf("write trailing newline: %w", err)
	}
	return nil
}

func (w *Writer) write(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
	})
}

// WriteDoc writes a doc frame with the given encoded document.
func (w *Writer) WriteDoc(sid, seq uint64, payload []byte) error {
	return w.write(sid, seq, KindDoc, payload)
}

// WriteDocument encodes doc and writes it as a doc frame.
func (w *Writer) WriteDocument(sid, seq uint64, doc *bdoc.Document) error {
	payload, err := bdoc.Encode(doc)
	if err != nil {
		return err
	}
	return w.WriteDoc(sid, seq, payload)
}

// WriteSave writes a save frame carrying an encoded document.
func (w *Writer) WriteSave(sid, seq uint64, payload []byte) error {
	return w.write(sid, seq, KindSave, payload)
}

// WriteFetch writes a fetch request (no payload).
func (w *Writer) WriteFetch(sid, seq uint64) error {
	return w.write(sid, seq, KindFetch, nil)
}

// WriteState writes a state reply. A nil payload means no saved state.
func (w *Writer) WriteState(sid, seq uint64, payload []byte, base *Digest) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    KindState,
		Payload: payload,
		Base:    base,
	})
}

// WriteAck writes an acknowledgement frame (typically no payload).
func (w *Writer) WriteAck(sid, seq uint64) error {
	return w.write(sid, seq, KindAck, nil)
}

// WriteErr writes an error frame.
func (w *Writer) WriteErr(sid, seq uint64, payload []byte) error {
	return w.write(sid, seq, KindErr, payload)
}

// WritePing writes a ping frame.
func (w *Writer) WritePing(sid, seq uint64) error {
	return w.write(sid, seq, KindPing, nil)
}

// WritePong writes a pong frame.
func (w *Writer) WritePong(sid, seq uint64) error {
	return w.write(sid, seq, KindPong, nil)
}

// WriteFinal writes a final frame for a stream.
func (w *Writer) WriteFinal(sid, seq uint64, kind FrameKind, payload []byte) error {
	return w.WriteFrame(&Frame{
		Version: Version,
		SID:     sid,
		Seq:     seq,
		Kind:    kind,
		Payload: payload,
		Final:   true,
	})
}
