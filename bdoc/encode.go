package bdoc

import (
	"encoding/binary"
	"math"
	"strconv"
)

// DefaultMaxDepth is the nesting limit used when Options.MaxDepth is not set.
// The top-level document is depth 1.
const DefaultMaxDepth = 100

// Options controls encoding and decoding.
type Options struct {
	// MaxDepth bounds document/array nesting. Zero or negative means
	// DefaultMaxDepth.
	MaxDepth int
}

// DefaultOptions returns the options used by Encode and Decode.
func DefaultOptions() Options {
	return Options{MaxDepth: DefaultMaxDepth}
}

func (o Options) maxDepth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// ============================================================
// Encoder
// ============================================================

// Encode serializes d. The output depends only on d's contents and field
// order, so encoding the same document twice yields identical bytes.
func Encode(d *Document) ([]byte, error) {
	return EncodeWithOptions(d, DefaultOptions())
}

// EncodeWithOptions is Encode with explicit options.
func EncodeWithOptions(d *Document, opts Options) ([]byte, error) {
	return AppendDocument(nil, d, opts)
}

// AppendDocument appends the encoding of d to dst and returns the extended
// buffer. On error dst is returned unchanged in length.
func AppendDocument(dst []byte, d *Document, opts Options) ([]byte, error) {
	e := encoder{buf: dst, maxDepth: opts.maxDepth()}
	start := len(dst)
	if err := e.document(d, 1); err != nil {
		return dst[:start], err
	}
	return e.buf, nil
}

type encoder struct {
	buf      []byte
	maxDepth int
}

// beginRegion reserves a length prefix and returns its offset.
func (e *encoder) beginRegion() int {
	at := len(e.buf)
	e.buf = append(e.buf, 0, 0, 0, 0)
	return at
}

// endRegion back-fills the length prefix at 'at' with the body size.
func (e *encoder) endRegion(at int) error {
	n := len(e.buf) - at - 4
	if uint64(n) > math.MaxUint32 {
		return &EncodeError{Err: ErrMalformed}
	}
	binary.LittleEndian.PutUint32(e.buf[at:], uint32(n))
	return nil
}

func (e *encoder) document(d *Document, depth int) error {
	if depth > e.maxDepth {
		return &EncodeError{Err: ErrDepthExceeded}
	}
	at := e.beginRegion()
	for name, v := range d.Entries() {
		if !v.kind.Valid() {
			return &EncodeError{Path: name, Err: ErrUnsupportedKind}
		}
		e.buf = append(e.buf, byte(v.kind))
		if err := e.lengthPrefixed([]byte(name)); err != nil {
			return prefixPath(err, name)
		}
		if err := e.payload(v, depth); err != nil {
			return prefixPath(err, name)
		}
	}
	return e.endRegion(at)
}

func (e *encoder) array(values []Value, depth int) error {
	if depth > e.maxDepth {
		return &EncodeError{Err: ErrDepthExceeded}
	}
	at := e.beginRegion()
	for i, v := range values {
		if !v.kind.Valid() {
			return &EncodeError{Path: indexSegment(i), Err: ErrUnsupportedKind}
		}
		e.buf = append(e.buf, byte(v.kind))
		if err := e.payload(v, depth); err != nil {
			return prefixPath(err, indexSegment(i))
		}
	}
	return e.endRegion(at)
}

func (e *encoder) payload(v Value, depth int) error {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		if v.boolVal {
			e.buf = append(e.buf, 1)
		} else {
			e.buf = append(e.buf, 0)
		}
		return nil
	case KindInt32:
		e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(int32(v.intVal)))
		return nil
	case KindInt64, KindDateTime:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, uint64(v.intVal))
		return nil
	case KindDouble:
		e.buf = binary.LittleEndian.AppendUint64(e.buf, math.Float64bits(v.floatVal))
		return nil
	case KindDecimal:
		return e.lengthPrefixed([]byte(v.decVal.String()))
	case KindString:
		return e.lengthPrefixed([]byte(v.strVal))
	case KindBinary:
		return e.lengthPrefixed(v.bytesVal)
	case KindArray:
		return e.array(v.arrVal, depth+1)
	case KindDocument:
		return e.document(v.docVal, depth+1)
	default:
		return &EncodeError{Err: ErrUnsupportedKind}
	}
}

func (e *encoder) lengthPrefixed(b []byte) error {
	if uint64(len(b)) > math.MaxUint32 {
		return &EncodeError{Err: ErrMalformed}
	}
	e.buf = binary.LittleEndian.AppendUint32(e.buf, uint32(len(b)))
	e.buf = append(e.buf, b...)
	return nil
}

// prefixPath records the enclosing field as an error travels up.
func prefixPath(err error, segment string) error {
	ee, ok := err.(*EncodeError)
	if !ok {
		return err
	}
	switch {
	case ee.Path == "":
		ee.Path = segment
	case ee.Path[0] == '[':
		ee.Path = segment + ee.Path
	default:
		ee.Path = segment + "." + ee.Path
	}
	return ee
}

func indexSegment(i int) string {
	return "[" + strconv.Itoa(i) + "]"
}
