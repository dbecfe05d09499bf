package bdoc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ============================================================
// Decoder
// ============================================================

// Decode parses an encoded document. Every declared length is checked
// against the remaining input before it is used, so truncated or corrupt
// input fails with ErrTruncated or ErrMalformed instead of panicking.
//
// An empty input is ErrTruncated. Callers that treat "no bytes" as "no
// document" must check for that before calling Decode.
func Decode(b []byte) (*Document, error) {
	return DecodeWithOptions(b, DefaultOptions())
}

// DecodeWithOptions is Decode with explicit options.
func DecodeWithOptions(b []byte, opts Options) (*Document, error) {
	d := decoder{buf: b, maxDepth: opts.maxDepth()}
	start, end, err := d.region(0, len(b))
	if err != nil {
		return nil, err
	}
	if end != len(b) {
		return nil, d.fail(ErrMalformed, end, fmt.Sprintf("%d trailing bytes", len(b)-end))
	}
	return d.document(start, end, 1)
}

type decoder struct {
	buf      []byte
	maxDepth int
}

func (d *decoder) fail(err error, offset int, reason string) error {
	return &DecodeError{Reason: reason, Offset: offset, Err: err}
}

// region reads a u32 length prefix at pos and returns the bounds of the
// body that follows. The body must fit before limit.
func (d *decoder) region(pos, limit int) (int, int, error) {
	if limit-pos < 4 {
		return 0, 0, d.fail(ErrTruncated, pos, "missing length prefix")
	}
	n := uint64(binary.LittleEndian.Uint32(d.buf[pos:]))
	start := pos + 4
	if n > uint64(limit-start) {
		return 0, 0, d.fail(ErrTruncated, pos,
			fmt.Sprintf("declared length %d exceeds remaining %d bytes", n, limit-start))
	}
	return start, start + int(n), nil
}

// lengthPrefixed returns the bytes of a u32-prefixed field at pos and the
// position after it.
func (d *decoder) lengthPrefixed(pos, limit int) ([]byte, int, error) {
	start, end, err := d.region(pos, limit)
	if err != nil {
		return nil, 0, err
	}
	return d.buf[start:end], end, nil
}

func (d *decoder) fixed(pos, limit, width int) ([]byte, error) {
	if limit-pos < width {
		return nil, d.fail(ErrTruncated, pos, fmt.Sprintf("need %d bytes, have %d", width, limit-pos))
	}
	return d.buf[pos : pos+width], nil
}

func (d *decoder) document(pos, end, depth int) (*Document, error) {
	if depth > d.maxDepth {
		return nil, d.fail(ErrDepthExceeded, pos, fmt.Sprintf("depth %d > %d", depth, d.maxDepth))
	}
	doc := NewDocument()
	for pos < end {
		tagAt := pos
		kind := Kind(d.buf[pos])
		pos++
		if !kind.Valid() {
			return nil, d.fail(ErrMalformed, tagAt, fmt.Sprintf("unknown type tag 0x%02x", uint8(kind)))
		}

		name, next, err := d.lengthPrefixed(pos, end)
		if err != nil {
			return nil, err
		}
		pos = next

		v, next, err := d.value(kind, pos, end, depth)
		if err != nil {
			return nil, err
		}
		pos = next

		if !doc.appendUnique(string(name), v) {
			return nil, d.fail(ErrMalformed, tagAt, fmt.Sprintf("duplicate field %q", name))
		}
	}
	return doc, nil
}

func (d *decoder) array(pos, end, depth int) ([]Value, error) {
	if depth > d.maxDepth {
		return nil, d.fail(ErrDepthExceeded, pos, fmt.Sprintf("depth %d > %d", depth, d.maxDepth))
	}
	values := []Value{}
	for pos < end {
		tagAt := pos
		kind := Kind(d.buf[pos])
		pos++
		if !kind.Valid() {
			return nil, d.fail(ErrMalformed, tagAt, fmt.Sprintf("unknown type tag 0x%02x", uint8(kind)))
		}
		v, next, err := d.value(kind, pos, end, depth)
		if err != nil {
			return nil, err
		}
		pos = next
		values = append(values, v)
	}
	return values, nil
}

// value decodes the payload of kind at pos, bounded by end, and returns the
// position after it.
func (d *decoder) value(kind Kind, pos, end, depth int) (Value, int, error) {
	switch kind {
	case KindNull:
		return Null(), pos, nil

	case KindBool:
		b, err := d.fixed(pos, end, 1)
		if err != nil {
			return Value{}, 0, err
		}
		switch b[0] {
		case 0:
			return Bool(false), pos + 1, nil
		case 1:
			return Bool(true), pos + 1, nil
		default:
			return Value{}, 0, d.fail(ErrMalformed, pos, fmt.Sprintf("invalid bool byte 0x%02x", b[0]))
		}

	case KindInt32:
		b, err := d.fixed(pos, end, 4)
		if err != nil {
			return Value{}, 0, err
		}
		return Int32(int32(binary.LittleEndian.Uint32(b))), pos + 4, nil

	case KindInt64, KindDateTime, KindDouble:
		b, err := d.fixed(pos, end, 8)
		if err != nil {
			return Value{}, 0, err
		}
		u := binary.LittleEndian.Uint64(b)
		switch kind {
		case KindInt64:
			return Int64(int64(u)), pos + 8, nil
		case KindDateTime:
			return DateTime(int64(u)), pos + 8, nil
		default:
			return Double(math.Float64frombits(u)), pos + 8, nil
		}

	case KindString:
		b, next, err := d.lengthPrefixed(pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		return String(string(b)), next, nil

	case KindBinary:
		b, next, err := d.lengthPrefixed(pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{kind: KindBinary, bytesVal: bytes.Clone(nonNil(b))}, next, nil

	case KindDecimal:
		b, next, err := d.lengthPrefixed(pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		dec, perr := ParseDecimal(string(b))
		if perr != nil {
			return Value{}, 0, d.fail(ErrMalformed, pos, perr.Error())
		}
		return Value{kind: KindDecimal, decVal: dec}, next, nil

	case KindArray:
		start, stop, err := d.region(pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		values, err := d.array(start, stop, depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{kind: KindArray, arrVal: values}, stop, nil

	case KindDocument:
		start, stop, err := d.region(pos, end)
		if err != nil {
			return Value{}, 0, err
		}
		doc, err := d.document(start, stop, depth+1)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{kind: KindDocument, docVal: doc}, stop, nil

	default:
		return Value{}, 0, d.fail(ErrMalformed, pos, fmt.Sprintf("unknown type tag 0x%02x", uint8(kind)))
	}
}
