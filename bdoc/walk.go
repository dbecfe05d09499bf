package bdoc

import (
	"encoding/hex"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Tree Walker
// ============================================================

// binaryPreviewBytes caps how much of a binary payload is shown as hex.
const binaryPreviewBytes = 32

// Line is one rendered node of a walked document.
type Line struct {
	Depth int
	Name  string // field name, or "[i]" for array elements
	Kind  Kind
	Text  string // literal for scalars, "len=N" for containers
}

// String renders the line with two spaces of indentation per depth level.
func (l Line) String() string {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", l.Depth))
	sb.WriteString(l.Name)
	sb.WriteString(": ")
	sb.WriteString(l.Kind.String())
	if l.Text != "" {
		sb.WriteByte(' ')
		sb.WriteString(l.Text)
	}
	return sb.String()
}

// Walk yields one Line per node of d, depth-first, fields in Entries order.
// Top-level fields are reported at the given depth, their children at
// depth+1 and so on. The sequence is produced lazily.
func Walk(d *Document, depth int) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		walkDocument(d, depth, yield)
	}
}

// WalkValue is Walk for a single named value.
func WalkValue(name string, v Value, depth int) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		walkValue(name, v, depth, yield)
	}
}

func walkDocument(d *Document, depth int, yield func(Line) bool) bool {
	for name, v := range d.Entries() {
		if !walkValue(name, v, depth, yield) {
			return false
		}
	}
	return true
}

func walkValue(name string, v Value, depth int, yield func(Line) bool) bool {
	if !yield(Line{Depth: depth, Name: name, Kind: v.kind, Text: literal(v)}) {
		return false
	}
	switch v.kind {
	case KindArray:
		for i, e := range v.arrVal {
			if !walkValue("["+strconv.Itoa(i)+"]", e, depth+1, yield) {
				return false
			}
		}
	case KindDocument:
		return walkDocument(v.docVal, depth+1, yield)
	}
	return true
}

// literal renders the value part of a line. Binary payloads are shown as a
// length plus a bounded hex preview, never as raw bytes.
func literal(v Value) string {
	switch v.kind {
	case KindNull, KindInvalid:
		return ""
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.intVal, 10)
	case KindDouble:
		return strconv.FormatFloat(v.floatVal, 'g', -1, 64)
	case KindDecimal:
		return v.decVal.String()
	case KindString:
		return strconv.Quote(v.strVal)
	case KindBinary:
		preview := v.bytesVal
		suffix := ""
		if len(preview) > binaryPreviewBytes {
			preview = preview[:binaryPreviewBytes]
			suffix = "..."
		}
		if len(preview) == 0 {
			return "len=0"
		}
		return fmt.Sprintf("len=%d 0x%s%s", len(v.bytesVal), hex.EncodeToString(preview), suffix)
	case KindDateTime:
		t := time.UnixMilli(v.intVal).UTC()
		return fmt.Sprintf("%s (%d)", t.Format("2006-01-02T15:04:05.000Z07:00"), v.intVal)
	case KindArray:
		return "len=" + strconv.Itoa(len(v.arrVal))
	case KindDocument:
		return "len=" + strconv.Itoa(v.docVal.Len())
	default:
		return ""
	}
}

// Fprint writes one walker line per node of d to w.
func Fprint(w io.Writer, d *Document) error {
	for line := range Walk(d, 0) {
		if _, err := io.WriteString(w, line.String()+"\n"); err != nil {
			return err
		}
	}
	return nil
}
