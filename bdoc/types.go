package bdoc

import (
	"bytes"
	"fmt"
	"time"
)

// Kind identifies the variant held by a Value. The numeric values are the
// wire tags written by the encoder.
type Kind uint8

const (
	KindInvalid  Kind = 0x00 // zero Value; never encodable
	KindDouble   Kind = 0x01
	KindString   Kind = 0x02
	KindDocument Kind = 0x03
	KindArray    Kind = 0x04
	KindBinary   Kind = 0x05
	KindBool     Kind = 0x08
	KindDateTime Kind = 0x09
	KindNull     Kind = 0x0A
	KindInt32    Kind = 0x10
	KindInt64    Kind = 0x12
	KindDecimal  Kind = 0x13
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindDouble:
		return "double"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDateTime:
		return "datetime"
	case KindArray:
		return "array"
	case KindDocument:
		return "document"
	default:
		return fmt.Sprintf("unknown(0x%02x)", uint8(k))
	}
}

// Valid reports whether k is one of the kinds the codec understands.
func (k Kind) Valid() bool {
	switch k {
	case KindNull, KindBool, KindInt32, KindInt64, KindDouble, KindDecimal,
		KindString, KindBinary, KindDateTime, KindArray, KindDocument:
		return true
	}
	return false
}

// Value is a dynamically-typed document value. Only the field matching
// kind is meaningful. Values own their children: Array and Doc copy what
// they are given, so a value tree can never contain a cycle.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64 // Int32, Int64 and DateTime
	floatVal float64
	strVal   string
	bytesVal []byte
	decVal   Decimal

	arrVal []Value
	docVal *Document
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() Value {
	return Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, boolVal: v}
}

// Int32 creates a 32-bit integer value.
func Int32(v int32) Value {
	return Value{kind: KindInt32, intVal: int64(v)}
}

// Int64 creates a 64-bit integer value.
func Int64(v int64) Value {
	return Value{kind: KindInt64, intVal: v}
}

// Double creates a float64 value.
func Double(v float64) Value {
	return Value{kind: KindDouble, floatVal: v}
}

// DecimalValue creates a decimal value.
func DecimalValue(d Decimal) Value {
	return Value{kind: KindDecimal, decVal: d.clone()}
}

// String creates a string value.
func String(v string) Value {
	return Value{kind: KindString, strVal: v}
}

// Binary creates a binary value holding a copy of b.
func Binary(b []byte) Value {
	return Value{kind: KindBinary, bytesVal: bytes.Clone(nonNil(b))}
}

// DateTime creates a datetime value from milliseconds since the Unix epoch.
func DateTime(ms int64) Value {
	return Value{kind: KindDateTime, intVal: ms}
}

// Time creates a datetime value from t, truncated to the millisecond.
// The location is not stored.
func Time(t time.Time) Value {
	return DateTime(t.UnixMilli())
}

// Array creates an array value. The elements are copied.
func Array(values ...Value) Value {
	arr := make([]Value, len(values))
	for i, v := range values {
		arr[i] = v.clone()
	}
	return Value{kind: KindArray, arrVal: arr}
}

// Doc creates a nested document value holding a deep copy of d.
// A nil d yields an empty document.
func Doc(d *Document) Value {
	if d == nil {
		return Value{kind: KindDocument, docVal: NewDocument()}
	}
	return Value{kind: KindDocument, docVal: d.Clone()}
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the value kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if this is a null value.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) mismatch(want Kind) error {
	return fmt.Errorf("bdoc: expected %s, got %s", want, v.kind)
}

// AsBool returns the boolean value.
func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, v.mismatch(KindBool)
	}
	return v.boolVal, nil
}

// AsInt32 returns the int32 value.
func (v Value) AsInt32() (int32, error) {
	if v.kind != KindInt32 {
		return 0, v.mismatch(KindInt32)
	}
	return int32(v.intVal), nil
}

// AsInt64 returns the int64 value.
func (v Value) AsInt64() (int64, error) {
	if v.kind != KindInt64 {
		return 0, v.mismatch(KindInt64)
	}
	return v.intVal, nil
}

// AsDouble returns the float64 value.
func (v Value) AsDouble() (float64, error) {
	if v.kind != KindDouble {
		return 0, v.mismatch(KindDouble)
	}
	return v.floatVal, nil
}

// AsDecimal returns the decimal value.
func (v Value) AsDecimal() (Decimal, error) {
	if v.kind != KindDecimal {
		return Decimal{}, v.mismatch(KindDecimal)
	}
	return v.decVal.clone(), nil
}

// AsString returns the string value.
func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", v.mismatch(KindString)
	}
	return v.strVal, nil
}

// AsBinary returns a copy of the binary payload.
func (v Value) AsBinary() ([]byte, error) {
	if v.kind != KindBinary {
		return nil, v.mismatch(KindBinary)
	}
	return bytes.Clone(v.bytesVal), nil
}

// AsDateTime returns milliseconds since the Unix epoch.
func (v Value) AsDateTime() (int64, error) {
	if v.kind != KindDateTime {
		return 0, v.mismatch(KindDateTime)
	}
	return v.intVal, nil
}

// AsTime returns the datetime as a UTC time.Time.
func (v Value) AsTime() (time.Time, error) {
	ms, err := v.AsDateTime()
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms).UTC(), nil
}

// AsArray returns the array elements. The returned slice is a copy;
// nested documents are shared with v.
func (v Value) AsArray() ([]Value, error) {
	if v.kind != KindArray {
		return nil, v.mismatch(KindArray)
	}
	out := make([]Value, len(v.arrVal))
	copy(out, v.arrVal)
	return out, nil
}

// AsDocument returns the nested document. The document is owned by v.
func (v Value) AsDocument() (*Document, error) {
	if v.kind != KindDocument {
		return nil, v.mismatch(KindDocument)
	}
	return v.docVal, nil
}

// Len returns the number of elements of an array or fields of a document,
// and the payload length of a string or binary value.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arrVal)
	case KindDocument:
		return v.docVal.Len()
	case KindString:
		return len(v.strVal)
	case KindBinary:
		return len(v.bytesVal)
	default:
		return 0
	}
}

// Index returns the i-th element of an array.
func (v Value) Index(i int) (Value, error) {
	if v.kind != KindArray {
		return Value{}, fmt.Errorf("bdoc: not an array")
	}
	if i < 0 || i >= len(v.arrVal) {
		return Value{}, fmt.Errorf("bdoc: index %d out of bounds (len=%d)", i, len(v.arrVal))
	}
	return v.arrVal[i], nil
}

// clone returns a deep copy of v.
func (v Value) clone() Value {
	switch v.kind {
	case KindBinary:
		v.bytesVal = bytes.Clone(v.bytesVal)
	case KindDecimal:
		v.decVal = v.decVal.clone()
	case KindArray:
		arr := make([]Value, len(v.arrVal))
		for i, e := range v.arrVal {
			arr[i] = e.clone()
		}
		v.arrVal = arr
	case KindDocument:
		v.docVal = v.docVal.Clone()
	}
	return v
}
