package bdoc

import (
	"bytes"
	"math"
)

// Equal reports whether d and other hold the same fields in the same order
// with equal values.
func (d *Document) Equal(other *Document) bool {
	if d.Len() != other.Len() {
		return false
	}
	for i := 0; i < d.Len(); i++ {
		a, b := d.fields[i], other.fields[i]
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Equal reports whether v and other are the same kind with equal contents.
// Doubles compare by bit pattern, so -0 differs from 0 and a NaN equals an
// identical NaN. Decimals compare by coefficient and scale.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull, KindInvalid:
		return true
	case KindBool:
		return v.boolVal == other.boolVal
	case KindInt32, KindInt64, KindDateTime:
		return v.intVal == other.intVal
	case KindDouble:
		return math.Float64bits(v.floatVal) == math.Float64bits(other.floatVal)
	case KindDecimal:
		return v.decVal.Equal(other.decVal)
	case KindString:
		return v.strVal == other.strVal
	case KindBinary:
		return bytes.Equal(v.bytesVal, other.bytesVal)
	case KindArray:
		if len(v.arrVal) != len(other.arrVal) {
			return false
		}
		for i := range v.arrVal {
			if !v.arrVal[i].Equal(other.arrVal[i]) {
				return false
			}
		}
		return true
	case KindDocument:
		return v.docVal.Equal(other.docVal)
	default:
		return false
	}
}
