package bdoc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ============================================================
// JSON Bridge
// ============================================================
//
// Converts between JSON text and Documents, keeping field order. Kinds
// JSON cannot express are carried as single-field marker objects:
//
//	{"$int64": "9007199254740993"}
//	{"$double": "NaN"}          (also used for integral doubles: "3")
//	{"$decimal": "107.78"}
//	{"$binary": "SSBBTSBCWVRFUyE="}
//	{"$date": 1661462299912}
//	{"$doc": {"$int64": "5"}}   (a document whose first field looks like a marker)
//
// Plain JSON integers become Int32 when they fit, Int64 otherwise; other
// numbers become Double.

const (
	markerInt64   = "$int64"
	markerDouble  = "$double"
	markerDecimal = "$decimal"
	markerBinary  = "$binary"
	markerDate    = "$date"
	markerDoc     = "$doc"
)

// FromJSON parses a JSON object into a Document.
func FromJSON(data []byte) (*Document, error) {
	return ReadJSON(bytes.NewReader(data))
}

// ReadJSON parses one JSON object from r into a Document.
func ReadJSON(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("JSON parse error: %w", err)
	}
	if tok != json.Delim('{') {
		return nil, fmt.Errorf("bdoc: top-level JSON value must be an object")
	}
	v, err := readObject(dec, true)
	if err != nil {
		return nil, err
	}
	if v.kind != KindDocument {
		return nil, fmt.Errorf("bdoc: top-level JSON value must be a plain object, got %s marker", v.kind)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("bdoc: trailing data after JSON object")
	}
	return v.docVal, nil
}

func readValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("JSON parse error: %w", err)
	}
	return valueFromToken(dec, tok)
}

func valueFromToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return numberValue(t)
	case json.Delim:
		switch t {
		case '[':
			return readArray(dec)
		case '{':
			return readObject(dec, true)
		}
	}
	return Value{}, fmt.Errorf("bdoc: unexpected JSON token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return Int32(int32(i)), nil
			}
			return Int64(i), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("bdoc: invalid JSON number %q: %w", s, err)
	}
	return Double(f), nil
}

func readArray(dec *json.Decoder) (Value, error) {
	values := []Value{}
	for dec.More() {
		v, err := readValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("array[%d]: %w", len(values), err)
		}
		values = append(values, v)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return Value{}, fmt.Errorf("JSON parse error: %w", err)
	}
	return Value{kind: KindArray, arrVal: values}, nil
}

// readObject reads the members after '{'. When markers is set, an object
// whose first key is a known marker must contain only that key.
func readObject(dec *json.Decoder, markers bool) (Value, error) {
	doc := NewDocument()
	first := true
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, fmt.Errorf("JSON parse error: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("bdoc: object key is %T, not string", keyTok)
		}

		if first && markers && isMarker(key) {
			v, err := readMarker(dec, key)
			if err != nil {
				return Value{}, err
			}
			if dec.More() {
				return Value{}, fmt.Errorf("bdoc: %s marker object must have exactly one field", key)
			}
			if _, err := dec.Token(); err != nil { // '}'
				return Value{}, fmt.Errorf("JSON parse error: %w", err)
			}
			return v, nil
		}
		first = false

		v, err := readValue(dec)
		if err != nil {
			return Value{}, fmt.Errorf("object[%q]: %w", key, err)
		}
		doc.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return Value{}, fmt.Errorf("JSON parse error: %w", err)
	}
	return Value{kind: KindDocument, docVal: doc}, nil
}

func isMarker(key string) bool {
	switch key {
	case markerInt64, markerDouble, markerDecimal, markerBinary, markerDate, markerDoc:
		return true
	}
	return false
}

func readMarker(dec *json.Decoder, marker string) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("JSON parse error: %w", err)
	}

	if marker == markerDoc {
		if tok != json.Delim('{') {
			return Value{}, fmt.Errorf("bdoc: %s expects an object", marker)
		}
		return readObject(dec, false)
	}

	if marker == markerDate {
		n, ok := tok.(json.Number)
		if !ok {
			return Value{}, fmt.Errorf("bdoc: %s expects a number of milliseconds", marker)
		}
		ms, err := n.Int64()
		if err != nil {
			return Value{}, fmt.Errorf("bdoc: invalid %s: %w", marker, err)
		}
		return DateTime(ms), nil
	}

	s, ok := tok.(string)
	if !ok {
		return Value{}, fmt.Errorf("bdoc: %s expects a string", marker)
	}
	switch marker {
	case markerInt64:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("bdoc: invalid %s: %w", marker, err)
		}
		return Int64(i), nil
	case markerDouble:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("bdoc: invalid %s: %w", marker, err)
		}
		return Double(f), nil
	case markerDecimal:
		d, err := ParseDecimal(s)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil
	case markerBinary:
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Value{}, fmt.Errorf("bdoc: invalid %s: %w", marker, err)
		}
		return Binary(b), nil
	}
	return Value{}, fmt.Errorf("bdoc: unknown marker %s", marker)
}

// ============================================================
// Document to JSON
// ============================================================

// ToJSON renders d as compact JSON. FromJSON(ToJSON(d)) equals d, except
// that NaN payload bits and invalid UTF-8 in strings are not preserved.
func ToJSON(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeDocumentJSON(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ToJSONIndent is ToJSON with indentation.
func ToJSONIndent(d *Document, prefix, indent string) ([]byte, error) {
	compact, err := ToJSON(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, compact, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeDocumentJSON(buf *bytes.Buffer, d *Document) error {
	if keys := d.Keys(); len(keys) > 0 && isMarker(keys[0]) {
		buf.WriteString(`{"` + markerDoc + `":`)
		defer buf.WriteByte('}')
	}
	buf.WriteByte('{')
	i := 0
	for name, v := range d.Entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		writeJSONString(buf, name)
		buf.WriteByte(':')
		if err := writeValueJSON(buf, v); err != nil {
			return fmt.Errorf("object[%q]: %w", name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeValueJSON(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt32:
		buf.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindInt64:
		writeMarker(buf, markerInt64, strconv.FormatInt(v.intVal, 10))
	case KindDouble:
		writeDoubleJSON(buf, v.floatVal)
	case KindDecimal:
		writeMarker(buf, markerDecimal, v.decVal.String())
	case KindString:
		writeJSONString(buf, v.strVal)
	case KindBinary:
		writeMarker(buf, markerBinary, base64.StdEncoding.EncodeToString(v.bytesVal))
	case KindDateTime:
		buf.WriteString(`{"` + markerDate + `":`)
		buf.WriteString(strconv.FormatInt(v.intVal, 10))
		buf.WriteByte('}')
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arrVal {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValueJSON(buf, e); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case KindDocument:
		return writeDocumentJSON(buf, v.docVal)
	default:
		return ErrUnsupportedKind
	}
	return nil
}

// writeDoubleJSON writes f as a JSON number when it will read back as a
// Double with the same bits, and as a $double marker otherwise.
func writeDoubleJSON(buf *bytes.Buffer, f float64) {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if math.IsNaN(f) || math.IsInf(f, 0) || !strings.ContainsAny(s, ".e") {
		writeMarker(buf, markerDouble, s)
		return
	}
	buf.WriteString(s)
}

func writeMarker(buf *bytes.Buffer, marker, s string) {
	buf.WriteString(`{"` + marker + `":`)
	writeJSONString(buf, s)
	buf.WriteByte('}')
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}
