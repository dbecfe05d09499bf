package bdoc

import (
	"iter"
)

// Element is a single named member of a Document.
type Element struct {
	Name  string
	Value Value
}

// Document is an ordered mapping of field names to values. Field names are
// unique. Iteration and encoding follow insertion order.
//
// A Document is not safe for concurrent mutation.
type Document struct {
	fields []Element
	index  map[string]int
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Set inserts or overwrites the field name. A new name is appended at the
// end; overwriting an existing name keeps its original position. The value
// is copied, so later changes to anything reachable from v do not affect d.
// Set returns d to allow chaining.
func (d *Document) Set(name string, v Value) *Document {
	v = v.clone()
	if i, ok := d.index[name]; ok {
		d.fields[i].Value = v
		return d
	}
	if d.index == nil {
		d.index = make(map[string]int)
	}
	d.index[name] = len(d.fields)
	d.fields = append(d.fields, Element{Name: name, Value: v})
	return d
}

// Get returns the value stored under name. The boolean is false when the
// field does not exist.
func (d *Document) Get(name string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	i, ok := d.index[name]
	if !ok {
		return Value{}, false
	}
	return d.fields[i].Value, true
}

// Lookup is Get with an error result: ErrNotFound when name is absent.
func (d *Document) Lookup(name string) (Value, error) {
	v, ok := d.Get(name)
	if !ok {
		return Value{}, &FieldError{Name: name, Err: ErrNotFound}
	}
	return v, nil
}

// Has reports whether name is present.
func (d *Document) Has(name string) bool {
	_, ok := d.Get(name)
	return ok
}

// Delete removes name and reports whether it was present. The relative
// order of the remaining fields is unchanged.
func (d *Document) Delete(name string) bool {
	i, ok := d.index[name]
	if !ok {
		return false
	}
	d.fields = append(d.fields[:i], d.fields[i+1:]...)
	delete(d.index, name)
	for j := i; j < len(d.fields); j++ {
		d.index[d.fields[j].Name] = j
	}
	return true
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.fields)
}

// Keys returns the field names in order.
func (d *Document) Keys() []string {
	keys := make([]string, 0, d.Len())
	for name := range d.Entries() {
		keys = append(keys, name)
	}
	return keys
}

// Entries yields the fields in insertion order. This is the order used by
// the encoder and the walker.
func (d *Document) Entries() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, e := range d.fields {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// Elements returns a copy of the fields in order.
func (d *Document) Elements() []Element {
	out := make([]Element, d.Len())
	if d != nil {
		copy(out, d.fields)
	}
	return out
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{}
	if d == nil || len(d.fields) == 0 {
		return out
	}
	out.fields = make([]Element, len(d.fields))
	out.index = make(map[string]int, len(d.fields))
	for i, e := range d.fields {
		out.fields[i] = Element{Name: e.Name, Value: e.Value.clone()}
		out.index[e.Name] = i
	}
	return out
}

// appendUnique is used by the decoder: it appends without cloning and
// refuses duplicate names.
func (d *Document) appendUnique(name string, v Value) bool {
	if _, dup := d.index[name]; dup {
		return false
	}
	if d.index == nil {
		d.index = make(map[string]int)
	}
	d.index[name] = len(d.fields)
	d.fields = append(d.fields, Element{Name: name, Value: v})
	return true
}
