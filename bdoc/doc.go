// Package bdoc implements a self-describing binary document format.
//
// A Document is an ordered set of named, dynamically-typed Values. The
// value set is closed:
//
//	null, bool, int32, int64, double, decimal, string, binary,
//	datetime, array, document
//
// # Determinism
//
// Encode is a pure function of a document's contents and field order.
// Two encodings of equal documents are byte-identical, so a digest of the
// encoded bytes can be used to check that a document survived a trip
// through another system unchanged:
//
//	out, _ := bdoc.Encode(doc)
//	back, _ := remote.Submit(ctx, out)
//	same := sha256.Sum256(out) == sha256.Sum256(back)
//
// # Wire format
//
// All integers are little-endian.
//
//	document := u32 bodyLen, element*
//	element  := u8 tag, [u32 nameLen, name], payload
//
// Names are present for document members only; array members are
// positional. Payloads are fixed width (bool, int32, int64, double,
// datetime), u32 length-prefixed (string, binary, decimal text) or a
// nested length-prefixed region (array, document). Tags follow BSON's
// numbering.
//
// # Ownership
//
// Values own their children. Doc, Array and Document.Set copy their
// arguments, so a tree can never contain a cycle and the walker always
// terminates.
package bdoc
