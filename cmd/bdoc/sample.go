package main

import "github.com/Neumenon/bdoc/bdoc"

// sampleDateMillis is fixed so the sample's digest never changes.
const sampleDateMillis = 1661462299912 // 2022-08-25T21:18:19.912Z

// sampleDocument builds the document roundtrip uses when no input is given.
func sampleDocument() *bdoc.Document {
	inner := bdoc.NewDocument().
		Set("corn", bdoc.String("dog")).
		Set("blb", bdoc.String("brp")).
		Set("foo", bdoc.Int64(-8)).
		Set("hdate", bdoc.DateTime(sampleDateMillis))

	return bdoc.NewDocument().
		Set("name", bdoc.String("bob")).
		Set("age", bdoc.Int32(21)).
		Set("dbl", bdoc.Double(3.14159)).
		Set("someThings", bdoc.Array(
			bdoc.Int32(1),
			bdoc.String("foo"),
			bdoc.DecimalValue(bdoc.MustDecimal("107.78")),
			bdoc.Binary([]byte("I AM BYTES!")),
			bdoc.Doc(inner),
			bdoc.Doc(inner),
		))
}
