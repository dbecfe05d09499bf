// bdoc - binary document codec CLI
//
// Usage:
//
//	bdoc encode [file.json] [-o out.bdoc]   Convert JSON to the binary encoding
//	bdoc decode [file.bdoc]                 Convert the binary encoding to JSON
//	bdoc walk [file.bdoc]                   Print the document tree
//	bdoc hash [file] [--alg sha256|blake3]  Digest raw bytes
//	bdoc roundtrip [file.json]              Round-trip a document through the loopback endpoint
//	bdoc fetch [--state path]               Print the saved state
//	bdoc frames [file]                      Decode GS1 frames and print them
//	bdoc version                            Print version info
//
// If no file is given, or the file is "-", input is read from stdin.
package main

func main() {
	Execute()
}
