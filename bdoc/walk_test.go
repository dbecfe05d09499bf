package bdoc

import (
	"bytes"
	"strings"
	"testing"
)

func TestWalk_NestedRendering(t *testing.T) {
	var buf bytes.Buffer
	if err := Fprint(&buf, sampleDocument()); err != nil {
		t.Fatalf("Fprint failed: %v", err)
	}

	want := `name: string "bob"
age: int32 21
dbl: double 3.14159
someThings: array len=6
  [0]: int32 1
  [1]: string "foo"
  [2]: decimal 107.78
  [3]: binary len=11 0x4920414d20425954455321
  [4]: document len=4
    corn: string "dog"
    blb: string "brp"
    foo: int64 -8
    hdate: datetime 2022-08-25T21:18:19.912Z (1661462299912)
  [5]: document len=4
    corn: string "dog"
    blb: string "brp"
    foo: int64 -8
    hdate: datetime 2022-08-25T21:18:19.912Z (1661462299912)
`
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestWalk_StartDepth(t *testing.T) {
	d := NewDocument().Set("a", Doc(NewDocument().Set("b", Null())))

	var lines []Line
	for line := range Walk(d, 2) {
		lines = append(lines, line)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0].Depth != 2 || lines[1].Depth != 3 {
		t.Errorf("Unexpected depths %d, %d", lines[0].Depth, lines[1].Depth)
	}
	if lines[1].String() != "      b: null" {
		t.Errorf("Unexpected rendering %q", lines[1].String())
	}
}

func TestWalk_StopsEarly(t *testing.T) {
	n := 0
	for range Walk(sampleDocument(), 0) {
		n++
		if n == 5 {
			break
		}
	}
	if n != 5 {
		t.Errorf("Expected to stop after 5 lines, got %d", n)
	}
}

func TestWalk_BinaryPreviewIsBounded(t *testing.T) {
	payload := bytes.Repeat([]byte{0x00, 0x07, 0x1b}, 100)
	var got string
	for line := range WalkValue("blob", Binary(payload), 0) {
		got = line.String()
	}
	if !strings.HasPrefix(got, "blob: binary len=300 0x0007") {
		t.Errorf("Unexpected prefix: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Expected truncated preview: %q", got)
	}
	if strings.ContainsAny(got, "\x00\x07\x1b") {
		t.Errorf("Raw control bytes leaked into output")
	}
}

func TestWalk_EmptyContainers(t *testing.T) {
	d := NewDocument().
		Set("arr", Array()).
		Set("doc", Doc(nil)).
		Set("bin", Binary(nil))

	var lines []string
	for line := range Walk(d, 0) {
		lines = append(lines, line.String())
	}
	want := []string{"arr: array len=0", "doc: document len=0", "bin: binary len=0"}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("got %q, want %q", lines, want)
	}
}
