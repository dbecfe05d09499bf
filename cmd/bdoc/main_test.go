package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and stdin, returning stdout
// and stderr. Flag variables are reset first because cobra keeps them
// between runs.
func execute(t *testing.T, stdin []byte, args ...string) (string, string, error) {
	t.Helper()

	verbose, cfgFile = false, ""
	encodeOutput, decodeIndent, hashAlg = "", true, ""
	statePath, showTree = "", true

	var out, errOut bytes.Buffer
	rootCmd.SetIn(bytes.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Equal(t, "bdoc 0.1.0 (format 1, gs1 v1)\n", out)
}

func TestEncodeDecode(t *testing.T) {
	input := []byte(`{"b":1,"a":{"$decimal":"107.78"},"when":{"$date":1661462299912}}`)

	encoded, _, err := execute(t, input, "encode")
	require.NoError(t, err)

	doc, err := bdoc.Decode([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "when"}, doc.Keys())

	out, _, err := execute(t, []byte(encoded), "decode", "--indent=false")
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":{"$decimal":"107.78"},"when":{"$date":1661462299912}}`+"\n", out)
}

func TestEncodeToFileThenWalk(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "in.json")
	binPath := filepath.Join(dir, "out.bdoc")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"name":"bob","tags":["x",true]}`), 0o644))

	out, _, err := execute(t, nil, "encode", jsonPath, "-o", binPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, _, err = execute(t, nil, "walk", binPath)
	require.NoError(t, err)
	assert.Equal(t, "name: string \"bob\"\ntags: array len=2\n  [0]: string \"x\"\n  [1]: bool true\n", out)
}

func TestDecode_Malformed(t *testing.T) {
	_, _, err := execute(t, []byte{9, 0, 0, 0, 1}, "decode")
	require.Error(t, err)
	assert.ErrorIs(t, err, bdoc.ErrTruncated)

	_, _, err = execute(t, []byte(`[1]`), "encode")
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	out, _, err := execute(t, nil, "hash")
	require.NoError(t, err)
	assert.Equal(t, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855  -\n", out)

	out, _, err = execute(t, nil, "hash", "--alg", "blake3")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"), out)

	_, _, err = execute(t, nil, "hash", "--alg", "md5")
	assert.Error(t, err)
}

func TestRoundtrip_Sample(t *testing.T) {
	encoded, err := bdoc.Encode(sampleDocument())
	require.NoError(t, err)
	digest := stream.Sum(stream.SHA256, encoded).String()

	out, _, err := execute(t, nil, "roundtrip")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "outgoing: "+digest, lines[0])
	assert.Equal(t, "incoming: "+digest, lines[1])
	assert.Equal(t, "match: true", lines[2])
	assert.Equal(t, `name: string "bob"`, lines[3])
	assert.Contains(t, out, "    hdate: datetime 2022-08-25T21:18:19.912Z (1661462299912)\n")
}

func TestRoundtrip_ConfigAndState(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, "state.bdoc")
	cfgPath := filepath.Join(dir, "bdoc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("digest: blake3\ncompression: zstd\ncrc: true\n"), 0o644))

	out, _, err := execute(t, nil, "fetch", "--state", state)
	require.NoError(t, err)
	assert.Equal(t, "no saved state; run roundtrip to set it\n", out)

	out, _, err = execute(t, nil, "--config", cfgPath, "roundtrip", "--state", state, "--walk=false")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "outgoing: blake3:"), out)
	assert.Contains(t, out, "match: true\n")
	assert.NotContains(t, out, "name:")

	out, _, err = execute(t, nil, "fetch", "--state", state)
	require.NoError(t, err)
	want := &bytes.Buffer{}
	require.NoError(t, bdoc.Fprint(want, sampleDocument()))
	assert.Equal(t, want.String(), out)
}

func TestFetch_NeedsStatePath(t *testing.T) {
	_, _, err := execute(t, nil, "fetch")
	assert.ErrorContains(t, err, "no state path")
}

func TestConfig_Invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("digest: md5\n"), 0o644))

	_, _, err := execute(t, nil, "--config", cfgPath, "version")
	assert.Error(t, err)
}

func TestFrames(t *testing.T) {
	var in bytes.Buffer
	w := stream.NewWriter(&in, stream.WithCRC())
	require.NoError(t, w.WriteDocument(1, 1, bdoc.NewDocument().Set("name", bdoc.String("bob"))))
	require.NoError(t, w.WriteErr(1, 2, stream.EmitError(stream.CodeMalformed, "bad tag", 1, 2)))
	require.NoError(t, w.WriteFinal(1, 3, stream.KindPing, nil))

	out, errOut, err := execute(t, in.Bytes(), "frames")
	require.NoError(t, err)

	assert.Contains(t, out, "--- Frame 1 ---\n  sid=1 seq=1 kind=doc len=")
	assert.Contains(t, out, "  name: string \"bob\"\n")
	assert.Contains(t, out, "  error: MALFORMED: bad tag\n")
	assert.Contains(t, out, "--- Frame 3 ---\n  sid=1 seq=3 kind=ping len=0\n  final=true\n")
	assert.Contains(t, errOut, "--- 3 frames decoded ---")
}
