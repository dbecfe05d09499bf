package stream

import (
	"testing"

	"github.com/Neumenon/bdoc/bdoc"
)

func TestHash_RoundTrip(t *testing.T) {
	original := [32]byte{
		0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89,
		0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89,
		0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89,
		0xab, 0xcd, 0xef, 0x01, 0x23, 0x45, 0x67, 0x89,
	}

	hex := HashToHex(original)
	if len(hex) != 64 {
		t.Errorf("hex length = %d, want 64", len(hex))
	}

	parsed, ok := HexToHash(hex)
	if !ok {
		t.Fatal("HexToHash failed")
	}
	if parsed != original {
		t.Error("round-trip failed")
	}

	if _, ok := HexToHash(hex[:63] + "g"); ok {
		t.Error("HexToHash accepted a non-hex digit")
	}
}

func TestHash_KnownDigests(t *testing.T) {
	testCases := []struct {
		alg  HashAlgorithm
		want string
	}{
		{SHA256, "sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{BLAKE3, "blake3:af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
	}
	for _, tc := range testCases {
		if got := Sum(tc.alg, nil).String(); got != tc.want {
			t.Errorf("Sum(%s, empty) = %s, want %s", tc.alg, got, tc.want)
		}
	}
}

func TestHash_ParseDigest(t *testing.T) {
	d := Sum(BLAKE3, []byte("payload"))

	parsed, err := ParseDigest(d.String())
	if err != nil {
		t.Fatalf("ParseDigest failed: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("parsed %s, want %s", parsed, d)
	}

	// Same bytes under a different algorithm are a different digest.
	if parsed.Equal(Digest{Alg: SHA256, Sum: d.Sum}) {
		t.Error("digests with different algorithms compared equal")
	}

	for _, bad := range []string{"md5:00", "sha256:zz", "abc"} {
		if _, err := ParseDigest(bad); err == nil {
			t.Errorf("ParseDigest(%q) should fail", bad)
		}
	}
}

func TestHash_ParseHashAlgorithm(t *testing.T) {
	for in, want := range map[string]HashAlgorithm{"": SHA256, "SHA256": SHA256, "sha-256": SHA256, "blake3": BLAKE3} {
		got, err := ParseHashAlgorithm(in)
		if err != nil || got != want {
			t.Errorf("ParseHashAlgorithm(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseHashAlgorithm("crc32"); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestHash_StateHashMatchesEncoding(t *testing.T) {
	doc := bdoc.NewDocument().Set("a", bdoc.Int32(1)).Set("b", bdoc.String("x"))

	got, err := StateHash(SHA256, doc)
	if err != nil {
		t.Fatalf("StateHash failed: %v", err)
	}
	if got.Sum != StateHashBytes(encodeDoc(t, doc)) {
		t.Error("StateHash differs from hashing the encoding")
	}

	// Field order is part of the state.
	swapped := bdoc.NewDocument().Set("b", bdoc.String("x")).Set("a", bdoc.Int32(1))
	other, err := StateHash(SHA256, swapped)
	if err != nil {
		t.Fatal(err)
	}
	if VerifyBase(got, other) {
		t.Error("reordered document produced the same state hash")
	}

	if _, err := StateHash(SHA256, bdoc.NewDocument().Set("bad", bdoc.Value{})); err == nil {
		t.Error("expected error for unencodable document")
	}
}
