package stream

import (
	"crypto/sha256"
	"fmt"
	"hash/crc32"
	"strings"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/zeebo/blake3"
)

// HashAlgorithm names a 256-bit digest function.
type HashAlgorithm string

const (
	SHA256 HashAlgorithm = "sha256"
	BLAKE3 HashAlgorithm = "blake3"
)

// ParseHashAlgorithm parses "sha256" or "blake3". The empty string means
// SHA256.
func ParseHashAlgorithm(s string) (HashAlgorithm, error) {
	switch strings.ToLower(s) {
	case "", "sha256", "sha-256":
		return SHA256, nil
	case "blake3":
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm: %q", s)
	}
}

// Digest is a 32-byte content digest tagged with its algorithm.
type Digest struct {
	Alg HashAlgorithm
	Sum [32]byte
}

// String returns "<alg>:<hex>".
func (d Digest) String() string {
	alg := d.Alg
	if alg == "" {
		alg = SHA256
	}
	return string(alg) + ":" + HashToHex(d.Sum)
}

// Equal compares algorithm and sum.
func (d Digest) Equal(other Digest) bool {
	return d.algOrDefault() == other.algOrDefault() && d.Sum == other.Sum
}

func (d Digest) algOrDefault() HashAlgorithm {
	if d.Alg == "" {
		return SHA256
	}
	return d.Alg
}

// ParseDigest parses "<alg>:<hex>" or bare hex (SHA-256).
func ParseDigest(s string) (Digest, error) {
	alg := SHA256
	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		a, err := ParseHashAlgorithm(prefix)
		if err != nil {
			return Digest{}, err
		}
		alg, s = a, rest
	}
	sum, ok := HexToHash(s)
	if !ok {
		return Digest{}, fmt.Errorf("invalid digest hex: %q", s)
	}
	return Digest{Alg: alg, Sum: sum}, nil
}

// Sum computes the digest of data with alg. An unknown algorithm falls back
// to SHA-256.
func Sum(alg HashAlgorithm, data []byte) Digest {
	switch alg {
	case BLAKE3:
		return Digest{Alg: BLAKE3, Sum: blake3.Sum256(data)}
	default:
		return Digest{Alg: SHA256, Sum: sha256.Sum256(data)}
	}
}

// StateHash computes the digest of a document's encoding. Equal documents
// always hash the same because encoding is deterministic. Nesting is
// limited to bdoc.DefaultMaxDepth; use StateHashWithOptions to raise it.
func StateHash(alg HashAlgorithm, doc *bdoc.Document) (Digest, error) {
	return StateHashWithOptions(alg, doc, bdoc.DefaultOptions())
}

// StateHashWithOptions is StateHash encoding with opts.
func StateHashWithOptions(alg HashAlgorithm, doc *bdoc.Document, opts bdoc.Options) (Digest, error) {
	encoded, err := bdoc.EncodeWithOptions(doc, opts)
	if err != nil {
		return Digest{}, err
	}
	return Sum(alg, encoded), nil
}

// StateHashBytes computes SHA-256 of raw bytes.
// Use this when you already have encoded bytes.
func StateHashBytes(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// VerifyBase checks if the current state digest matches the expected base.
func VerifyBase(current, expected Digest) bool {
	return current.Equal(expected)
}

// HashToHex converts a 32-byte hash to lowercase hex string.
func HashToHex(h [32]byte) string {
	const hextable = "0123456789abcdef"
	var buf [64]byte
	for i, b := range h {
		buf[i*2] = hextable[b>>4]
		buf[i*2+1] = hextable[b&0x0f]
	}
	return string(buf[:])
}

// HexToHash parses a 64-character hex string to a 32-byte hash.
func HexToHash(s string) ([32]byte, bool) {
	var h [32]byte
	if len(s) != 64 {
		return h, false
	}
	for i := 0; i < 32; i++ {
		hi := hexDigit(s[i*2])
		lo := hexDigit(s[i*2+1])
		if hi < 0 || lo < 0 {
			return h, false
		}
		h[i] = byte(hi<<4 | lo)
	}
	return h, true
}

func hexDigit(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c - 'a' + 10)
	case c >= 'A' && c <= 'F':
		return int(c - 'A' + 10)
	default:
		return -1
	}
}

// ComputeCRC returns the IEEE CRC-32 carried in a frame's crc field.
func ComputeCRC(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// VerifyCRC reports whether data matches a frame's crc field.
func VerifyCRC(data []byte, expected uint32) bool {
	return ComputeCRC(data) == expected
}
