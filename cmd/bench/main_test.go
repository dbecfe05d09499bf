package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	r, err := measure("flat", []byte(`{"name": "bob", "age": 21}`))
	require.NoError(t, err)

	assert.Equal(t, "flat", r.Name)
	assert.Equal(t, len(`{"name":"bob","age":21}`), r.JSONBytes)
	// 4 len + (1+5+4+4) string + (1+4+4) int32 + terminator
	assert.Equal(t, 28, r.BDOCBytes)
	assert.True(t, r.Stable)
	assert.Greater(t, r.FrameBytes, r.BDOCBytes)
	// Tiny payloads do not compress, so the writer sends them plain.
	assert.Equal(t, r.FrameBytes, r.ZstdBytes)
	assert.Equal(t, r.FrameBytes, r.LZ4Bytes)
}

func TestMeasure_Compressible(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"rows": [`)
	for i := range 200 {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"status": "ok", "region": "us-east-1"}`)
	}
	b.WriteString(`]}`)

	r, err := measure("rows", []byte(b.String()))
	require.NoError(t, err)
	assert.True(t, r.Stable)
	assert.Less(t, r.ZstdBytes, r.FrameBytes)
	assert.Less(t, r.LZ4Bytes, r.FrameBytes)
}

func TestMeasure_RejectsNonObject(t *testing.T) {
	_, err := measure("array", []byte(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestCorpus(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "json")
	manifest, err := loadManifest(dir)
	require.NoError(t, err)
	require.NotEmpty(t, manifest.Cases)

	var results []CaseResult
	for _, c := range manifest.Cases {
		data, err := readCase(dir, c.File)
		require.NoError(t, err, c.Name)
		r, err := measure(c.Name, data)
		require.NoError(t, err, c.Name)
		assert.True(t, r.Stable, c.Name)
		results = append(results, r)
	}

	var csv bytes.Buffer
	writeCSV(&csv, results)
	lines := strings.Split(strings.TrimSpace(csv.String()), "\n")
	assert.Len(t, lines, len(results)+1)

	var md bytes.Buffer
	writeMarkdown(&md, results, manifest.Version)
	assert.Contains(t, md.String(), "# bdoc Benchmark Results")
	assert.Contains(t, md.String(), "_None - every case re-encodes to identical bytes._")
}

func TestTruncateName(t *testing.T) {
	assert.Equal(t, "short", truncateName("short", 10))
	assert.Equal(t, "abcdefg...", truncateName("abcdefghijklmnop", 10))
}
