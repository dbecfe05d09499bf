package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/exchange"
	"github.com/Neumenon/bdoc/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, bdoc.DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, stream.MaxPayloadSize, cfg.MaxPayload)
	assert.False(t, cfg.CRC)
	assert.Empty(t, cfg.StatePath)

	alg, err := cfg.HashAlgorithm()
	require.NoError(t, err)
	assert.Equal(t, stream.SHA256, alg)

	tag, err := cfg.CompressionTag()
	require.NoError(t, err)
	assert.Equal(t, stream.CompressionNone, tag)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
max_depth: 12
digest: blake3
compression: zstd
crc: true
state_path: /tmp/state.bdoc
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 12, cfg.MaxDepth)
	assert.Equal(t, "blake3", cfg.Digest)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.True(t, cfg.CRC)
	assert.Equal(t, "/tmp/state.bdoc", cfg.StatePath)
	assert.Equal(t, stream.MaxPayloadSize, cfg.MaxPayload, "unset keys keep defaults")
	assert.Equal(t, bdoc.Options{MaxDepth: 12}, cfg.CodecOptions())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	testCases := map[string]string{
		"unknown key":      "colour: blue\n",
		"bad digest":       "digest: md5\n",
		"bad compression":  "compression: gzip\n",
		"bad level":        "log_level: chatty\n",
		"negative depth":   "max_depth: -1\n",
		"negative payload": "max_payload: -5\n",
		"not yaml":         "max_depth: [\n",
	}
	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExchangeOptions_PersistState(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.StatePath = filepath.Join(t.TempDir(), "state.bdoc")
	cfg.Digest = "blake3"
	require.NoError(t, cfg.Validate())

	opts := cfg.ExchangeOptions(slog.Default())
	doc := bdoc.NewDocument().Set("k", bdoc.String("v"))

	report, err := exchange.RoundTrip(ctx, exchange.NewLoopback(opts...), doc, opts...)
	require.NoError(t, err)
	assert.True(t, report.Match)
	assert.Equal(t, stream.BLAKE3, report.Outgoing.Alg)

	state, ok, err := exchange.FetchState(ctx, exchange.NewLoopback(opts...), opts...)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, state.Equal(doc))
}
