// Package config loads settings for the bdoc CLI and exchange endpoints
// from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/exchange"
	"github.com/Neumenon/bdoc/stream"
	"gopkg.in/yaml.v3"
)

// Config holds all settings. Zero-valued fields in a YAML file keep their
// defaults.
type Config struct {
	// MaxDepth is the nesting limit for encoding and decoding.
	MaxDepth int `yaml:"max_depth"`

	// Digest is the hash used to compare round trips: "sha256" or "blake3".
	Digest string `yaml:"digest"`

	// Compression for frame payloads: "none", "zstd" or "lz4".
	Compression string `yaml:"compression"`

	// MaxPayload bounds a single frame payload in bytes.
	MaxPayload int `yaml:"max_payload"`

	// CRC adds a CRC-32 to every frame.
	CRC bool `yaml:"crc"`

	// StatePath is where the loopback endpoint persists its saved state.
	// Empty keeps state in memory.
	StatePath string `yaml:"state_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxDepth:    bdoc.DefaultMaxDepth,
		Digest:      string(stream.SHA256),
		Compression: stream.CompressionNone.String(),
		MaxPayload:  stream.MaxPayloadSize,
		LogLevel:    "info",
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth must be at least 1, got %d", c.MaxDepth)
	}
	if c.MaxPayload < 1 {
		return fmt.Errorf("max_payload must be positive, got %d", c.MaxPayload)
	}
	if _, err := c.HashAlgorithm(); err != nil {
		return fmt.Errorf("digest: %w", err)
	}
	if _, err := c.CompressionTag(); err != nil {
		return fmt.Errorf("compression: %w", err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// HashAlgorithm returns the configured digest algorithm.
func (c *Config) HashAlgorithm() (stream.HashAlgorithm, error) {
	return stream.ParseHashAlgorithm(c.Digest)
}

// CompressionTag returns the configured frame compression.
func (c *Config) CompressionTag() (stream.CompressionTag, error) {
	return stream.ParseCompressionTag(c.Compression)
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, err
	}
	return level, nil
}

// CodecOptions returns the bdoc options for this configuration.
func (c *Config) CodecOptions() bdoc.Options {
	return bdoc.Options{MaxDepth: c.MaxDepth}
}

// ExchangeOptions translates the configuration into exchange options.
// Call Validate first; invalid values fall back to defaults.
func (c *Config) ExchangeOptions(logger *slog.Logger) []exchange.Option {
	alg, _ := c.HashAlgorithm()
	tag, _ := c.CompressionTag()

	opts := []exchange.Option{
		exchange.WithLogger(logger),
		exchange.WithHash(alg),
		exchange.WithMaxDepth(c.MaxDepth),
		exchange.WithMaxPayload(c.MaxPayload),
		exchange.WithCRC(c.CRC),
		exchange.WithCompression(tag),
	}
	if c.StatePath != "" {
		opts = append(opts, exchange.WithStore(exchange.FileStore{Path: c.StatePath}))
	}
	return opts
}
