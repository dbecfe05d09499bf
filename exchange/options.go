package exchange

import (
	"log/slog"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
)

// Option configures round trips and endpoints.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	alg         stream.HashAlgorithm
	codec       bdoc.Options
	compression stream.CompressionTag
	crc         bool
	maxPayload  int
	store       StateStore
	sid         uint64
}

func newOptions(opts []Option) *options {
	o := &options{
		alg:        stream.SHA256,
		codec:      bdoc.DefaultOptions(),
		maxPayload: stream.MaxPayloadSize,
		sid:        1,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.store == nil {
		o.store = &MemoryStore{}
	}
	return o
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHash selects the digest algorithm. Defaults to SHA-256.
func WithHash(alg stream.HashAlgorithm) Option {
	return func(o *options) {
		o.alg = alg
	}
}

// WithMaxDepth sets the nesting limit used when encoding and decoding.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.codec.MaxDepth = depth
	}
}

// WithCompression compresses frame payloads sent by stream endpoints.
func WithCompression(tag stream.CompressionTag) Option {
	return func(o *options) {
		o.compression = tag
	}
}

// WithCRC adds a CRC-32 to frames sent by stream endpoints.
func WithCRC(enabled bool) Option {
	return func(o *options) {
		o.crc = enabled
	}
}

// WithMaxPayload bounds frame payloads read by stream endpoints.
func WithMaxPayload(n int) Option {
	return func(o *options) {
		o.maxPayload = n
	}
}

// WithStore sets where a Loopback keeps its saved state. Defaults to an
// in-memory store.
func WithStore(store StateStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithStreamID sets the stream ID a Client sends on. Defaults to 1.
func WithStreamID(sid uint64) Option {
	return func(o *options) {
		o.sid = sid
	}
}

func (o *options) writerOptions() []stream.WriterOption {
	var opts []stream.WriterOption
	if o.crc {
		opts = append(opts, stream.WithCRC())
	}
	if o.compression != stream.CompressionNone {
		opts = append(opts, stream.WithCompression(o.compression))
	}
	return opts
}

func (o *options) readerOptions() []stream.ReaderOption {
	return []stream.ReaderOption{stream.WithMaxPayload(o.maxPayload)}
}
