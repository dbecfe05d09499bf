package exchange

import (
	"context"
	"fmt"
	"sync"

	"github.com/Neumenon/bdoc/bdoc"
)

// Loopback is an in-process remote side. Submit decodes the payload,
// stores it as the saved state and echoes the re-encoded document, so a
// faithful codec round-trips byte-for-byte.
type Loopback struct {
	mu   sync.Mutex
	opts *options
}

// NewLoopback creates a loopback endpoint.
func NewLoopback(opts ...Option) *Loopback {
	return &Loopback{opts: newOptions(opts)}
}

// Submit implements Submitter.
func (l *Loopback) Submit(ctx context.Context, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	encoded, err := l.reencode(payload)
	if err != nil {
		l.opts.logger.WarnContext(ctx, "rejected submission", "bytes", len(payload), "error", err)
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.opts.store.Store(ctx, encoded); err != nil {
		return nil, fmt.Errorf("store state: %w", err)
	}
	l.opts.logger.DebugContext(ctx, "stored submission", "bytes", len(encoded))
	return encoded, nil
}

// Save implements Saver. The payload must decode.
func (l *Loopback) Save(ctx context.Context, payload []byte) error {
	_, err := l.Submit(ctx, payload)
	return err
}

// Fetch implements Fetcher.
func (l *Loopback) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.store.Load(ctx)
}

// State returns the decoded saved state, or nil when nothing was saved.
func (l *Loopback) State(ctx context.Context) (*bdoc.Document, error) {
	doc, _, err := FetchState(ctx, l, WithMaxDepth(l.opts.codec.MaxDepth), WithLogger(l.opts.logger))
	return doc, err
}

func (l *Loopback) reencode(payload []byte) ([]byte, error) {
	doc, err := bdoc.DecodeWithOptions(payload, l.opts.codec)
	if err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	encoded, err := bdoc.EncodeWithOptions(doc, l.opts.codec)
	if err != nil {
		return nil, fmt.Errorf("re-encode submission: %w", err)
	}
	return encoded, nil
}
