// Package exchange moves encoded documents across an external boundary
// and verifies that what comes back is what was sent.
//
// The remote side is reached through two collaborators: a Submitter that
// accepts encoded bytes and returns the bytes it stored, and a Fetcher that
// returns the last saved state. Neither is trusted; RoundTrip decodes the
// reply and compares digests.
package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/Neumenon/bdoc/bdoc"
	"github.com/Neumenon/bdoc/stream"
)

// Submitter sends encoded document bytes to the remote side and returns
// the bytes the remote side reports back.
type Submitter interface {
	Submit(ctx context.Context, payload []byte) ([]byte, error)
}

// Fetcher returns the remote side's saved state. Zero bytes mean no state
// has been saved.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Saver stores encoded bytes as the remote side's state.
type Saver interface {
	Save(ctx context.Context, payload []byte) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f SubmitFunc) Submit(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

// FetchFunc adapts a function to Fetcher.
type FetchFunc func(ctx context.Context) ([]byte, error)

func (f FetchFunc) Fetch(ctx context.Context) ([]byte, error) {
	return f(ctx)
}

var (
	// ErrDigestMismatch reports that the returned bytes differ from the
	// submitted bytes.
	ErrDigestMismatch = errors.New("exchange: digest mismatch")

	// ErrClosed is returned by endpoints that have been closed or broken.
	ErrClosed = errors.New("exchange: endpoint closed")
)

// Report describes one round trip.
type Report struct {
	Outgoing stream.Digest  // digest of the submitted bytes
	Incoming stream.Digest  // digest of the returned bytes
	Match    bool           // Outgoing equals Incoming
	Sent     []byte         // submitted bytes
	Returned []byte         // bytes returned by the Submitter
	Document *bdoc.Document // decoded reply
}

// Verify returns ErrDigestMismatch, wrapped with both digests, when the
// round trip did not reproduce the submitted bytes.
func (r *Report) Verify() error {
	if r.Match {
		return nil
	}
	return fmt.Errorf("%w: sent %s, got %s", ErrDigestMismatch, r.Outgoing, r.Incoming)
}

// RoundTrip encodes doc, submits it, decodes the reply and compares the
// digests of the outgoing and returned bytes. A digest mismatch is not an
// error; call Report.Verify to enforce it.
func RoundTrip(ctx context.Context, s Submitter, doc *bdoc.Document, opts ...Option) (*Report, error) {
	o := newOptions(opts)

	sent, err := bdoc.EncodeWithOptions(doc, o.codec)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	outgoing := stream.Sum(o.alg, sent)
	o.logger.DebugContext(ctx, "submitting document", "bytes", len(sent), "digest", outgoing.String())

	returned, err := s.Submit(ctx, sent)
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}

	reply, err := bdoc.DecodeWithOptions(returned, o.codec)
	if err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	incoming := stream.Sum(o.alg, returned)

	report := &Report{
		Outgoing: outgoing,
		Incoming: incoming,
		Match:    outgoing.Equal(incoming),
		Sent:     sent,
		Returned: returned,
		Document: reply,
	}
	if !report.Match {
		o.logger.WarnContext(ctx, "round trip digest mismatch",
			"outgoing", outgoing.String(), "incoming", incoming.String())
	}
	return report, nil
}

// FetchState fetches and decodes the saved state. It returns ok=false
// with no error when the Fetcher reports zero bytes.
func FetchState(ctx context.Context, f Fetcher, opts ...Option) (doc *bdoc.Document, ok bool, err error) {
	o := newOptions(opts)

	raw, err := f.Fetch(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("fetch: %w", err)
	}
	if len(raw) == 0 {
		o.logger.DebugContext(ctx, "no saved state")
		return nil, false, nil
	}

	doc, err = bdoc.DecodeWithOptions(raw, o.codec)
	if err != nil {
		return nil, false, fmt.Errorf("decode state: %w", err)
	}
	return doc, true, nil
}
