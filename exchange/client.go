package exchange

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Neumenon/bdoc/stream"
)

// Client talks to a Server over GS1 frames. It implements Submitter,
// Fetcher and Saver. Requests are serialized; each waits for its reply.
//
// A request abandoned because its context ended leaves the frame stream
// in an unknown position, so the client refuses further requests.
type Client struct {
	mu     sync.Mutex
	reader *stream.Reader
	writer *stream.Writer
	opts   *options
	seq    uint64
	broken error
}

// NewClient creates a client reading replies from r and writing requests
// to w.
func NewClient(r io.Reader, w io.Writer, opts ...Option) *Client {
	o := newOptions(opts)
	return &Client{
		reader: stream.NewReader(r, o.readerOptions()...),
		writer: stream.NewWriter(w, o.writerOptions()...),
		opts:   o,
	}
}

// Submit implements Submitter.
func (c *Client) Submit(ctx context.Context, payload []byte) ([]byte, error) {
	reply, err := c.call(ctx, stream.KindDoc, payload, stream.KindDoc)
	if err != nil {
		return nil, err
	}
	return reply.Payload, nil
}

// Fetch implements Fetcher. An empty state reply yields zero bytes.
func (c *Client) Fetch(ctx context.Context) ([]byte, error) {
	reply, err := c.call(ctx, stream.KindFetch, nil, stream.KindState)
	if err != nil {
		return nil, err
	}
	return reply.Payload, nil
}

// Save implements Saver.
func (c *Client) Save(ctx context.Context, payload []byte) error {
	_, err := c.call(ctx, stream.KindSave, payload, stream.KindAck)
	return err
}

// Ping checks that the server is answering.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.call(ctx, stream.KindPing, nil, stream.KindPong)
	return err
}

type callResult struct {
	frame *stream.Frame
	err   error
}

func (c *Client) call(ctx context.Context, kind stream.FrameKind, payload []byte, want stream.FrameKind) (*stream.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, c.broken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.seq++
	request := &stream.Frame{
		Version: stream.Version,
		SID:     c.opts.sid,
		Seq:     c.seq,
		Kind:    kind,
		Payload: payload,
	}

	done := make(chan callResult, 1)
	go func() {
		if err := c.writer.WriteFrame(request); err != nil {
			done <- callResult{err: fmt.Errorf("write %s frame: %w", kind, err)}
			return
		}
		frame, err := c.reader.Next()
		if err != nil {
			err = fmt.Errorf("read %s reply: %w", kind, err)
		}
		done <- callResult{frame: frame, err: err}
	}()

	var res callResult
	select {
	case <-ctx.Done():
		c.broken = fmt.Errorf("%w: %s request %d abandoned", ErrClosed, kind, request.Seq)
		return nil, ctx.Err()
	case res = <-done:
	}

	if res.err != nil {
		c.broken = fmt.Errorf("%w: %v", ErrClosed, res.err)
		return nil, res.err
	}

	reply := res.frame
	if reply.Kind == stream.KindErr {
		ev, err := stream.ParseErrorEvent(reply.Payload)
		if err != nil {
			return nil, err
		}
		return nil, ev
	}
	if reply.SID != request.SID || reply.Seq != request.Seq || reply.Kind != want {
		c.broken = fmt.Errorf("%w: out of sync", ErrClosed)
		return nil, fmt.Errorf("unexpected reply sid=%d seq=%d kind=%s to %s request sid=%d seq=%d",
			reply.SID, reply.Seq, reply.Kind, kind, request.SID, request.Seq)
	}
	c.opts.logger.DebugContext(ctx, "reply", "kind", reply.Kind.String(), "seq", reply.Seq, "bytes", len(reply.Payload))
	return reply, nil
}

// Pipe runs a Server for backend on in-memory pipes and returns a Client
// connected to it. The returned stop function closes the connection and
// returns the server's result.
func Pipe(ctx context.Context, backend Backend, opts ...Option) (*Client, func() error) {
	requestR, requestW := io.Pipe()
	replyR, replyW := io.Pipe()

	server := NewServer(backend, opts...)
	errc := make(chan error, 1)
	go func() {
		err := server.Serve(ctx, requestR, replyW)
		replyW.CloseWithError(err)
		requestR.CloseWithError(err)
		errc <- err
	}()

	var once sync.Once
	var serveErr error
	stop := func() error {
		once.Do(func() {
			requestW.Close()
			serveErr = <-errc
			replyR.Close()
		})
		return serveErr
	}
	return NewClient(replyR, requestW, opts...), stop
}
