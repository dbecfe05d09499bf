package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Neumenon/bdoc/stream"
)

// Backend is the remote side a Server exposes over frames.
type Backend interface {
	Submitter
	Fetcher
	Saver
}

// Server answers GS1 frames on behalf of a Backend:
//
//	doc   -> doc reply carrying the bytes returned by Submit
//	save  -> ack
//	fetch -> state reply (empty payload when nothing is saved)
//	ping  -> pong
//
// Failures are reported as err frames and the connection stays up.
type Server struct {
	backend Backend
	opts    *options
}

// NewServer creates a server for backend.
func NewServer(backend Backend, opts ...Option) *Server {
	return &Server{backend: backend, opts: newOptions(opts)}
}

// writeError marks a failure to write a reply; it ends the session.
type writeError struct{ err error }

func (e *writeError) Error() string { return e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// Serve reads frames from r and writes replies to w until r reaches EOF,
// ctx is done, a reply cannot be written, or the frame stream loses sync.
// Serve returns nil on EOF. The caller unblocks a pending read by closing r.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := stream.NewReader(r, s.opts.readerOptions()...)
	writer := stream.NewWriter(w, s.opts.writerOptions()...)
	handler := s.newHandler(ctx, writer)
	logger := s.opts.logger

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := reader.Next()
		if err == io.EOF {
			logger.DebugContext(ctx, "stream closed by peer")
			return nil
		}
		if err != nil {
			logger.WarnContext(ctx, "bad frame", "error", err)
			if werr := writer.WriteErr(0, 0, stream.EmitError(stream.ErrorCode(err), err.Error(), 0, 0)); werr != nil {
				return fmt.Errorf("write error reply: %w", werr)
			}
			// The payload of a frame failing its CRC was fully consumed.
			var crcErr *stream.CRCMismatchError
			if errors.As(err, &crcErr) {
				continue
			}
			return fmt.Errorf("read frame: %w", err)
		}

		logger.DebugContext(ctx, "frame", "sid", frame.SID, "seq", frame.Seq, "kind", frame.Kind.String(), "bytes", len(frame.Payload))

		if err := handler.Handle(frame); err != nil {
			var we *writeError
			if errors.As(err, &we) {
				return fmt.Errorf("write reply: %w", we.err)
			}
			logger.WarnContext(ctx, "request failed", "sid", frame.SID, "seq", frame.Seq, "kind", frame.Kind.String(), "error", err)
			payload := stream.EmitError(stream.ErrorCode(err), err.Error(), frame.SID, frame.Seq)
			if werr := writer.WriteErr(frame.SID, frame.Seq, payload); werr != nil {
				return fmt.Errorf("write error reply: %w", werr)
			}
		}
	}
}

func (s *Server) newHandler(ctx context.Context, writer *stream.Writer) *stream.FrameHandler {
	h := &stream.FrameHandler{Cursor: stream.NewStreamCursorWithOptions(s.opts.alg, s.opts.codec)}
	logger := s.opts.logger

	wrote := func(err error) error {
		if err != nil {
			return &writeError{err: err}
		}
		return nil
	}
	remember := func(sid uint64, stored []byte) {
		if len(stored) > 0 {
			h.Cursor.SetStateHash(sid, stream.Sum(s.opts.alg, stored))
		}
	}

	h.OnDoc = func(sid, seq uint64, payload []byte, _ *stream.SIDState) error {
		reply, err := s.backend.Submit(ctx, payload)
		if err != nil {
			return err
		}
		remember(sid, reply)
		return wrote(writer.WriteDoc(sid, seq, reply))
	}
	h.OnSave = func(sid, seq uint64, payload []byte, _ *stream.SIDState) error {
		if err := s.backend.Save(ctx, payload); err != nil {
			return err
		}
		stored, err := s.backend.Fetch(ctx)
		if err != nil {
			return err
		}
		remember(sid, stored)
		if err := writer.WriteAck(sid, seq); err != nil {
			return wrote(err)
		}
		h.Cursor.Ack(sid, seq)
		return nil
	}
	h.OnFetch = func(sid, seq uint64, _ *stream.SIDState) error {
		stored, err := s.backend.Fetch(ctx)
		if err != nil {
			return err
		}
		if len(stored) == 0 {
			return wrote(writer.WriteState(sid, seq, nil, nil))
		}
		base := stream.Sum(s.opts.alg, stored)
		h.Cursor.SetStateHash(sid, base)
		return wrote(writer.WriteState(sid, seq, stored, &base))
	}
	h.OnPing = func(sid, seq uint64, _ *stream.SIDState) error {
		return wrote(writer.WritePong(sid, seq))
	}
	h.OnSeqGap = func(sid uint64, expected, got uint64) error {
		logger.WarnContext(ctx, "sequence gap", "sid", sid, "expected", expected, "got", got)
		return nil
	}
	h.OnFinal = func(sid uint64, _ *stream.SIDState) error {
		logger.DebugContext(ctx, "stream finished", "sid", sid)
		h.Cursor.Delete(sid)
		return nil
	}
	return h
}
