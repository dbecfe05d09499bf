package stream

import (
	"errors"
	"fmt"

	"github.com/Neumenon/bdoc/bdoc"
)

// ============================================================
// Error Events
// ============================================================
//
// Payloads of kind=err frames are bdoc documents:
//
//	{code: string, msg: string, sid: int64, seq: int64}

// Error codes carried in error events.
const (
	CodeMalformed     = "MALFORMED"
	CodeTruncated     = "TRUNCATED"
	CodeDepthExceeded = "DEPTH_EXCEEDED"
	CodeUnsupported   = "UNSUPPORTED_KIND"
	CodeBaseMismatch  = "BASE_MISMATCH"
	CodeCRCMismatch   = "CRC_MISMATCH"
	CodeBadFrame      = "BAD_FRAME"
	CodeInternal      = "INTERNAL"
)

// ErrorEvent is the decoded form of an error frame payload.
type ErrorEvent struct {
	Code    string
	Message string
	SID     uint64
	Seq     uint64
}

func (e *ErrorEvent) Error() string {
	return fmt.Sprintf("remote error %s (sid=%d seq=%d): %s", e.Code, e.SID, e.Seq, e.Message)
}

// Document returns the event as a document.
func (e *ErrorEvent) Document() *bdoc.Document {
	return bdoc.NewDocument().
		Set("code", bdoc.String(e.Code)).
		Set("msg", bdoc.String(e.Message)).
		Set("sid", bdoc.Int64(int64(e.SID))).
		Set("seq", bdoc.Int64(int64(e.Seq)))
}

// EmitError encodes an error event as bdoc bytes.
func EmitError(code, msg string, sid, seq uint64) []byte {
	ev := &ErrorEvent{Code: code, Message: msg, SID: sid, Seq: seq}
	// A flat document of strings and integers always encodes.
	out, _ := bdoc.Encode(ev.Document())
	return out
}

// ErrorCode maps an error to the code reported in an error event.
func ErrorCode(err error) string {
	var crc *CRCMismatchError
	var base *BaseMismatchError
	var parse *ParseError
	switch {
	case errors.Is(err, bdoc.ErrTruncated):
		return CodeTruncated
	case errors.Is(err, bdoc.ErrDepthExceeded):
		return CodeDepthExceeded
	case errors.Is(err, bdoc.ErrUnsupportedKind):
		return CodeUnsupported
	case errors.Is(err, bdoc.ErrMalformed):
		return CodeMalformed
	case errors.As(err, &crc):
		return CodeCRCMismatch
	case errors.As(err, &base):
		return CodeBaseMismatch
	case errors.As(err, &parse):
		return CodeBadFrame
	default:
		return CodeInternal
	}
}

// ParseErrorEvent decodes an error frame payload.
func ParseErrorEvent(payload []byte) (*ErrorEvent, error) {
	doc, err := bdoc.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("parse error event: %w", err)
	}

	ev := &ErrorEvent{}
	if ev.Code, err = stringField(doc, "code"); err != nil {
		return nil, err
	}
	if ev.Message, err = stringField(doc, "msg"); err != nil {
		return nil, err
	}
	sid, err := intField(doc, "sid")
	if err != nil {
		return nil, err
	}
	seq, err := intField(doc, "seq")
	if err != nil {
		return nil, err
	}
	ev.SID, ev.Seq = uint64(sid), uint64(seq)
	return ev, nil
}

func stringField(doc *bdoc.Document, name string) (string, error) {
	v, err := doc.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("parse error event: %w", err)
	}
	s, err := v.AsString()
	if err != nil {
		return "", fmt.Errorf("parse error event field %s: %w", name, err)
	}
	return s, nil
}

func intField(doc *bdoc.Document, name string) (int64, error) {
	v, err := doc.Lookup(name)
	if err != nil {
		return 0, fmt.Errorf("parse error event: %w", err)
	}
	switch v.Kind() {
	case bdoc.KindInt32:
		n, _ := v.AsInt32()
		return int64(n), nil
	default:
		n, err := v.AsInt64()
		if err != nil {
			return 0, fmt.Errorf("parse error event field %s: %w", name, err)
		}
		return n, nil
	}
}
