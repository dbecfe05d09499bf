package stream

import (
	"fmt"
	"sync"

	"github.com/Neumenon/bdoc/bdoc"
)

// StreamCursor tracks per-SID state for stream processing.
// It maintains sequence numbers, saved-state digests, and provides
// helpers for base verification and acknowledgement.
type StreamCursor struct {
	mu sync.RWMutex

	alg     HashAlgorithm
	codec   bdoc.Options
	cursors map[uint64]*SIDState
}

// SIDState holds state for a single stream ID.
type SIDState struct {
	SID       uint64
	LastSeq   uint64         // Last sequence number seen
	LastAcked uint64         // Last sequence number acknowledged
	StateHash Digest         // Digest of State's encoding
	HasState  bool           // Whether StateHash is valid
	State     *bdoc.Document // Saved state document (optional)
	Final     bool           // Whether stream has ended
}

// NewStreamCursor creates a new stream cursor hashing with SHA-256.
func NewStreamCursor() *StreamCursor {
	return NewStreamCursorWithHash(SHA256)
}

// NewStreamCursorWithHash creates a cursor that digests state with alg.
func NewStreamCursorWithHash(alg HashAlgorithm) *StreamCursor {
	return NewStreamCursorWithOptions(alg, bdoc.DefaultOptions())
}

// NewStreamCursorWithOptions creates a cursor that digests state with alg,
// encoding it with codec.
func NewStreamCursorWithOptions(alg HashAlgorithm, codec bdoc.Options) *StreamCursor {
	return &StreamCursor{
		alg:     alg,
		codec:   codec,
		cursors: make(map[uint64]*SIDState),
	}
}

// Get returns the state for a SID, creating it if needed.
func (sc *StreamCursor) Get(sid uint64) *SIDState {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	state, ok := sc.cursors[sid]
	if !ok {
		state = &SIDState{SID: sid}
		sc.cursors[sid] = state
	}
	return state
}

// GetReadOnly returns the state for a SID without creating it.
func (sc *StreamCursor) GetReadOnly(sid uint64) *SIDState {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.cursors[sid]
}

// Delete removes state for a SID.
func (sc *StreamCursor) Delete(sid uint64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.cursors, sid)
}

// AllSIDs returns all tracked SIDs.
func (sc *StreamCursor) AllSIDs() []uint64 {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sids := make([]uint64, 0, len(sc.cursors))
	for sid := range sc.cursors {
		sids = append(sids, sid)
	}
	return sids
}

// ProcessFrame processes a frame and updates cursor state.
// Returns an error if:
//   - Sequence number is not monotonic (gap or duplicate)
//   - A save frame names a base digest that differs from the saved state
//
// On success, updates LastSeq and returns nil.
func (sc *StreamCursor) ProcessFrame(frame *Frame) error {
	state := sc.Get(frame.SID)

	if frame.Seq != 0 && frame.Seq <= state.LastSeq {
		return fmt.Errorf("sequence not monotonic: got %d, last was %d", frame.Seq, state.LastSeq)
	}
	if state.LastSeq > 0 && frame.Seq != state.LastSeq+1 {
		return fmt.Errorf("sequence gap: expected %d, got %d", state.LastSeq+1, frame.Seq)
	}

	if err := sc.checkBase(state, frame); err != nil {
		return err
	}

	state.LastSeq = frame.Seq
	if frame.IsFinal() {
		state.Final = true
	}
	return nil
}

// checkBase verifies the base digest on save frames. A save without a
// base always succeeds.
func (sc *StreamCursor) checkBase(state *SIDState, frame *Frame) error {
	if frame.Kind != KindSave || frame.Base == nil {
		return nil
	}
	if !state.HasState {
		return fmt.Errorf("cannot verify base: no saved state for SID %d", frame.SID)
	}
	if !VerifyBase(state.StateHash, *frame.Base) {
		return &BaseMismatchError{Expected: *frame.Base, Got: state.StateHash}
	}
	return nil
}

// SetState records doc as the saved state for sid and computes its
// digest. The cursor keeps its own copy.
func (sc *StreamCursor) SetState(sid uint64, doc *bdoc.Document) error {
	hash, err := StateHashWithOptions(sc.alg, doc, sc.codec)
	if err != nil {
		return err
	}
	state := sc.Get(sid)
	state.State = doc.Clone()
	state.StateHash = hash
	state.HasState = true
	return nil
}

// SetStateHash sets the state digest directly.
// Use this when you have pre-computed the hash.
func (sc *StreamCursor) SetStateHash(sid uint64, hash Digest) {
	state := sc.Get(sid)
	state.StateHash = hash
	state.HasState = true
}

// Ack marks a sequence as acknowledged.
func (sc *StreamCursor) Ack(sid, seq uint64) {
	state := sc.Get(sid)
	if seq > state.LastAcked {
		state.LastAcked = seq
	}
}

// PendingAcks returns sequences that have been seen but not acked.
func (sc *StreamCursor) PendingAcks(sid uint64) []uint64 {
	state := sc.GetReadOnly(sid)
	if state == nil {
		return nil
	}
	if state.LastSeq <= state.LastAcked {
		return nil
	}

	pending := make([]uint64, 0, state.LastSeq-state.LastAcked)
	for seq := state.LastAcked + 1; seq <= state.LastSeq; seq++ {
		pending = append(pending, seq)
	}
	return pending
}

// NeedsResync returns true if no saved state is known for sid.
func (sc *StreamCursor) NeedsResync(sid uint64) bool {
	state := sc.GetReadOnly(sid)
	if state == nil {
		return true
	}
	return !state.HasState
}

// ============================================================
// Frame Handler - functional processing helper
// ============================================================

// FrameHandler processes frames with state tracking.
type FrameHandler struct {
	Cursor *StreamCursor

	// Callbacks (optional)
	OnDoc   func(sid uint64, seq uint64, payload []byte, state *SIDState) error
	OnSave  func(sid uint64, seq uint64, payload []byte, state *SIDState) error
	OnFetch func(sid uint64, seq uint64, state *SIDState) error
	OnState func(sid uint64, seq uint64, payload []byte, state *SIDState) error
	OnAck   func(sid uint64, seq uint64, state *SIDState) error
	OnErr   func(sid uint64, seq uint64, payload []byte, state *SIDState) error
	OnPing  func(sid uint64, seq uint64, state *SIDState) error
	OnFinal func(sid uint64, state *SIDState) error

	// Error handling
	OnSeqGap       func(sid uint64, expected, got uint64) error // Called on sequence gap
	OnBaseMismatch func(sid uint64, frame *Frame) error         // Called on base digest mismatch
}

// NewFrameHandler creates a handler with default cursor.
func NewFrameHandler() *FrameHandler {
	return &FrameHandler{
		Cursor: NewStreamCursor(),
	}
}

// Handle processes a frame and calls the appropriate callback.
func (h *FrameHandler) Handle(frame *Frame) error {
	state := h.Cursor.Get(frame.SID)

	if frame.Seq != 0 && state.LastSeq > 0 {
		if frame.Seq <= state.LastSeq {
			// Duplicate or out of order - skip
			return nil
		}
		if frame.Seq != state.LastSeq+1 && h.OnSeqGap != nil {
			if err := h.OnSeqGap(frame.SID, state.LastSeq+1, frame.Seq); err != nil {
				return err
			}
		}
	}

	if frame.Kind == KindSave && frame.Base != nil && state.HasState {
		if !VerifyBase(state.StateHash, *frame.Base) {
			if h.OnBaseMismatch != nil {
				return h.OnBaseMismatch(frame.SID, frame)
			}
			return &BaseMismatchError{Expected: *frame.Base, Got: state.StateHash}
		}
	}

	state.LastSeq = frame.Seq

	var err error
	switch frame.Kind {
	case KindDoc:
		if h.OnDoc != nil {
			err = h.OnDoc(frame.SID, frame.Seq, frame.Payload, state)
		}
	case KindSave:
		if h.OnSave != nil {
			err = h.OnSave(frame.SID, frame.Seq, frame.Payload, state)
		}
	case KindFetch:
		if h.OnFetch != nil {
			err = h.OnFetch(frame.SID, frame.Seq, state)
		}
	case KindState:
		if h.OnState != nil {
			err = h.OnState(frame.SID, frame.Seq, frame.Payload, state)
		}
	case KindAck:
		if h.OnAck != nil {
			err = h.OnAck(frame.SID, frame.Seq, state)
		}
	case KindErr:
		if h.OnErr != nil {
			err = h.OnErr(frame.SID, frame.Seq, frame.Payload, state)
		}
	case KindPing:
		if h.OnPing != nil {
			err = h.OnPing(frame.SID, frame.Seq, state)
		}
	}
	if err != nil {
		return err
	}

	if frame.IsFinal() {
		state.Final = true
		if h.OnFinal != nil {
			return h.OnFinal(frame.SID, state)
		}
	}
	return nil
}
