package work

import "errors"

// ErrEmptyWorkList is returned by Swap when the side about to become active
// holds no records. This is an invariant guard: it indicates a sizing or
// setup bug, not a runtime condition callers should recover from.
var ErrEmptyWorkList = errors.New("worklist swap: about-to-become-active list is empty")

// WorkList is a pair of equal-length TraceRecord buffers. Exactly one side is
// active (owned by the tracing workers) and one inactive (owned by the host
// post-processing task) at any time; Swap is the only state transition. The
// caller must ensure no background task still reads the inactive side when
// swapping.
type WorkList struct {
	buffers [2][]TraceRecord
	active  int
}

// NewWorkList allocates both sides with the given record count
func NewWorkList(size int) *WorkList {
	return &WorkList{
		buffers: [2][]TraceRecord{
			make([]TraceRecord, size),
			make([]TraceRecord, size),
		},
	}
}

// Active returns the buffer currently owned by the tracing workers
func (w *WorkList) Active() []TraceRecord {
	return w.buffers[w.active]
}

// Inactive returns the buffer currently owned by host post-processing
func (w *WorkList) Inactive() []TraceRecord {
	return w.buffers[1-w.active]
}

// Swap exchanges the active and inactive roles. It fails if the side about
// to become active is empty.
func (w *WorkList) Swap() error {
	if len(w.Inactive()) == 0 {
		return ErrEmptyWorkList
	}
	w.active = 1 - w.active
	return nil
}
