package h2conn

import "sync/atomic"

// flowWindow is a signed 31-bit flow-control window (RFC 7540 §6.9). It is
// stored as an int64 so that overflow can be detected before truncation,
// as required when a WINDOW_UPDATE increment is applied.
type flowWindow struct {
	size int64
}

func newFlowWindow(initial uint32) *flowWindow {
	return &flowWindow{size: int64(initial)}
}

// Size returns the current window size. It can be negative, which happens
// when a SETTINGS_INITIAL_WINDOW_SIZE decrease outruns data already in
// flight (RFC 7540 §6.9.2).
func (w *flowWindow) Size() int64 {
	return atomic.LoadInt64(&w.size)
}

// Debit subtracts n (the size of a DATA frame sent or received) from the
// window. It does not block or clamp, so the window can go negative;
// callers that must reject an overrun check Size() afterwards.
func (w *flowWindow) Debit(n int64) {
	atomic.AddInt64(&w.size, -n)
}

// Credit applies a WINDOW_UPDATE increment. It returns FlowControlError if
// the result would exceed the RFC 7540 §6.9.1 maximum window size of
// 2^31-1.
func (w *flowWindow) Credit(increment int32) error {
	if increment == 0 {
		return NewError(ProtocolError, "zero-length WINDOW_UPDATE increment")
	}

	next := atomic.AddInt64(&w.size, int64(increment))
	if next > int64(MaxWindowSize) {
		return NewError(FlowControlError, "window increment overflows maximum size")
	}

	return nil
}

// ApplyInitialWindowDelta shifts the window by delta, used when a SETTINGS
// frame changes SETTINGS_INITIAL_WINDOW_SIZE for every stream already
// open (RFC 7540 §6.9.2). Unlike Credit it permits the window to end up
// negative, and does not reject decreases.
func (w *flowWindow) ApplyInitialWindowDelta(delta int64) error {
	next := atomic.AddInt64(&w.size, delta)
	if next > int64(MaxWindowSize) {
		return NewError(FlowControlError, "window delta overflows maximum size")
	}
	return nil
}
