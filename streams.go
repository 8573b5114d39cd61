package h2conn

// StreamRegistry tracks every Stream the Connection currently knows about,
// keyed by stream id. Like the rest of the connection-scoped state, it is
// only ever touched by the owning Connection's task.
type StreamRegistry struct {
	byID map[uint32]*Stream
	last uint32 // highest stream id ever inserted, for GOAWAY/cutoff
}

func NewStreamRegistry() *StreamRegistry {
	return &StreamRegistry{byID: make(map[uint32]*Stream)}
}

// InsertOrGet returns the existing Stream for id if present, otherwise
// creates, stores and returns a new one via newFn.
func (r *StreamRegistry) InsertOrGet(id uint32, newFn func() *Stream) *Stream {
	if s, ok := r.byID[id]; ok {
		return s
	}

	s := newFn()
	r.byID[id] = s
	if id > r.last {
		r.last = id
	}

	return s
}

// Get returns the Stream for id, or nil.
func (r *StreamRegistry) Get(id uint32) *Stream {
	return r.byID[id]
}

// Delete removes the stream, typically once it has fully closed and been
// drained, and returns it (or nil if it wasn't present).
func (r *StreamRegistry) Delete(id uint32) *Stream {
	s := r.byID[id]
	delete(r.byID, id)
	return s
}

// ActiveCount returns the number of streams not yet in StreamClosed, the
// figure checked against SETTINGS_MAX_CONCURRENT_STREAMS.
func (r *StreamRegistry) ActiveCount() int {
	n := 0
	for _, s := range r.byID {
		if s.State() != StreamClosed {
			n++
		}
	}
	return n
}

// LastStreamID returns the highest stream id ever registered, the value to
// place in a GOAWAY's last_stream_id field.
func (r *StreamRegistry) LastStreamID() uint32 {
	return r.last
}

// ApplyInitialWindowDelta shifts every open stream's send window by delta,
// per RFC 7540 §6.9.2's handling of a changed SETTINGS_INITIAL_WINDOW_SIZE.
func (r *StreamRegistry) ApplyInitialWindowDelta(delta int64) error {
	for _, s := range r.byID {
		if s.State() == StreamClosed {
			continue
		}
		if err := s.sendWindow.ApplyInitialWindowDelta(delta); err != nil {
			if herr, ok := err.(*Error); ok {
				return NewStreamError(s.id, herr.Code, herr.Error())
			}
			return err
		}
	}
	return nil
}

// Cutoff calls fn for every stream with id > lastStreamID, in ascending id
// order, then removes them from the registry. Used when sending GOAWAY to
// identify which in-flight streams are being refused.
func (r *StreamRegistry) Cutoff(lastStreamID uint32, fn func(*Stream)) {
	var ids []uint32
	for id := range r.byID {
		if id > lastStreamID {
			ids = append(ids, id)
		}
	}

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			if ids[j] < ids[i] {
				ids[i], ids[j] = ids[j], ids[i]
			}
		}
	}

	for _, id := range ids {
		fn(r.byID[id])
		delete(r.byID, id)
	}
}
