package h2conn

import "fmt"

// StreamState is a stream's position in the RFC 7540 §5.1 state machine.
type StreamState int8

const (
	StreamIdle StreamState = iota
	StreamReservedLocal
	StreamReservedRemote
	StreamOpen
	StreamHalfClosedLocal
	StreamHalfClosedRemote
	StreamClosed
)

func (ss StreamState) String() string {
	switch ss {
	case StreamIdle:
		return "idle"
	case StreamReservedLocal:
		return "reserved(local)"
	case StreamReservedRemote:
		return "reserved(remote)"
	case StreamOpen:
		return "open"
	case StreamHalfClosedLocal:
		return "half-closed(local)"
	case StreamHalfClosedRemote:
		return "half-closed(remote)"
	case StreamClosed:
		return "closed"
	default:
		return fmt.Sprintf("StreamState(%d)", ss)
	}
}

// streamWrite is a unit of outbound work a Handler hands to the owning
// Connection: either a header block (headers non-nil) or a DATA chunk
// (data non-nil), terminated by endStream. The connection task is the
// only goroutine that ever turns this into wire frames; it sends one
// value on done: nil once the bytes have been written, or the error that
// stopped the write.
type streamWrite struct {
	streamID  uint32
	headers   []*HeaderField
	trailer   bool
	data      []byte
	endStream bool
	done      chan error

	offset int // bytes of data already flushed, for a parked partial write

	// reset marks an internal write used by a handler goroutine to ask
	// the connection task to RST_STREAM; resetCode is its error code.
	reset     bool
	resetCode ErrorCode
}

// Stream is the connection task's view of one HTTP/2 stream: its state,
// flow-control windows, accumulated request, and the queue of writes a
// Handler task has asked to be sent. A Stream is only ever touched by its
// owning Connection's task; Handler goroutines interact with it solely
// through the blocking Send* calls defined in handler.go.
type Stream struct {
	id    uint32
	state StreamState

	recvWindow *flowWindow // credit we grant the peer to send us DATA
	sendWindow *flowWindow // credit the peer has granted us to send DATA

	// Header-block assembly. headerBlock accumulates HEADERS +
	// CONTINUATION payloads until EndHeaders; trailer distinguishes a
	// second (trailer) header block from the initial request headers.
	headerBlock []byte
	inHeaders   bool
	trailer     bool

	Method    []byte
	Scheme    []byte
	Authority []byte
	Path      []byte
	Headers   []*HeaderField
	Trailers  []*HeaderField

	sawRegularHeader bool // pseudo-headers must all precede regular ones

	ContentLength int64 // -1 if absent
	recvBodyBytes int64
	EndStreamSeen bool // END_STREAM has been observed on HEADERS or DATA

	// dispatched is set once this stream's handler goroutine has been
	// spawned, so a trailer HEADERS block doesn't spawn it again.
	dispatched bool
	bodyCh     chan []byte
	bodyErrCh  chan error

	// pending holds a write the Connection's write loop has popped off
	// the shared writesCh but could not fully flush because the stream
	// or connection send window ran dry; it is resumed (from
	// pending.offset) the next time a WINDOW_UPDATE admits more bytes.
	pending *streamWrite
	closeCh chan struct{}

	resetCode ErrorCode
	resetByUs bool
}

// NewStream allocates a Stream in the idle state with the given initial
// flow-control windows.
func NewStream(id uint32, initialSendWindow, initialRecvWindow uint32) *Stream {
	return &Stream{
		id:            id,
		state:         StreamIdle,
		recvWindow:    newFlowWindow(initialRecvWindow),
		sendWindow:    newFlowWindow(initialSendWindow),
		ContentLength: -1,
		closeCh:       make(chan struct{}),
	}
}

func (s *Stream) ID() uint32 { return s.id }

func (s *Stream) State() StreamState { return s.state }

func (s *Stream) SetState(state StreamState) { s.state = state }

// IsClosed reports whether the stream can no longer send or receive
// frames of any kind.
func (s *Stream) IsClosed() bool { return s.state == StreamClosed }

// addPseudoHeader assigns a pseudo-header to its dedicated field,
// rejecting duplicates, headers following a regular header, pseudo-headers
// in a trailer block, and unknown pseudo-header names, per RFC 7540
// §8.1.2.1/§8.1.2.3.
func (s *Stream) addPseudoHeader(hf *HeaderField) error {
	if s.trailer {
		return NewStreamError(s.id, ProtocolError, "pseudo-header in trailer")
	}
	if s.sawRegularHeader {
		return NewStreamError(s.id, ProtocolError, "pseudo-header after regular header")
	}

	k := hf.KeyBytes()
	switch {
	case bytesEqual(k, StringMethod):
		if s.Method != nil {
			return NewStreamError(s.id, ProtocolError, "duplicate :method")
		}
		s.Method = append([]byte(nil), hf.ValueBytes()...)
	case bytesEqual(k, StringScheme):
		if s.Scheme != nil {
			return NewStreamError(s.id, ProtocolError, "duplicate :scheme")
		}
		s.Scheme = append([]byte(nil), hf.ValueBytes()...)
	case bytesEqual(k, StringPath):
		if s.Path != nil {
			return NewStreamError(s.id, ProtocolError, "duplicate :path")
		}
		if len(hf.ValueBytes()) == 0 {
			return NewStreamError(s.id, ProtocolError, "empty :path")
		}
		s.Path = append([]byte(nil), hf.ValueBytes()...)
	case bytesEqual(k, StringAuthority):
		if s.Authority != nil {
			return NewStreamError(s.id, ProtocolError, "duplicate :authority")
		}
		s.Authority = append([]byte(nil), hf.ValueBytes()...)
	default:
		return NewStreamError(s.id, ProtocolError, "unknown pseudo-header "+hf.Key())
	}

	return nil
}

// addRegularHeader validates and appends a non-pseudo header field per
// RFC 7540 §8.1.2: lowercase names, no connection-specific headers, and
// tracks content-length for the cross-check against received DATA bytes.
func (s *Stream) addRegularHeader(hf *HeaderField) error {
	s.sawRegularHeader = true

	k := hf.KeyBytes()
	for _, c := range k {
		if c >= 'A' && c <= 'Z' {
			return NewStreamError(s.id, ProtocolError, "uppercase header field name")
		}
	}

	if isConnectionSpecificHeader(k) {
		return NewStreamError(s.id, ProtocolError, "connection-specific header field "+hf.Key())
	}

	if bytesEqual(k, StringTE) && !bytesEqual(hf.ValueBytes(), StringTrailers) {
		return NewStreamError(s.id, ProtocolError, "te header field other than \"trailers\"")
	}

	if bytesEqual(k, StringContentLength) {
		var n int64
		for _, c := range hf.ValueBytes() {
			if c < '0' || c > '9' {
				return NewStreamError(s.id, ProtocolError, "malformed content-length")
			}
			n = n*10 + int64(c-'0')
		}
		s.ContentLength = n
	}

	if s.trailer {
		s.Trailers = append(s.Trailers, hf)
	} else {
		s.Headers = append(s.Headers, hf)
	}

	return nil
}

// checkContentLength validates accumulated DATA body bytes against a
// declared content-length header, once the stream has seen END_STREAM.
func (s *Stream) checkContentLength() error {
	if s.ContentLength >= 0 && s.recvBodyBytes != s.ContentLength {
		return NewStreamError(s.id, ProtocolError, "content-length mismatch")
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
