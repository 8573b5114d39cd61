package h2conn

import (
	"bufio"
	"io"
	"sync"

	"github.com/h2lab/h2conn/h2util"
)

const (
	// FrameHeaderLen is the fixed size of a frame header.
	// https://tools.ietf.org/html/rfc7540#section-4.1
	FrameHeaderLen = 9

	FlagAck        FrameFlags = 0x1
	FlagEndStream  FrameFlags = 0x1
	FlagEndHeaders FrameFlags = 0x4
	FlagPadded     FrameFlags = 0x8
	FlagPriority   FrameFlags = 0x20
)

var frameHeaderPool = sync.Pool{
	New: func() interface{} {
		return &FrameHeader{}
	},
}

// FrameHeader is the 9-octet frame header plus its decoded/pending body.
//
// Acquire one with AcquireFrameHeader and return it with ReleaseFrameHeader
// rather than allocating directly. A FrameHeader must not be shared across
// goroutines.
type FrameHeader struct {
	length int
	kind   FrameType
	flags  FrameFlags
	stream uint32

	maxLen uint32

	rawHeader [FrameHeaderLen]byte
	payload   []byte

	fr Frame
}

// AcquireFrameHeader returns a FrameHeader from the pool.
func AcquireFrameHeader() *FrameHeader {
	frh := frameHeaderPool.Get().(*FrameHeader)
	frh.Reset()
	return frh
}

// ReleaseFrameHeader releases frh's body and returns frh to the pool.
func ReleaseFrameHeader(frh *FrameHeader) {
	ReleaseFrame(frh.Body())
	frh.fr = nil
	frameHeaderPool.Put(frh)
}

// Reset clears frh back to its zero wire state.
func (frh *FrameHeader) Reset() {
	frh.kind = 0
	frh.flags = 0
	frh.stream = 0
	frh.length = 0
	frh.maxLen = DefaultMaxFrameSize
	frh.fr = nil
	frh.payload = frh.payload[:0]
}

func (frh *FrameHeader) Type() FrameType {
	return frh.kind
}

func (frh *FrameHeader) Flags() FrameFlags {
	return frh.flags
}

func (frh *FrameHeader) SetFlags(flags FrameFlags) {
	frh.flags = flags
}

func (frh *FrameHeader) Stream() uint32 {
	return frh.stream
}

// SetStream sets the stream id. This does not touch the reserved high bit.
func (frh *FrameHeader) SetStream(stream uint32) {
	frh.stream = stream
}

// Len returns the payload length in bytes.
func (frh *FrameHeader) Len() int {
	return frh.length
}

// MaxLen returns the negotiated maximum payload length for this header; 0
// means unbounded.
func (frh *FrameHeader) MaxLen() uint32 {
	return frh.maxLen
}

// SetMaxLen sets the negotiated maximum payload length checked by
// checkLen, mirroring the local SETTINGS_MAX_FRAME_SIZE value.
func (frh *FrameHeader) SetMaxLen(max uint32) {
	frh.maxLen = max
}

func (frh *FrameHeader) parseValues(header []byte) {
	frh.length = int(h2util.BytesToUint24(header[:3]))
	frh.kind = FrameType(header[3])
	frh.flags = FrameFlags(header[4])
	frh.stream = h2util.BytesToUint32(header[5:]) & (1<<31 - 1)
}

func (frh *FrameHeader) parseHeader(header []byte) {
	h2util.Uint24ToBytes(header[:3], uint32(frh.length))
	header[3] = byte(frh.kind)
	header[4] = byte(frh.flags)
	h2util.Uint32ToBytes(header[5:], frh.stream)
}

// ReadFrameFrom reads and deserializes the next frame off br using the
// default max frame size.
func ReadFrameFrom(br *bufio.Reader) (*FrameHeader, error) {
	return ReadFrameFromWithSize(br, DefaultMaxFrameSize)
}

// ReadFrameFromWithSize reads and deserializes the next frame off br,
// rejecting payloads larger than max with ErrPayloadExceeds.
func ReadFrameFromWithSize(br *bufio.Reader, max uint32) (*FrameHeader, error) {
	frh := AcquireFrameHeader()
	frh.maxLen = max

	_, err := frh.readFrom(br)
	if err != nil {
		ReleaseFrameHeader(frh)
		return nil, err
	}

	return frh, nil
}

func (frh *FrameHeader) readFrom(br *bufio.Reader) (int64, error) {
	header, err := br.Peek(FrameHeaderLen)
	if err != nil {
		return -1, err
	}
	br.Discard(FrameHeaderLen)

	rn := int64(FrameHeaderLen)

	frh.parseValues(header)
	if err := frh.checkLen(); err != nil {
		br.Discard(frh.length)
		return rn, err
	}

	// RFC 7540 §5.5: frame types this implementation doesn't recognize are
	// discarded, not rejected - the payload is dropped and dispatch gets a
	// harmless Unknown body instead of a parse error tearing the connection
	// down over a single unfamiliar frame.
	if frh.kind > FrameContinuationType {
		br.Discard(frh.length)
		frh.fr = acquireUnknown(frh.kind)
		return rn, nil
	}

	frh.fr = AcquireFrame(frh.kind)

	if frh.length > 0 {
		n := frh.length
		frh.payload = h2util.Resize(frh.payload, n)

		n, err = io.ReadFull(br, frh.payload[:n])
		rn += int64(n)
		if err != nil {
			return rn, err
		}
	}

	return rn, frh.fr.Deserialize(frh)
}

// WriteTo serializes frh's body and writes header+payload to w.
func (frh *FrameHeader) WriteTo(w *bufio.Writer) (int64, error) {
	frh.fr.Serialize(frh)

	frh.length = len(frh.payload)
	frh.parseHeader(frh.rawHeader[:])

	var wb int64
	n, err := w.Write(frh.rawHeader[:])
	wb += int64(n)
	if err != nil {
		return wb, err
	}

	n, err = w.Write(frh.payload)
	wb += int64(n)
	return wb, err
}

// Body returns the decoded frame body, or nil if none has been set.
func (frh *FrameHeader) Body() Frame {
	return frh.fr
}

// SetBody attaches fr as frh's body, updating the header's type.
func (frh *FrameHeader) SetBody(fr Frame) {
	if fr == nil {
		panic("h2conn: FrameHeader.SetBody called with nil Frame")
	}
	frh.kind = fr.Type()
	frh.fr = fr
}

func (frh *FrameHeader) setPayload(payload []byte) {
	frh.payload = append(frh.payload[:0], payload...)
}

func (frh *FrameHeader) checkLen() error {
	if frh.maxLen != 0 && frh.length > int(frh.maxLen) {
		return ErrPayloadExceeds
	}
	return nil
}
