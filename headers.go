package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

var (
	_ Frame            = &Headers{}
	_ FrameWithHeaders = &Headers{}
)

// FrameWithHeaders is implemented by frame bodies that carry a header-block
// fragment: HEADERS, PUSH_PROMISE and CONTINUATION.
type FrameWithHeaders interface {
	HeaderBlock() []byte
}

// Headers is the HEADERS frame (RFC 7540 §6.2).
type Headers struct {
	hasPadding bool
	priority   bool
	depStream  uint32
	weight     uint8
	endStream  bool
	endHeaders bool
	rawHeaders []byte
}

func (h *Headers) Type() FrameType {
	return FrameHeadersType
}

func (h *Headers) Reset() {
	h.hasPadding = false
	h.priority = false
	h.depStream = 0
	h.weight = 0
	h.endStream = false
	h.endHeaders = false
	h.rawHeaders = h.rawHeaders[:0]
}

func (h *Headers) CopyTo(other *Headers) {
	other.hasPadding = h.hasPadding
	other.priority = h.priority
	other.depStream = h.depStream
	other.weight = h.weight
	other.endStream = h.endStream
	other.endHeaders = h.endHeaders
	other.rawHeaders = append(other.rawHeaders[:0], h.rawHeaders...)
}

// HeaderBlock returns the (possibly partial, if !EndHeaders) compressed
// header block fragment.
func (h *Headers) HeaderBlock() []byte {
	return h.rawHeaders
}

func (h *Headers) SetHeaderBlock(b []byte) {
	h.rawHeaders = append(h.rawHeaders[:0], b...)
}

func (h *Headers) AppendHeaderBlock(b []byte) {
	h.rawHeaders = append(h.rawHeaders, b...)
}

func (h *Headers) EndStream() bool {
	return h.endStream
}

func (h *Headers) SetEndStream(value bool) {
	h.endStream = value
}

func (h *Headers) EndHeaders() bool {
	return h.endHeaders
}

func (h *Headers) SetEndHeaders(value bool) {
	h.endHeaders = value
}

// StreamDep returns the dependent stream id, when Priority() is set.
func (h *Headers) StreamDep() uint32 {
	return h.depStream
}

func (h *Headers) SetStreamDep(stream uint32) {
	h.depStream = stream
}

func (h *Headers) Weight() byte {
	return h.weight
}

func (h *Headers) SetWeight(w byte) {
	h.weight = w
}

func (h *Headers) Priority() bool {
	return h.priority
}

func (h *Headers) SetPriority(value bool) {
	h.priority = value
}

func (h *Headers) Padding() bool {
	return h.hasPadding
}

func (h *Headers) SetPadding(value bool) {
	h.hasPadding = value
}

func (h *Headers) Deserialize(frh *FrameHeader) error {
	flags := frh.Flags()
	payload := frh.payload

	if flags.Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload, frh.Len())
		if err != nil {
			return err
		}
		h.hasPadding = true
	}

	if flags.Has(FlagPriority) {
		if len(payload) < 5 {
			return ErrMissingBytes
		}
		h.priority = true
		h.depStream = h2util.BytesToUint32(payload) & (1<<31 - 1)
		h.weight = payload[4]
		payload = payload[5:]
	}

	h.endStream = flags.Has(FlagEndStream)
	h.endHeaders = flags.Has(FlagEndHeaders)
	h.rawHeaders = append(h.rawHeaders[:0], payload...)

	return nil
}

func (h *Headers) Serialize(frh *FrameHeader) {
	if h.endStream {
		frh.SetFlags(frh.Flags().Add(FlagEndStream))
	}
	if h.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}

	payload := h.rawHeaders

	if h.priority {
		frh.SetFlags(frh.Flags().Add(FlagPriority))
		prefix := make([]byte, 5)
		h2util.Uint32ToBytes(prefix[:4], h.depStream)
		prefix[4] = h.weight
		payload = append(prefix, payload...)
	}

	if h.hasPadding {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = h2util.AddPadding(payload)
	}

	frh.setPayload(payload)
}
