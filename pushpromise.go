package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

var (
	_ Frame            = &PushPromise{}
	_ FrameWithHeaders = &PushPromise{}
)

// PushPromise is the PUSH_PROMISE frame (RFC 7540 §6.6).
type PushPromise struct {
	hasPadding bool
	endHeaders bool
	promisedID uint32
	rawHeaders []byte
}

func (pp *PushPromise) Type() FrameType {
	return FramePushPromiseType
}

func (pp *PushPromise) Reset() {
	pp.hasPadding = false
	pp.endHeaders = false
	pp.promisedID = 0
	pp.rawHeaders = pp.rawHeaders[:0]
}

func (pp *PushPromise) CopyTo(other *PushPromise) {
	other.hasPadding = pp.hasPadding
	other.endHeaders = pp.endHeaders
	other.promisedID = pp.promisedID
	other.rawHeaders = append(other.rawHeaders[:0], pp.rawHeaders...)
}

func (pp *PushPromise) PromisedStreamID() uint32 {
	return pp.promisedID
}

func (pp *PushPromise) SetPromisedStreamID(id uint32) {
	pp.promisedID = id & (1<<31 - 1)
}

func (pp *PushPromise) EndHeaders() bool {
	return pp.endHeaders
}

func (pp *PushPromise) SetEndHeaders(value bool) {
	pp.endHeaders = value
}

func (pp *PushPromise) Padding() bool {
	return pp.hasPadding
}

func (pp *PushPromise) SetPadding(value bool) {
	pp.hasPadding = value
}

func (pp *PushPromise) HeaderBlock() []byte {
	return pp.rawHeaders
}

func (pp *PushPromise) SetHeaderBlock(b []byte) {
	pp.rawHeaders = append(pp.rawHeaders[:0], b...)
}

func (pp *PushPromise) Deserialize(frh *FrameHeader) error {
	payload := frh.payload

	if frh.Flags().Has(FlagPadded) {
		var err error
		payload, err = h2util.CutPadding(payload, frh.Len())
		if err != nil {
			return err
		}
		pp.hasPadding = true
	}

	if len(payload) < 4 {
		return ErrMissingBytes
	}

	pp.promisedID = h2util.BytesToUint32(payload) & (1<<31 - 1)
	pp.rawHeaders = append(pp.rawHeaders[:0], payload[4:]...)
	pp.endHeaders = frh.Flags().Has(FlagEndHeaders)

	return nil
}

func (pp *PushPromise) Serialize(frh *FrameHeader) {
	if pp.endHeaders {
		frh.SetFlags(frh.Flags().Add(FlagEndHeaders))
	}

	payload := h2util.AppendUint32Bytes(nil, pp.promisedID)
	payload = append(payload, pp.rawHeaders...)

	if pp.hasPadding {
		frh.SetFlags(frh.Flags().Add(FlagPadded))
		payload = h2util.AddPadding(payload)
	}

	frh.setPayload(payload)
}
