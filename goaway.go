package h2conn

import (
	"fmt"

	"github.com/h2lab/h2conn/h2util"
)

var _ Frame = &GoAway{}

// GoAway is the GOAWAY frame (RFC 7540 §6.8).
type GoAway struct {
	lastStreamID uint32
	code         ErrorCode
	data         []byte
}

func (ga *GoAway) Error() string {
	return fmt.Sprintf("last_stream_id=%d code=%s data=%q", ga.lastStreamID, ga.code, ga.data)
}

func (ga *GoAway) Type() FrameType {
	return FrameGoAwayType
}

func (ga *GoAway) Reset() {
	ga.lastStreamID = 0
	ga.code = 0
	ga.data = ga.data[:0]
}

func (ga *GoAway) CopyTo(other *GoAway) {
	other.lastStreamID = ga.lastStreamID
	other.code = ga.code
	other.data = append(other.data[:0], ga.data...)
}

func (ga *GoAway) Code() ErrorCode {
	return ga.code
}

func (ga *GoAway) SetCode(code ErrorCode) {
	ga.code = code
}

// LastStreamID returns the highest-numbered stream the sender processed.
func (ga *GoAway) LastStreamID() uint32 {
	return ga.lastStreamID
}

func (ga *GoAway) SetLastStreamID(id uint32) {
	ga.lastStreamID = id & (1<<31 - 1)
}

func (ga *GoAway) Data() []byte {
	return ga.data
}

func (ga *GoAway) SetData(b []byte) {
	ga.data = append(ga.data[:0], b...)
}

func (ga *GoAway) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 8 {
		return ErrMissingBytes
	}

	ga.lastStreamID = h2util.BytesToUint32(frh.payload) & (1<<31 - 1)
	ga.code = ErrorCode(h2util.BytesToUint32(frh.payload[4:]))

	if len(frh.payload) > 8 {
		ga.data = append(ga.data[:0], frh.payload[8:]...)
	}

	return nil
}

func (ga *GoAway) Serialize(frh *FrameHeader) {
	payload := h2util.AppendUint32Bytes(nil, ga.lastStreamID)
	payload = h2util.AppendUint32Bytes(payload, uint32(ga.code))
	payload = append(payload, ga.data...)
	frh.setPayload(payload)
}
