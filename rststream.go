package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

var _ Frame = &RstStream{}

// RstStream is the RST_STREAM frame (RFC 7540 §6.4).
type RstStream struct {
	code ErrorCode
}

func (rst *RstStream) Type() FrameType {
	return FrameResetStreamType
}

func (rst *RstStream) Code() ErrorCode {
	return rst.code
}

func (rst *RstStream) SetCode(code ErrorCode) {
	rst.code = code
}

func (rst *RstStream) Reset() {
	rst.code = 0
}

func (rst *RstStream) CopyTo(other *RstStream) {
	other.code = rst.code
}

func (rst *RstStream) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 4 {
		return ErrMissingBytes
	}
	rst.code = ErrorCode(h2util.BytesToUint32(frh.payload))
	return nil
}

func (rst *RstStream) Serialize(frh *FrameHeader) {
	frh.setPayload(h2util.AppendUint32Bytes(nil, uint32(rst.code)))
}
