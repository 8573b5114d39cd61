package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

var _ Frame = &Priority{}

// Priority is the PRIORITY frame (RFC 7540 §6.3).
type Priority struct {
	streamDep uint32
	exclusive bool
	weight    byte
}

func (p *Priority) Type() FrameType {
	return FramePriorityType
}

func (p *Priority) Reset() {
	p.streamDep = 0
	p.exclusive = false
	p.weight = 0
}

func (p *Priority) CopyTo(other *Priority) {
	other.streamDep = p.streamDep
	other.exclusive = p.exclusive
	other.weight = p.weight
}

func (p *Priority) StreamDep() uint32 {
	return p.streamDep
}

func (p *Priority) SetStreamDep(stream uint32) {
	p.streamDep = stream & (1<<31 - 1)
}

func (p *Priority) Exclusive() bool {
	return p.exclusive
}

func (p *Priority) SetExclusive(value bool) {
	p.exclusive = value
}

func (p *Priority) Weight() byte {
	return p.weight
}

func (p *Priority) SetWeight(w byte) {
	p.weight = w
}

func (p *Priority) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 5 {
		return ErrMissingBytes
	}

	raw := h2util.BytesToUint32(frh.payload)
	p.exclusive = raw&(1<<31) != 0
	p.streamDep = raw & (1<<31 - 1)
	p.weight = frh.payload[4]

	return nil
}

func (p *Priority) Serialize(frh *FrameHeader) {
	raw := p.streamDep & (1<<31 - 1)
	if p.exclusive {
		raw |= 1 << 31
	}

	payload := h2util.AppendUint32Bytes(frh.payload[:0], raw)
	payload = append(payload, p.weight)
	frh.setPayload(payload)
}
