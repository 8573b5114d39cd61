package h2conn

var _ Frame = &Ping{}

// Ping is the PING frame (RFC 7540 §6.7): 8 opaque octets, echoed back with
// the ACK flag set by the receiver.
type Ping struct {
	ack  bool
	data [8]byte
}

func (ping *Ping) Type() FrameType {
	return FramePingType
}

func (ping *Ping) Reset() {
	ping.ack = false
	ping.data = [8]byte{}
}

func (ping *Ping) CopyTo(other *Ping) {
	other.ack = ping.ack
	other.data = ping.data
}

func (ping *Ping) Ack() bool {
	return ping.ack
}

func (ping *Ping) SetAck(value bool) {
	ping.ack = value
}

func (ping *Ping) Data() []byte {
	return ping.data[:]
}

func (ping *Ping) SetData(b []byte) {
	copy(ping.data[:], b)
}

func (ping *Ping) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 8 {
		return ErrMissingBytes
	}
	ping.ack = frh.Flags().Has(FlagAck)
	ping.SetData(frh.payload)
	return nil
}

func (ping *Ping) Serialize(frh *FrameHeader) {
	if ping.ack {
		frh.SetFlags(frh.Flags().Add(FlagAck))
	}
	frh.setPayload(ping.data[:])
}
