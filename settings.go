package h2conn

import (
	"github.com/h2lab/h2conn/h2util"
)

const (
	// Default values, RFC 7540 §6.5.2.
	DefaultHeaderTableSize      uint32 = 4096
	DefaultEnablePush                  = true
	DefaultMaxConcurrentStreams uint32 = 100
	DefaultInitialWindowSize    uint32 = 1<<16 - 1
	DefaultMaxFrameSize         uint32 = 1 << 14

	MaxWindowSize uint32 = 1<<31 - 1
	MaxFrameSize  uint32 = 1<<24 - 1

	// Settings parameter identifiers, RFC 7540 §6.5.2.
	SettingHeaderTableSize      uint16 = 0x1
	SettingEnablePush           uint16 = 0x2
	SettingMaxConcurrentStreams uint16 = 0x3
	SettingInitialWindowSize    uint16 = 0x4
	SettingMaxFrameSize         uint16 = 0x5
	SettingMaxHeaderListSize    uint16 = 0x6

	settingParamLen = 6 // 2-byte id + 4-byte value
)

// settingParam is a single (identifier, value) pair as it appears on the
// wire. Settings keeps these in an ordered slice, rather than six named
// fields, so that unknown identifiers survive a decode/re-encode round
// trip instead of being silently dropped.
type settingParam struct {
	id    uint16
	value uint32
}

var _ Frame = &Settings{}

// Settings is the SETTINGS frame (RFC 7540 §6.5): an ordered list of
// (identifier, value) parameters, plus the ACK flag.
type Settings struct {
	ack    bool
	params []settingParam
}

// NewDefaultSettings returns a Settings carrying five RFC 7540 defaults
// explicitly, suitable as the first SETTINGS frame on a new connection.
// SETTINGS_MAX_HEADER_LIST_SIZE is left unset (unlimited).
func NewDefaultSettings() *Settings {
	st := &Settings{}
	st.SetHeaderTableSize(DefaultHeaderTableSize)
	st.SetEnablePush(DefaultEnablePush)
	st.SetMaxConcurrentStreams(DefaultMaxConcurrentStreams)
	st.SetInitialWindowSize(DefaultInitialWindowSize)
	st.SetMaxFrameSize(DefaultMaxFrameSize)
	return st
}

func (st *Settings) Type() FrameType {
	return FrameSettingsType
}

func (st *Settings) Ack() bool {
	return st.ack
}

func (st *Settings) SetAck(value bool) {
	st.ack = value
}

func (st *Settings) Reset() {
	st.ack = false
	st.params = st.params[:0]
}

func (st *Settings) CopyTo(other *Settings) {
	other.ack = st.ack
	other.params = append(other.params[:0], st.params...)
}

func (st *Settings) set(id uint16, value uint32) {
	for i := range st.params {
		if st.params[i].id == id {
			st.params[i].value = value
			return
		}
	}
	st.params = append(st.params, settingParam{id: id, value: value})
}

func (st *Settings) get(id uint16) (uint32, bool) {
	for _, p := range st.params {
		if p.id == id {
			return p.value, true
		}
	}
	return 0, false
}

func (st *Settings) SetHeaderTableSize(v uint32) { st.set(SettingHeaderTableSize, v) }
func (st *Settings) SetMaxConcurrentStreams(v uint32) {
	st.set(SettingMaxConcurrentStreams, v)
}
func (st *Settings) SetInitialWindowSize(v uint32) { st.set(SettingInitialWindowSize, v) }
func (st *Settings) SetMaxFrameSize(v uint32)      { st.set(SettingMaxFrameSize, v) }
func (st *Settings) SetMaxHeaderListSize(v uint32) { st.set(SettingMaxHeaderListSize, v) }

func (st *Settings) SetEnablePush(enabled bool) {
	v := uint32(0)
	if enabled {
		v = 1
	}
	st.set(SettingEnablePush, v)
}

// HeaderTableSize returns the negotiated value, or the RFC default if the
// peer never sent this parameter.
func (st *Settings) HeaderTableSize() uint32 {
	if v, ok := st.get(SettingHeaderTableSize); ok {
		return v
	}
	return DefaultHeaderTableSize
}

func (st *Settings) EnablePush() bool {
	if v, ok := st.get(SettingEnablePush); ok {
		return v == 1
	}
	return DefaultEnablePush
}

func (st *Settings) MaxConcurrentStreams() uint32 {
	if v, ok := st.get(SettingMaxConcurrentStreams); ok {
		return v
	}
	return DefaultMaxConcurrentStreams
}

func (st *Settings) InitialWindowSize() uint32 {
	if v, ok := st.get(SettingInitialWindowSize); ok {
		return v
	}
	return DefaultInitialWindowSize
}

func (st *Settings) MaxFrameSize() uint32 {
	if v, ok := st.get(SettingMaxFrameSize); ok {
		return v
	}
	return DefaultMaxFrameSize
}

// MaxHeaderListSize returns the negotiated value, or 0 (unlimited) if the
// peer never sent this parameter.
func (st *Settings) MaxHeaderListSize() uint32 {
	v, _ := st.get(SettingMaxHeaderListSize)
	return v
}

// Decode parses a SETTINGS payload of 6-byte (id, value) pairs into st, in
// wire order, validating the per-parameter constraints of RFC 7540 §6.5.2.
// It rejects a payload whose length is not a multiple of 6.
func (st *Settings) Decode(d []byte) error {
	if len(d)%settingParamLen != 0 {
		return NewError(FrameSizeError, "SETTINGS payload not a multiple of 6")
	}

	for i := 0; i+settingParamLen <= len(d); i += settingParamLen {
		b := d[i : i+settingParamLen]
		id := uint16(b[0])<<8 | uint16(b[1])
		value := h2util.BytesToUint32(b[2:])

		switch id {
		case SettingEnablePush:
			if value > 1 {
				return NewError(ProtocolError, "invalid SETTINGS_ENABLE_PUSH value")
			}
		case SettingInitialWindowSize:
			if value > MaxWindowSize {
				return NewError(FlowControlError, "SETTINGS_INITIAL_WINDOW_SIZE too large")
			}
		case SettingMaxFrameSize:
			if value < DefaultMaxFrameSize || value > MaxFrameSize {
				return NewError(ProtocolError, "invalid SETTINGS_MAX_FRAME_SIZE value")
			}
		}

		st.set(id, value)
	}

	return nil
}

// Encode appends the wire representation of every parameter in st, in the
// order they were set, to dst.
func (st *Settings) Encode(dst []byte) []byte {
	for _, p := range st.params {
		dst = append(dst, byte(p.id>>8), byte(p.id))
		dst = h2util.AppendUint32Bytes(dst, p.value)
	}
	return dst
}

func (st *Settings) Deserialize(frh *FrameHeader) error {
	if frh.Flags().Has(FlagAck) {
		st.ack = true
		if len(frh.payload) != 0 {
			return NewError(FrameSizeError, "SETTINGS ACK must have an empty payload")
		}
		return nil
	}

	return st.Decode(frh.payload)
}

func (st *Settings) Serialize(frh *FrameHeader) {
	if st.ack {
		frh.SetFlags(frh.Flags().Add(FlagAck))
		frh.setPayload(nil)
		return
	}

	frh.setPayload(st.Encode(nil))
}
