package h2conn

import "sync"

var _ Frame = &Unknown{}

var unknownPool = sync.Pool{
	New: func() interface{} { return &Unknown{} },
}

// Unknown is the body of a frame whose type byte matches none of the ten
// types RFC 7540 §6 defines. §5.5 requires these to be discarded without
// error rather than treated as a connection error, so the frame codec
// hands dispatch a harmless, type-preserving body instead of failing to
// parse.
type Unknown struct {
	kind FrameType
}

func acquireUnknown(kind FrameType) *Unknown {
	u := unknownPool.Get().(*Unknown)
	u.kind = kind
	return u
}

func (u *Unknown) Type() FrameType {
	return u.kind
}

func (u *Unknown) Reset() {
	u.kind = 0
}

// Deserialize is a no-op: by the time a body is attached, readFrom has
// already discarded the frame's payload off the wire, and an unrecognized
// type carries no fields this module understands.
func (u *Unknown) Deserialize(frh *FrameHeader) error {
	return nil
}

func (u *Unknown) Serialize(frh *FrameHeader) {}
