package h2conn

import (
	"sync"

	"github.com/h2lab/h2conn/h2util"
)

var _ Frame = &WindowUpdate{}

// WindowUpdate is the WINDOW_UPDATE frame (RFC 7540 §6.9).
type WindowUpdate struct {
	increment uint32
}

var windowUpdatePool = sync.Pool{
	New: func() interface{} {
		return &WindowUpdate{}
	},
}

// AcquireWindowUpdate returns a WindowUpdate from the pool.
func AcquireWindowUpdate() *WindowUpdate {
	wu := windowUpdatePool.Get().(*WindowUpdate)
	wu.Reset()
	return wu
}

// ReleaseWindowUpdate returns wu to the pool.
func ReleaseWindowUpdate(wu *WindowUpdate) {
	windowUpdatePool.Put(wu)
}

func (wu *WindowUpdate) Type() FrameType {
	return FrameWindowUpdateType
}

func (wu *WindowUpdate) Reset() {
	wu.increment = 0
}

func (wu *WindowUpdate) CopyTo(other *WindowUpdate) {
	other.increment = wu.increment
}

func (wu *WindowUpdate) Increment() uint32 {
	return wu.increment
}

func (wu *WindowUpdate) SetIncrement(increment uint32) {
	wu.increment = increment
}

func (wu *WindowUpdate) Deserialize(frh *FrameHeader) error {
	if len(frh.payload) < 4 {
		return ErrMissingBytes
	}
	wu.increment = h2util.BytesToUint32(frh.payload) & (1<<31 - 1)
	return nil
}

func (wu *WindowUpdate) Serialize(frh *FrameHeader) {
	frh.setPayload(h2util.AppendUint32Bytes(nil, wu.increment))
}
