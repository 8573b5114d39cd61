// Package h2util collects the small byte-level helpers shared by the frame
// codec and HPACK layers: big-endian fixed-width integer conversions, the
// RFC 7540 padding layout, and zero-copy byte/string casts.
package h2util

import (
	"crypto/rand"
	"fmt"
	"unsafe"

	"github.com/valyala/fastrand"
)

func Uint24ToBytes(b []byte, n uint32) {
	_ = b[2]
	b[0] = byte(n >> 16)
	b[1] = byte(n >> 8)
	b[2] = byte(n)
}

func BytesToUint24(b []byte) uint32 {
	_ = b[2]
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func AppendUint32Bytes(dst []byte, n uint32) []byte {
	return append(dst, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
}

func Uint32ToBytes(b []byte, n uint32) {
	_ = b[3]
	b[0] = byte(n >> 24)
	b[1] = byte(n >> 16)
	b[2] = byte(n >> 8)
	b[3] = byte(n)
}

func BytesToUint32(b []byte) uint32 {
	_ = b[3]
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func EqualsFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}
	return true
}

func Resize(b []byte, neededLen int) []byte {
	b = b[:cap(b)]
	if n := neededLen - len(b); n > 0 {
		b = append(b, make([]byte, n)...)
	}
	return b[:neededLen]
}

// ErrPaddingOverflow is returned by CutPadding when the declared pad length
// does not fit inside the frame payload.
var ErrPaddingOverflow = fmt.Errorf("padding length exceeds frame payload")

// CutPadding strips the one-byte pad-length prefix and trailing padding from
// payload, per RFC 7540 §6.1/§6.2's PADDED flag layout. length is the total
// declared frame payload length (before any of it was otherwise consumed).
func CutPadding(payload []byte, length int) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrPaddingOverflow
	}

	pad := int(payload[0])
	if pad >= length {
		return nil, ErrPaddingOverflow
	}

	return payload[1 : length-pad], nil
}

// AddPadding prefixes b with a random pad length and appends that many
// random bytes, mirroring CutPadding's layout.
func AddPadding(b []byte) []byte {
	n := int(fastrand.Uint32n(256-9)) + 9
	nn := len(b)

	b = Resize(b, nn+n+1)
	copy(b[1:], b[:nn])
	b[0] = uint8(n)
	rand.Read(b[nn+1 : nn+n+1])

	return b
}

// FastBytesToString casts b to a string without copying. The caller must not
// mutate b afterwards.
func FastBytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// FastStringToBytes casts s to a byte slice without copying. The caller must
// not mutate the result.
func FastStringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
