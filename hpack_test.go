package h2conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAll(t *testing.T, hp *HPACK, b []byte) []*HeaderField {
	t.Helper()

	var got []*HeaderField
	err := hp.Next(b, func(hf *HeaderField) {
		got = append(got, hf)
	})
	require.NoError(t, err)
	return got
}

func TestHPACKEncodeDecodeRoundTrip(t *testing.T) {
	enc := NewHPACK()
	dec := NewHPACK()

	want := []*HeaderField{
		hf(":status", "200"),
		hf("content-type", "text/plain"),
		hf("x-custom", "value"),
	}

	var wire []byte
	var err error
	for _, f := range want {
		wire, err = enc.AppendHeaderField(wire, f)
		require.NoError(t, err)
	}

	got := decodeAll(t, dec, wire)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Key(), got[i].Key())
		assert.Equal(t, want[i].Value(), got[i].Value())
		ReleaseHeaderField(got[i])
	}
}

func TestHPACKRoundTripAcrossMultipleCalls(t *testing.T) {
	enc := NewHPACK()
	dec := NewHPACK()

	first, err := enc.AppendHeaderField(nil, hf(":method", "GET"))
	require.NoError(t, err)
	second, err := enc.AppendHeaderField(nil, hf(":path", "/index"))
	require.NoError(t, err)

	gotFirst := decodeAll(t, dec, first)
	require.Len(t, gotFirst, 1)
	assert.Equal(t, "GET", gotFirst[0].Value())
	ReleaseHeaderField(gotFirst[0])

	gotSecond := decodeAll(t, dec, second)
	require.Len(t, gotSecond, 1)
	assert.Equal(t, "/index", gotSecond[0].Value())
	ReleaseHeaderField(gotSecond[0])
}

func TestHPACKDecodeInvalidReturnsCompressionError(t *testing.T) {
	dec := NewHPACK()
	// 0xff starts a multi-byte integer whose continuation bytes run past
	// the length golang.org/x/net/http2/hpack accepts, which it rejects.
	err := dec.Next([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, func(*HeaderField) {})
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, CompressionError, herr.Code)
}

func TestHPACKDynamicTableSizeNegotiation(t *testing.T) {
	enc := NewHPACK()
	dec := NewHPACK()

	enc.SetMaxEncoderTableSize(128)
	dec.SetMaxDecoderTableSize(128)

	wire, err := enc.AppendHeaderField(nil, hf("x-a", "1"))
	require.NoError(t, err)

	got := decodeAll(t, dec, wire)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].Value())
	ReleaseHeaderField(got[0])
}

func TestHPACKCloseWithoutPendingInputSucceeds(t *testing.T) {
	dec := NewHPACK()
	require.NoError(t, dec.Close())
}
