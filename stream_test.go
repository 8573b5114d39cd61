package h2conn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hf(k, v string) *HeaderField {
	h := AcquireHeaderField()
	h.Set(k, v)
	return h
}

func TestStreamAddPseudoHeaders(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)

	require.NoError(t, s.addPseudoHeader(hf(":method", "GET")))
	require.NoError(t, s.addPseudoHeader(hf(":scheme", "https")))
	require.NoError(t, s.addPseudoHeader(hf(":path", "/")))
	require.NoError(t, s.addPseudoHeader(hf(":authority", "example.com")))

	assert.Equal(t, "GET", string(s.Method))
	assert.Equal(t, "https", string(s.Scheme))
	assert.Equal(t, "/", string(s.Path))
	assert.Equal(t, "example.com", string(s.Authority))
}

func TestStreamAddPseudoHeaderInTrailerRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	s.trailer = true

	err := s.addPseudoHeader(hf(":authority", "example.com"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
	assert.Nil(t, s.Authority)
}

func TestStreamAddPseudoHeaderDuplicateAuthorityRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addPseudoHeader(hf(":authority", "example.com")))

	err := s.addPseudoHeader(hf(":authority", "evil.example"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
	assert.Equal(t, "example.com", string(s.Authority))
}

func TestStreamAddPseudoHeaderDuplicateRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addPseudoHeader(hf(":method", "GET")))

	err := s.addPseudoHeader(hf(":method", "POST"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
	assert.Equal(t, uint32(1), herr.StreamID)
}

func TestStreamAddPseudoHeaderEmptyPathRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addPseudoHeader(hf(":path", ""))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddPseudoHeaderUnknownRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addPseudoHeader(hf(":bogus", "x"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddPseudoHeaderAfterRegularRejected(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addRegularHeader(hf("x-foo", "bar")))

	err := s.addPseudoHeader(hf(":method", "GET"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddRegularHeaderRejectsUppercase(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addRegularHeader(hf("X-Foo", "bar"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddRegularHeaderRejectsConnectionSpecific(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addRegularHeader(hf("connection", "keep-alive"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddRegularHeaderRejectsBadTE(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addRegularHeader(hf("te", "gzip"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddRegularHeaderAllowsTETrailers(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addRegularHeader(hf("te", "trailers")))
}

func TestStreamAddRegularHeaderTracksContentLength(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addRegularHeader(hf("content-length", "42")))
	assert.Equal(t, int64(42), s.ContentLength)
}

func TestStreamAddRegularHeaderRejectsMalformedContentLength(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	err := s.addRegularHeader(hf("content-length", "4x2"))
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamAddRegularHeaderGoesToTrailersAfterFlagSet(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	require.NoError(t, s.addRegularHeader(hf("x-a", "1")))
	s.trailer = true
	require.NoError(t, s.addRegularHeader(hf("x-b", "2")))

	require.Len(t, s.Headers, 1)
	require.Len(t, s.Trailers, 1)
	assert.Equal(t, "x-a", s.Headers[0].Key())
	assert.Equal(t, "x-b", s.Trailers[0].Key())
}

func TestStreamCheckContentLengthMismatch(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	s.ContentLength = 10
	s.recvBodyBytes = 5

	err := s.checkContentLength()
	herr, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, ProtocolError, herr.Code)
}

func TestStreamCheckContentLengthOKWhenAbsent(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	assert.Equal(t, int64(-1), s.ContentLength)
	require.NoError(t, s.checkContentLength())
}

func TestStreamStateTransitions(t *testing.T) {
	s := NewStream(1, DefaultInitialWindowSize, DefaultInitialWindowSize)
	assert.Equal(t, StreamIdle, s.State())
	assert.False(t, s.IsClosed())

	s.SetState(StreamOpen)
	assert.Equal(t, StreamOpen, s.State())

	s.SetState(StreamClosed)
	assert.True(t, s.IsClosed())
}
