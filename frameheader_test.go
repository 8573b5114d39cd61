package h2conn

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBody = "make fasthttp great again"

func TestFrameHeaderWriteRead(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	data := AcquireFrame(FrameDataType).(*Data)
	data.SetData([]byte(testBody))
	data.SetEndStream(true)
	frh.SetBody(data)
	frh.SetStream(3)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	got, err := ReadFrameFrom(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(got)

	assert.Equal(t, FrameDataType, got.Type())
	assert.Equal(t, uint32(3), got.Stream())
	gotData := got.Body().(*Data)
	assert.Equal(t, testBody, string(gotData.Data()))
	assert.True(t, gotData.EndStream())
}

func TestFrameHeaderRejectsOversizedPayload(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	data := AcquireFrame(FrameDataType).(*Data)
	data.SetData(bytes.Repeat([]byte("a"), 32))
	frh.SetBody(data)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	_, err = ReadFrameFromWithSize(br, 16)
	assert.ErrorIs(t, err, ErrPayloadExceeds)
}

func TestFrameHeaderDiscardsUnknownType(t *testing.T) {
	var raw [9 + 4]byte
	raw[0] = 0x00
	raw[1] = 0x00
	raw[2] = 0x04 // 4-byte payload
	raw[3] = 0x0f // beyond FrameContinuationType
	copy(raw[9:], []byte{1, 2, 3, 4})

	var buf bytes.Buffer
	buf.Write(raw[:])
	buf.WriteString("trailing") // a following frame's bytes must be untouched

	br := bufio.NewReader(&buf)
	got, err := ReadFrameFrom(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(got)

	assert.Equal(t, FrameType(0x0f), got.Type())
	assert.IsType(t, &Unknown{}, got.Body())

	rest, err := io.ReadAll(br)
	require.NoError(t, err)
	assert.Equal(t, "trailing", string(rest))
}

func TestFrameHeaderPingRoundTrip(t *testing.T) {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	ping := AcquireFrame(FramePingType).(*Ping)
	ping.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	frh.SetBody(ping)

	var buf bytes.Buffer
	bw := bufio.NewWriter(&buf)
	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())

	br := bufio.NewReader(&buf)
	got, err := ReadFrameFrom(br)
	require.NoError(t, err)
	defer ReleaseFrameHeader(got)

	gotPing := got.Body().(*Ping)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, gotPing.Data())
	assert.False(t, gotPing.Ack())
}

func TestAcquireReleaseFrameHeaderResets(t *testing.T) {
	frh := AcquireFrameHeader()
	frh.SetStream(7)
	frh.SetFlags(FlagEndStream)
	ReleaseFrameHeader(frh)

	frh2 := AcquireFrameHeader()
	assert.Equal(t, uint32(0), frh2.Stream())
	assert.Equal(t, FrameFlags(0), frh2.Flags())
	ReleaseFrameHeader(frh2)
}
