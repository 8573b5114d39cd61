package h2conn

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFrameTo(t *testing.T, bw *bufio.Writer, streamID uint32, body Frame) {
	t.Helper()

	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)
	frh.SetStream(streamID)
	frh.SetBody(body)

	_, err := frh.WriteTo(bw)
	require.NoError(t, err)
	require.NoError(t, bw.Flush())
}

func readFrameFrom(t *testing.T, br *bufio.Reader) *FrameHeader {
	t.Helper()

	frh, err := ReadFrameFrom(br)
	require.NoError(t, err)
	return frh
}

// dialConnection wires a Connection to one end of a net.Pipe and returns the
// peer's buffered reader/writer, having already sent the client preface.
func dialConnection(t *testing.T, cfg *ServerConfig, handler Handler) (*bufio.Reader, *bufio.Writer) {
	t.Helper()

	srv, client := net.Pipe()
	deadline := time.Now().Add(5 * time.Second)
	require.NoError(t, client.SetDeadline(deadline))
	t.Cleanup(func() { client.Close() })

	conn := NewConnection(srv, handler, cfg)
	go conn.Serve(context.Background())

	bw := bufio.NewWriter(client)
	br := bufio.NewReader(client)

	require.NoError(t, WritePreface(bw))
	require.NoError(t, bw.Flush())

	return br, bw
}

// handshake drives the client side of the SETTINGS exchange, leaving br
// positioned right after the server's SETTINGS ack.
func handshake(t *testing.T, br *bufio.Reader, bw *bufio.Writer) {
	t.Helper()

	serverSettings := readFrameFrom(t, br)
	assert.Equal(t, FrameSettingsType, serverSettings.Type())
	assert.False(t, serverSettings.Body().(*Settings).Ack())
	ReleaseFrameHeader(serverSettings)

	writeFrameTo(t, bw, 0, AcquireFrame(FrameSettingsType).(*Settings))

	ack := readFrameFrom(t, br)
	assert.Equal(t, FrameSettingsType, ack.Type())
	assert.True(t, ack.Body().(*Settings).Ack())
	ReleaseFrameHeader(ack)
}

func TestConnectionSettingsHandshake(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error { return nil })
	br, bw := dialConnection(t, nil, handler)
	handshake(t, br, bw)
}

func TestConnectionPingPong(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error { return nil })
	br, bw := dialConnection(t, nil, handler)
	handshake(t, br, bw)

	ping := AcquireFrame(FramePingType).(*Ping)
	ping.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	writeFrameTo(t, bw, 0, ping)

	reply := readFrameFrom(t, br)
	defer ReleaseFrameHeader(reply)

	assert.Equal(t, FramePingType, reply.Type())
	gotPing := reply.Body().(*Ping)
	assert.True(t, gotPing.Ack())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, gotPing.Data())
}

func encodeRequestHeaders(t *testing.T) []byte {
	t.Helper()

	enc := NewHPACK()
	var block []byte
	for _, kv := range [][2]string{
		{":method", "GET"},
		{":scheme", "https"},
		{":path", "/"},
		{":authority", "example.com"},
	} {
		f := AcquireHeaderField()
		f.Set(kv[0], kv[1])
		var err error
		block, err = enc.AppendHeaderField(block, f)
		require.NoError(t, err)
		ReleaseHeaderField(f)
	}
	return block
}

func TestConnectionHeadersDispatchesHandlerAndResponds(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error {
		status := AcquireHeaderField()
		status.Set(":status", "200")
		if err := rs.SendHeaders(ctx, []*HeaderField{status}, false); err != nil {
			return err
		}
		return rs.SendData(ctx, []byte("hello"), true)
	})

	br, bw := dialConnection(t, nil, handler)
	handshake(t, br, bw)

	h := AcquireFrame(FrameHeadersType).(*Headers)
	h.SetHeaderBlock(encodeRequestHeaders(t))
	h.SetEndHeaders(true)
	h.SetEndStream(true)
	writeFrameTo(t, bw, 1, h)

	respHeaders := readFrameFrom(t, br)
	assert.Equal(t, FrameHeadersType, respHeaders.Type())
	assert.Equal(t, uint32(1), respHeaders.Stream())
	ReleaseFrameHeader(respHeaders)

	respData := readFrameFrom(t, br)
	defer ReleaseFrameHeader(respData)

	assert.Equal(t, FrameDataType, respData.Type())
	gotData := respData.Body().(*Data)
	assert.Equal(t, "hello", string(gotData.Data()))
	assert.True(t, gotData.EndStream())
}

// A stream opened over MAX_CONCURRENT_STREAMS must be refused with its own
// RST_STREAM(REFUSED_STREAM), leaving the connection - and every other
// in-flight stream - alive, since REFUSED_STREAM promises the request is
// safe to retry elsewhere.
func TestConnectionRefusesStreamOverMaxConcurrentWithoutGoAway(t *testing.T) {
	block := make(chan struct{})
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error {
		<-block
		return nil
	})

	cfg := &ServerConfig{MaxConcurrentStreams: 1}
	br, bw := dialConnection(t, cfg, handler)
	handshake(t, br, bw)

	h1 := AcquireFrame(FrameHeadersType).(*Headers)
	h1.SetHeaderBlock(encodeRequestHeaders(t))
	h1.SetEndHeaders(true)
	h1.SetEndStream(false)
	writeFrameTo(t, bw, 1, h1)

	h2 := AcquireFrame(FrameHeadersType).(*Headers)
	h2.SetHeaderBlock(encodeRequestHeaders(t))
	h2.SetEndHeaders(true)
	h2.SetEndStream(false)
	writeFrameTo(t, bw, 3, h2)

	rst := readFrameFrom(t, br)
	defer ReleaseFrameHeader(rst)
	assert.Equal(t, FrameResetStreamType, rst.Type())
	assert.Equal(t, uint32(3), rst.Stream())
	assert.Equal(t, RefusedStreamError, rst.Body().(*RstStream).Code())

	// The connection must still be alive: a PING is still answered.
	ping := AcquireFrame(FramePingType).(*Ping)
	ping.SetData([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	writeFrameTo(t, bw, 0, ping)

	pong := readFrameFrom(t, br)
	defer ReleaseFrameHeader(pong)
	assert.Equal(t, FramePingType, pong.Type())
	assert.True(t, pong.Body().(*Ping).Ack())

	close(block)
}

// When a single DATA frame overruns both the connection-level and the
// stream-level receive window at once, the connection-level violation is
// checked first and wins: the whole connection goes down with GOAWAY, since
// the two windows start at the same size and the connection's is a sum
// across every stream.
func TestConnectionDataOverrunsBothWindowsIsGoAway(t *testing.T) {
	cfg := &ServerConfig{InitialWindowSize: 10}
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error { return nil })

	br, bw := dialConnection(t, cfg, handler)
	handshake(t, br, bw)

	h := AcquireFrame(FrameHeadersType).(*Headers)
	h.SetHeaderBlock(encodeRequestHeaders(t))
	h.SetEndHeaders(true)
	h.SetEndStream(false)
	writeFrameTo(t, bw, 1, h)

	data := AcquireFrame(FrameDataType).(*Data)
	data.SetData(make([]byte, 20))
	writeFrameTo(t, bw, 1, data)

	ga := readFrameFrom(t, br)
	defer ReleaseFrameHeader(ga)

	assert.Equal(t, FrameGoAwayType, ga.Type())
	assert.Equal(t, FlowControlError, ga.Body().(*GoAway).Code())
}

// A stream-scoped send-window overflow - driven entirely by WINDOW_UPDATE
// and a subsequent SETTINGS_INITIAL_WINDOW_SIZE change, with no connection-
// level counterpart - must answer with RST_STREAM on that stream alone, not
// tear the whole connection down with GOAWAY.
func TestConnectionStreamSendWindowOverflowResetsStreamOnly(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error { return nil })

	br, bw := dialConnection(t, nil, handler)
	handshake(t, br, bw)

	h := AcquireFrame(FrameHeadersType).(*Headers)
	h.SetHeaderBlock(encodeRequestHeaders(t))
	h.SetEndHeaders(true)
	h.SetEndStream(false)
	writeFrameTo(t, bw, 1, h)

	// Push stream 1's send window to one short of the 2^31-1 maximum.
	wu := AcquireWindowUpdate()
	wu.SetIncrement(MaxWindowSize - DefaultInitialWindowSize - 1)
	writeFrameTo(t, bw, 1, wu)

	// A SETTINGS_INITIAL_WINDOW_SIZE increase of 2 now overflows it.
	st := AcquireFrame(FrameSettingsType).(*Settings)
	st.SetInitialWindowSize(DefaultInitialWindowSize + 2)
	writeFrameTo(t, bw, 0, st)

	rst := readFrameFrom(t, br)
	defer ReleaseFrameHeader(rst)

	assert.Equal(t, FrameResetStreamType, rst.Type())
	assert.Equal(t, uint32(1), rst.Stream())
	assert.Equal(t, FlowControlError, rst.Body().(*RstStream).Code())
}

func TestConnectionWindowUpdateZeroIncrementOnConnectionIsGoAway(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, rs *RequestStream) error { return nil })
	br, bw := dialConnection(t, nil, handler)
	handshake(t, br, bw)

	wu := AcquireWindowUpdate()
	wu.SetIncrement(0)
	writeFrameTo(t, bw, 0, wu)

	ga := readFrameFrom(t, br)
	defer ReleaseFrameHeader(ga)

	assert.Equal(t, FrameGoAwayType, ga.Type())
	assert.Equal(t, ProtocolError, ga.Body().(*GoAway).Code())
}
