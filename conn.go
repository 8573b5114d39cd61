package h2conn

import (
	"context"
	"net"
	"runtime/debug"
	"sync"
	"time"
)

// ServerConfig carries the tunables a Connection is created with,
// mirroring the teacher's ServerConfig/ConnOpts split but generalized to
// this package's server-only, handler-agnostic core.
type ServerConfig struct {
	// ReadTimeout bounds how long the connection task waits for the next
	// byte off the socket. Zero disables the deadline.
	ReadTimeout time.Duration

	MaxConcurrentStreams uint32
	InitialWindowSize    uint32
	MaxHeaderListSize    uint32

	// PingInterval, if non-zero, makes the connection task send a PING
	// on this cadence to detect a dead peer.
	PingInterval time.Duration

	Logger  Logger
	Metrics *Metrics
	Debug   bool
}

func (cfg *ServerConfig) settings() *Settings {
	st := NewDefaultSettings()
	if cfg.MaxConcurrentStreams != 0 {
		st.SetMaxConcurrentStreams(cfg.MaxConcurrentStreams)
	}
	if cfg.InitialWindowSize != 0 {
		st.SetInitialWindowSize(cfg.InitialWindowSize)
	}
	if cfg.MaxHeaderListSize != 0 {
		st.SetMaxHeaderListSize(cfg.MaxHeaderListSize)
	}
	return st
}

// Connection is the single owner of one HTTP/2 connection's state: both
// HPACK contexts, both flow-control windows, the stream registry, and the
// socket itself. Everything here is touched by exactly one goroutine, the
// one running Serve; Handler tasks reach it only through the blocking
// Send* calls on RequestStream, which enqueue onto writesCh.
type Connection struct {
	tr *transport

	handler Handler
	cfg     *ServerConfig
	logger  Logger
	metrics *Metrics

	enc *HPACK // encodes outbound header blocks
	dec *HPACK // decodes inbound header blocks, shared across all streams

	local  *Settings // our own advertised settings
	remote *Settings // the peer's advertised settings

	// connSendWindow is the window the peer grants us to send DATA on any
	// stream; connRecvWindow is the window we grant the peer to send us
	// DATA. Both are connection-level, RFC 7540 §6.9.1.
	connSendWindow *flowWindow
	connRecvWindow *flowWindow

	streams *StreamRegistry

	// continuationStream is non-zero while a HEADERS/PUSH_PROMISE block
	// without END_HEADERS is awaiting its CONTINUATION frames; any other
	// frame type received in the meantime is a connection error.
	continuationStream uint32

	sawSettings bool

	writesCh chan *streamWrite
	framesCh chan *FrameHeader
	readErrCh chan error

	closeCh   chan struct{}
	closeOnce sync.Once

	goAwaySent bool
}

// NewConnection wraps nc as a server-side HTTP/2 Connection. Call Serve to
// run it; Serve blocks until the connection closes.
func NewConnection(nc net.Conn, handler Handler, cfg *ServerConfig) *Connection {
	if cfg == nil {
		cfg = &ServerConfig{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	local := cfg.settings()

	c := &Connection{
		tr:             newTransport(nc, cfg.ReadTimeout),
		handler:        handler,
		cfg:            cfg,
		logger:         logger,
		metrics:        cfg.Metrics,
		enc:            NewHPACK(),
		dec:            NewHPACK(),
		local:          local,
		remote:         NewDefaultSettings(),
		connSendWindow: newFlowWindow(DefaultInitialWindowSize),
		connRecvWindow: newFlowWindow(local.InitialWindowSize()),
		streams:        NewStreamRegistry(),
		writesCh:       make(chan *streamWrite, 64),
		framesCh:       make(chan *FrameHeader, 16),
		readErrCh:      make(chan error, 1),
		closeCh:        make(chan struct{}),
	}

	return c
}

// Serve reads the client preface (returning ErrBadPreface if it is
// missing), sends the local SETTINGS, and runs the connection task until
// the connection closes. It returns the read error or ctx error that
// ended the loop, or nil when the connection was closed through Close
// (including after a GOAWAY was sent or received).
func (c *Connection) Serve(ctx context.Context) error {
	if !ReadPreface(c.tr.br) {
		return ErrBadPreface
	}

	if err := c.writeFrame(c.local); err != nil {
		return err
	}
	if err := c.tr.flush(); err != nil {
		return err
	}

	go c.readLoop()

	var pingTicker *time.Ticker
	var pingCh <-chan time.Time
	if c.cfg.PingInterval > 0 {
		pingTicker = time.NewTicker(c.cfg.PingInterval)
		pingCh = pingTicker.C
		defer pingTicker.Stop()
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("h2conn: Serve panicked: %v\n%s", r, debug.Stack())
		}
	}()

	var err error

loop:
	for {
		select {
		case frh, ok := <-c.framesCh:
			if !ok {
				break loop
			}
			c.dispatch(frh)
		case rerr := <-c.readErrCh:
			err = rerr
			break loop
		case w := <-c.writesCh:
			c.handleWrite(w)
		case <-pingCh:
			c.sendPing()
		case <-ctx.Done():
			err = ctx.Err()
			break loop
		case <-c.closeCh:
			break loop
		}
	}

	c.shutdown()

	return err
}

func (c *Connection) readLoop() {
	defer close(c.framesCh)

	for {
		frh, err := c.tr.readFrame(c.local.MaxFrameSize())
		if err != nil {
			select {
			case c.readErrCh <- err:
			case <-c.closeCh:
			}
			return
		}

		select {
		case c.framesCh <- frh:
		case <-c.closeCh:
			ReleaseFrameHeader(frh)
			return
		}
	}
}

// Close tears the connection down from outside the connection task (e.g.
// a drain deadline firing in the acceptor).
func (c *Connection) Close() {
	c.closeOnce.Do(func() { close(c.closeCh) })
}

func (c *Connection) shutdown() {
	c.Close()
	_ = c.tr.close()

	c.streams.Cutoff(0, func(s *Stream) {
		c.failPending(s, ErrConnectionClosed)
	})
}

func (c *Connection) writeFrame(body Frame) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetBody(body)
	c.metrics.observeFrame(body.Type())
	return c.tr.writeFrame(frh)
}

func (c *Connection) writeStreamFrame(streamID uint32, body Frame) error {
	frh := AcquireFrameHeader()
	defer ReleaseFrameHeader(frh)

	frh.SetStream(streamID)
	frh.SetBody(body)
	c.metrics.observeFrame(body.Type())
	return c.tr.writeFrame(frh)
}

func (c *Connection) sendPing() {
	ping := AcquireFrame(FramePingType).(*Ping)
	ping.SetData([]byte("h2conn!!"))
	_ = c.writeFrame(ping)
	_ = c.tr.flush()
}

// goAway emits GOAWAY with the highest stream id this connection has
// accepted from the peer and tears every not-yet-processed stream down.
func (c *Connection) goAway(code ErrorCode, reason string) {
	if c.goAwaySent {
		return
	}
	c.goAwaySent = true

	ga := AcquireFrame(FrameGoAwayType).(*GoAway)
	ga.SetLastStreamID(c.streams.LastStreamID())
	ga.SetCode(code)
	ga.SetData([]byte(reason))

	_ = c.writeFrame(ga)
	_ = c.tr.flush()

	c.metrics.observeGoAway(code)
	c.logger.Printf("h2conn: GOAWAY code=%s reason=%s", code, reason)

	c.Close()
}

func (c *Connection) resetStream(strm *Stream, code ErrorCode, byUs bool) {
	if strm.State() == StreamClosed {
		return
	}

	rst := AcquireFrame(FrameResetStreamType).(*RstStream)
	rst.SetCode(code)
	_ = c.writeStreamFrame(strm.id, rst)
	_ = c.tr.flush()

	strm.resetCode = code
	strm.resetByUs = byUs
	strm.SetState(StreamClosed)

	c.metrics.observeRstStream(code)
	c.failPending(strm, NewStreamError(strm.id, code, "stream reset"))
	close(strm.closeCh)
	c.metrics.streamClosed()
	c.streams.Delete(strm.id)
}

// refuseStream answers id directly with RST_STREAM(code) without requiring
// a registered *Stream. allocStream rejects an id over
// MAX_CONCURRENT_STREAMS before ever calling InsertOrGet, so there is no
// *Stream and no handler task to tear down - just the one frame the peer
// needs to know the request was refused, not retried on a dead connection.
func (c *Connection) refuseStream(id uint32, code ErrorCode) {
	rst := AcquireFrame(FrameResetStreamType).(*RstStream)
	rst.SetCode(code)
	_ = c.writeStreamFrame(id, rst)
	_ = c.tr.flush()

	c.metrics.observeRstStream(code)
}

func (c *Connection) failPending(strm *Stream, err error) {
	if strm.pending != nil {
		select {
		case strm.pending.done <- err:
		default:
		}
		strm.pending = nil
	}
}

// dispatch classifies and routes a single inbound frame, converting any
// *Error it surfaces into a GOAWAY or RST_STREAM per RFC 7540 §7.
func (c *Connection) dispatch(frh *FrameHeader) {
	defer ReleaseFrameHeader(frh)

	c.metrics.observeFrame(frh.Type())

	if !c.sawSettings {
		if frh.Type() != FrameSettingsType || frh.Flags().Has(FlagAck) {
			c.goAway(ProtocolError, "first frame must be SETTINGS")
			return
		}
	}

	if c.continuationStream != 0 {
		if frh.Type() != FrameContinuationType || frh.Stream() != c.continuationStream {
			c.goAway(ProtocolError, "expected CONTINUATION")
			return
		}
	}

	var err error

	switch frh.Type() {
	case FrameSettingsType:
		err = c.handleSettings(frh.Body().(*Settings))
	case FramePingType:
		err = c.handlePing(frh.Body().(*Ping))
	case FrameGoAwayType:
		err = c.handleGoAway(frh.Body().(*GoAway))
	case FrameWindowUpdateType:
		err = c.handleWindowUpdate(frh)
	case FrameHeadersType:
		err = c.handleHeaders(frh)
	case FrameContinuationType:
		err = c.handleContinuation(frh)
	case FrameDataType:
		err = c.handleData(frh)
	case FramePriorityType:
		err = c.handlePriority(frh)
	case FrameResetStreamType:
		err = c.handleRstStream(frh)
	case FramePushPromiseType:
		err = NewError(ProtocolError, "client must not send PUSH_PROMISE")
	default:
		// unknown frame types are discarded without error, RFC 7540 §5.5.
	}

	if err == nil {
		return
	}

	herr, ok := err.(*Error)
	if !ok {
		c.goAway(InternalError, err.Error())
		return
	}

	// Call sites scope an error to a stream with NewStreamError when RFC
	// 7540 §5.4.1 permits answering with RST_STREAM instead of tearing
	// the whole connection down; StreamID == 0 means the call site chose
	// (or had no choice but) a connection-level error.
	if herr.StreamID != 0 {
		if strm := c.streams.Get(herr.StreamID); strm != nil {
			c.resetStream(strm, herr.Code, true)
			return
		}
		// allocStream refuses an id over MAX_CONCURRENT_STREAMS before
		// ever registering it, so there's no *Stream to find here - the
		// id itself still gets its own RST_STREAM, safe-retry on a
		// connection that otherwise stays up.
		c.refuseStream(herr.StreamID, herr.Code)
		return
	}

	c.goAway(herr.Code, herr.Error())
}

func (c *Connection) handleSettings(st *Settings) error {
	if st.Ack() {
		c.sawSettings = true
		return nil
	}

	prevInitial := int64(c.remote.InitialWindowSize())
	st.CopyTo(c.remote)
	c.enc.SetMaxEncoderTableSize(c.remote.HeaderTableSize())

	delta := int64(c.remote.InitialWindowSize()) - prevInitial
	if delta != 0 {
		if err := c.streams.ApplyInitialWindowDelta(delta); err != nil {
			return err
		}
	}

	ack := AcquireFrame(FrameSettingsType).(*Settings)
	ack.SetAck(true)
	if err := c.writeFrame(ack); err != nil {
		return NewError(InternalError, err.Error())
	}
	c.sawSettings = true

	return c.tr.flush()
}

func (c *Connection) handlePing(ping *Ping) error {
	if ping.Ack() {
		return nil
	}

	reply := AcquireFrame(FramePingType).(*Ping)
	reply.SetAck(true)
	reply.SetData(ping.Data())
	if err := c.writeFrame(reply); err != nil {
		return NewError(InternalError, err.Error())
	}
	return c.tr.flush()
}

func (c *Connection) handleGoAway(ga *GoAway) error {
	c.logger.Printf("h2conn: received GOAWAY code=%s last_stream_id=%d", ga.Code(), ga.LastStreamID())
	c.Close()
	return nil
}

func (c *Connection) handleWindowUpdate(frh *FrameHeader) error {
	wu := frh.Body().(*WindowUpdate)

	if frh.Stream() == 0 {
		if err := c.connSendWindow.Credit(int32(wu.Increment())); err != nil {
			return err
		}
		c.resumeAllParked()
		return nil
	}

	strm := c.streams.Get(frh.Stream())
	if strm == nil {
		return nil // WINDOW_UPDATE on a closed stream is ignored.
	}
	if strm.State() == StreamIdle {
		return NewError(ProtocolError, "WINDOW_UPDATE on idle stream")
	}

	if err := strm.sendWindow.Credit(int32(wu.Increment())); err != nil {
		return NewStreamError(strm.id, err.(*Error).Code, err.Error())
	}

	c.resumeParked(strm)
	return nil
}

func (c *Connection) handlePriority(frh *FrameHeader) error {
	p := frh.Body().(*Priority)
	if p.StreamDep() == frh.Stream() {
		return NewError(ProtocolError, "stream depends on itself")
	}
	return nil
}

func (c *Connection) handleRstStream(frh *FrameHeader) error {
	strm := c.streams.Get(frh.Stream())
	if strm == nil {
		return nil
	}
	if strm.State() == StreamIdle {
		return NewError(ProtocolError, "RST_STREAM on idle stream")
	}

	strm.resetCode = frh.Body().(*RstStream).Code()
	strm.resetByUs = false
	strm.SetState(StreamClosed)
	c.failPending(strm, ErrStreamClosed)
	close(strm.closeCh)
	c.metrics.streamClosed()
	c.streams.Delete(strm.id)

	return nil
}

// allocStream returns the Stream for a HEADERS frame, creating it if this
// is the first frame seen for the id, enforcing id monotonicity and
// MAX_CONCURRENT_STREAMS.
func (c *Connection) allocStream(id uint32) (*Stream, error) {
	if id&1 == 0 {
		return nil, NewError(ProtocolError, "client used an even stream id")
	}
	if id <= c.streams.LastStreamID() && c.streams.Get(id) == nil {
		return nil, NewError(ProtocolError, "stream id is not monotonically increasing")
	}

	if c.streams.Get(id) == nil {
		if uint32(c.streams.ActiveCount()) >= c.local.MaxConcurrentStreams() {
			return nil, NewStreamError(id, RefusedStreamError, "MAX_CONCURRENT_STREAMS exceeded")
		}
	}

	strm := c.streams.InsertOrGet(id, func() *Stream {
		return NewStream(id, c.remote.InitialWindowSize(), c.local.InitialWindowSize())
	})

	return strm, nil
}

func (c *Connection) handleHeaders(frh *FrameHeader) error {
	strm, err := c.allocStream(frh.Stream())
	if err != nil {
		return err
	}

	if strm.State() != StreamIdle && !strm.trailer {
		if strm.State() == StreamHalfClosedRemote || strm.State() == StreamClosed {
			return NewStreamError(strm.id, StreamClosedError, "HEADERS on a finished stream")
		}
	}

	if strm.State() == StreamIdle {
		strm.SetState(StreamOpen)
	} else {
		// A second HEADERS block on an already-open stream is trailers.
		strm.trailer = true
	}

	hh := frh.Body().(*Headers)
	if hh.Priority() && hh.StreamDep() == strm.id {
		return NewStreamError(strm.id, ProtocolError, "stream depends on itself")
	}

	strm.headerBlock = append(strm.headerBlock[:0], hh.HeaderBlock()...)
	strm.inHeaders = true

	if frh.Flags().Has(FlagEndStream) {
		strm.EndStreamSeen = true
	}

	if frh.Flags().Has(FlagEndHeaders) {
		c.continuationStream = 0
		if err := c.finishHeaderBlock(strm); err != nil {
			return err
		}
	} else {
		c.continuationStream = strm.id
	}

	return c.afterStreamFrame(strm, frh.Flags().Has(FlagEndStream))
}

func (c *Connection) handleContinuation(frh *FrameHeader) error {
	strm := c.streams.Get(frh.Stream())
	if strm == nil || !strm.inHeaders {
		return NewError(ProtocolError, "CONTINUATION without an open header block")
	}

	cont := frh.Body().(*Continuation)
	strm.headerBlock = append(strm.headerBlock, cont.HeaderBlock()...)

	if frh.Flags().Has(FlagEndHeaders) {
		c.continuationStream = 0
		if err := c.finishHeaderBlock(strm); err != nil {
			return err
		}
		return c.afterStreamFrame(strm, strm.EndStreamSeen)
	}

	return nil
}

// finishHeaderBlock decodes the accumulated header block through the
// shared decoder, in wire order, and validates the resulting header list.
func (c *Connection) finishHeaderBlock(strm *Stream) error {
	strm.inHeaders = false
	block := strm.headerBlock

	var decodeErr error
	err := c.dec.Next(block, func(hf *HeaderField) {
		if decodeErr != nil {
			ReleaseHeaderField(hf)
			return
		}

		var verr error
		if hf.IsPseudo() {
			// addPseudoHeader copies out the bytes it needs; the field
			// itself is scratch.
			verr = strm.addPseudoHeader(hf)
			ReleaseHeaderField(hf)
		} else {
			// addRegularHeader retains hf itself in strm.Headers/Trailers
			// on success, so it must not be released there.
			verr = strm.addRegularHeader(hf)
			if verr != nil {
				ReleaseHeaderField(hf)
			}
		}
		if verr != nil {
			decodeErr = verr
		}
	})
	if err != nil {
		return err
	}
	if decodeErr != nil {
		return decodeErr
	}

	if !strm.trailer {
		if strm.Method == nil {
			return NewStreamError(strm.id, ProtocolError, "missing :method")
		}
		if strm.Scheme == nil {
			return NewStreamError(strm.id, ProtocolError, "missing :scheme")
		}
		if strm.Path == nil {
			return NewStreamError(strm.id, ProtocolError, "missing :path")
		}
	}

	return nil
}

// afterStreamFrame applies the END_STREAM transition and, once a request's
// headers (not trailers) are fully assembled, spawns its handler task.
func (c *Connection) afterStreamFrame(strm *Stream, endStream bool) error {
	dispatch := !strm.inHeaders && !strm.dispatched && !strm.trailer && strm.Method != nil

	if endStream {
		strm.EndStreamSeen = true
		if err := strm.checkContentLength(); err != nil {
			return err
		}
		if strm.bodyErrCh != nil {
			close(strm.bodyCh)
		}
		switch strm.State() {
		case StreamOpen:
			strm.SetState(StreamHalfClosedRemote)
		case StreamHalfClosedLocal:
			strm.SetState(StreamClosed)
		}
	}

	if dispatch && !strm.inHeaders {
		c.spawnHandler(strm)
	}

	if strm.State() == StreamClosed {
		close(strm.closeCh)
		c.metrics.streamClosed()
		c.streams.Delete(strm.id)
	}

	return nil
}

func (c *Connection) handleData(frh *FrameHeader) error {
	strm := c.streams.Get(frh.Stream())
	if strm == nil {
		return NewError(StreamClosedError, "DATA on unknown stream")
	}
	if strm.State() == StreamHalfClosedRemote || strm.State() == StreamClosed {
		return NewStreamError(strm.id, StreamClosedError, "DATA on a half-closed(remote)/closed stream")
	}

	data := frh.Body().(*Data)
	n := int64(data.Len())

	c.connRecvWindow.Debit(n)
	if c.connRecvWindow.Size() < 0 {
		return NewError(FlowControlError, "connection receive window exceeded")
	}

	strm.recvWindow.Debit(n)
	if strm.recvWindow.Size() < 0 {
		return NewStreamError(strm.id, FlowControlError, "stream receive window exceeded")
	}

	strm.recvBodyBytes += n

	if strm.bodyCh != nil && n > 0 {
		buf := append([]byte(nil), data.Data()...)
		select {
		case strm.bodyCh <- buf:
		case <-strm.closeCh:
		}
	}

	return c.afterStreamFrame(strm, frh.Flags().Has(FlagEndStream))
}

// spawnHandler assembles a RequestStream from the decoded request headers
// and runs the user Handler in its own goroutine.
func (c *Connection) spawnHandler(strm *Stream) {
	strm.dispatched = true

	strm.bodyCh = make(chan []byte, 4)
	strm.bodyErrCh = make(chan error, 1)

	rs := &RequestStream{
		conn:      c,
		strm:      strm,
		Method:    string(strm.Method),
		Scheme:    string(strm.Scheme),
		Authority: string(strm.Authority),
		Path:      string(strm.Path),
		Headers:   strm.Headers,
		bodyCh:    strm.bodyCh,
		bodyErr:   strm.bodyErrCh,
	}

	if strm.EndStreamSeen {
		close(strm.bodyCh)
	}

	c.metrics.streamOpened()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Printf("h2conn: handler panicked on stream %d: %v\n%s", strm.id, r, debug.Stack())
				c.reset(strm.id, InternalError)
				return
			}
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-strm.closeCh:
			case <-c.closeCh:
			case <-ctx.Done():
			}
			cancel()
		}()

		if err := c.handler.Handle(ctx, rs); err != nil {
			c.logger.Printf("h2conn: handler error on stream %d: %v", strm.id, err)
			c.reset(strm.id, InternalError)
		}
	}()
}

// reset is the thread-safe entrypoint handler goroutines use to ask the
// connection task to RST_STREAM; it hops onto the connection task via
// writesCh so strm is only ever touched there.
func (c *Connection) reset(streamID uint32, code ErrorCode) {
	select {
	case c.writesCh <- &streamWrite{streamID: streamID, resetCode: code, reset: true}:
	case <-c.closeCh:
	}
}

// handleWrite drains one streamWrite enqueued by a Handler task: a header
// block, a DATA chunk, or a request to RST_STREAM.
func (c *Connection) handleWrite(w *streamWrite) {
	strm := c.streams.Get(w.streamID)
	if strm == nil {
		if w.done != nil {
			w.done <- ErrStreamClosed
		}
		return
	}

	if w.reset {
		c.resetStream(strm, w.resetCode, true)
		return
	}

	// END_STREAM has already been sent: no HEADERS or DATA may follow.
	if strm.State() == StreamHalfClosedLocal {
		w.done <- ErrInvalidState
		return
	}

	if w.headers != nil {
		c.writeHeaderBlock(strm, w)
		return
	}

	strm.pending = w
	c.drainData(strm)
}

func (c *Connection) writeHeaderBlock(strm *Stream, w *streamWrite) {
	var block []byte
	var err error

	for _, hf := range w.headers {
		block, err = c.enc.AppendHeaderField(block, hf)
		if err != nil {
			w.done <- err
			return
		}
	}

	maxFrame := int(c.remote.MaxFrameSize())
	h := AcquireFrame(FrameHeadersType).(*Headers)
	h.SetEndStream(w.endStream)

	if len(block) <= maxFrame {
		h.SetEndHeaders(true)
		h.SetHeaderBlock(block)
		err = c.writeStreamFrame(strm.id, h)
	} else {
		h.SetEndHeaders(false)
		h.SetHeaderBlock(block[:maxFrame])
		err = c.writeStreamFrame(strm.id, h)

		for off := maxFrame; off < len(block) && err == nil; off += maxFrame {
			end := off + maxFrame
			last := end >= len(block)
			if last {
				end = len(block)
			}

			cont := AcquireFrame(FrameContinuationType).(*Continuation)
			cont.SetEndHeaders(last)
			cont.SetHeaderBlock(block[off:end])
			err = c.writeStreamFrame(strm.id, cont)
		}
	}

	if err == nil {
		err = c.tr.flush()
	}

	if err != nil {
		w.done <- NewError(InternalError, err.Error())
		return
	}

	if w.endStream {
		c.localEndStream(strm)
	}

	w.done <- nil
}

func (c *Connection) localEndStream(strm *Stream) {
	switch strm.State() {
	case StreamOpen:
		strm.SetState(StreamHalfClosedLocal)
	case StreamHalfClosedRemote:
		strm.SetState(StreamClosed)
	}

	if strm.State() == StreamClosed {
		close(strm.closeCh)
		c.metrics.streamClosed()
		c.streams.Delete(strm.id)
	}
}

// drainData flushes as much of strm.pending's data as the connection and
// stream send windows (and the remote's max frame size) currently allow,
// chunking into DATA frames. If the window runs dry before the payload is
// exhausted, the write stays parked on strm.pending until a WINDOW_UPDATE
// admits more and resumeParked/resumeAllParked call back in.
func (c *Connection) drainData(strm *Stream) {
	w := strm.pending
	if w == nil {
		return
	}

	maxFrame := int(c.remote.MaxFrameSize())

	for w.offset < len(w.data) {
		budget := minInt64(c.connSendWindow.Size(), strm.sendWindow.Size())
		if budget <= 0 {
			c.metrics.observeStall()
			return
		}

		n := len(w.data) - w.offset
		if int64(n) > budget {
			n = int(budget)
		}
		if n > maxFrame {
			n = maxFrame
		}

		chunk := w.data[w.offset : w.offset+n]
		last := w.offset+n == len(w.data)

		d := AcquireFrame(FrameDataType).(*Data)
		d.SetEndStream(w.endStream && last)
		d.SetData(chunk)

		if err := c.writeStreamFrame(strm.id, d); err != nil {
			strm.pending = nil
			w.done <- NewError(InternalError, err.Error())
			return
		}

		c.connSendWindow.Debit(int64(n))
		strm.sendWindow.Debit(int64(n))
		w.offset += n
	}

	_ = c.tr.flush()

	strm.pending = nil
	if w.endStream {
		c.localEndStream(strm)
	}
	w.done <- nil
}

func (c *Connection) resumeParked(strm *Stream) {
	if strm.pending != nil {
		c.drainData(strm)
	}
}

func (c *Connection) resumeAllParked() {
	for _, strm := range c.streamsSnapshot() {
		c.resumeParked(strm)
	}
}

func (c *Connection) streamsSnapshot() []*Stream {
	out := make([]*Stream, 0, len(c.streams.byID))
	for _, s := range c.streams.byID {
		out = append(out, s)
	}
	return out
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
