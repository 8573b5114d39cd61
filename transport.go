package h2conn

import (
	"bufio"
	"bytes"
	"net"
	"time"
)

// ClientPreface is the 24-byte client connection preface (RFC 7540 §3.5)
// every HTTP/2 connection starts with, prior-knowledge or otherwise.
var ClientPreface = []byte("PRI * HTTP/2.0\r\n\r\nSM\r\n\r\n")

// ReadPreface peeks the next len(ClientPreface) bytes off br and discards
// them if they match ClientPreface exactly. It reports whether the preface
// was present.
func ReadPreface(br *bufio.Reader) bool {
	n := len(ClientPreface)
	b, err := br.Peek(n)
	if err != nil || !bytes.Equal(b, ClientPreface) {
		return false
	}
	br.Discard(n)
	return true
}

// WritePreface writes the client connection preface to bw. Servers never
// call this; it exists for symmetry and for tests that drive a Connection
// as a client would.
func WritePreface(bw *bufio.Writer) error {
	_, err := bw.Write(ClientPreface)
	return err
}

// transport owns the net.Conn, the buffered reader/writer wrapping it, and
// the per-read timeout. It starts no goroutines of its own:
// Connection.readLoop calls readFrame, and the connection task calls
// writeFrame and flush directly.
type transport struct {
	nc net.Conn
	br *bufio.Reader
	bw *bufio.Writer

	readTimeout time.Duration
}

func newTransport(nc net.Conn, readTimeout time.Duration) *transport {
	return &transport{
		nc:          nc,
		br:          bufio.NewReaderSize(nc, 1<<16),
		bw:          bufio.NewWriterSize(nc, 1<<16),
		readTimeout: readTimeout,
	}
}

// readFrame reads the next frame off the wire, applying the configured
// read timeout (if any) per call.
func (t *transport) readFrame(maxFrameSize uint32) (*FrameHeader, error) {
	if t.readTimeout > 0 {
		_ = t.nc.SetReadDeadline(time.Now().Add(t.readTimeout))
	}
	return ReadFrameFromWithSize(t.br, maxFrameSize)
}

func (t *transport) writeFrame(frh *FrameHeader) error {
	_, err := frh.WriteTo(t.bw)
	return err
}

func (t *transport) flush() error {
	return t.bw.Flush()
}

func (t *transport) close() error {
	return t.nc.Close()
}
