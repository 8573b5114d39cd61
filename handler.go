package h2conn

import (
	"context"
	"io"
)

// Handler processes one request stream. A Connection spawns one handler
// task (goroutine) per stream that completes its request headers; Handle
// runs until the response (and any trailers) have been fully queued, or
// until ctx is cancelled because the stream or connection went away.
//
// A Handler must not retain s beyond Handle returning. If Handle returns a
// non-nil error, or panics, the stream is reset with INTERNAL_ERROR and
// the connection continues serving other streams.
type Handler interface {
	Handle(ctx context.Context, s *RequestStream) error
}

// HandlerFunc adapts a function to a Handler.
type HandlerFunc func(ctx context.Context, s *RequestStream) error

func (f HandlerFunc) Handle(ctx context.Context, s *RequestStream) error {
	return f(ctx, s)
}

// RequestStream is the view of a Stream exposed to Handler tasks: a
// blocking, typed-message request/response surface that hides the
// connection's internal frame queues and flow-control bookkeeping.
type RequestStream struct {
	conn *Connection
	strm *Stream

	// Request, populated before Handle is invoked.
	Method    string
	Scheme    string
	Authority string
	Path      string
	Headers   []*HeaderField

	bodyCh chan []byte
	bodyErr chan error
}

// ID returns the HTTP/2 stream id.
func (rs *RequestStream) ID() uint32 {
	return rs.strm.id
}

// ReadBody blocks for the next chunk of request body bytes. It returns
// (nil, io.EOF) once the request's END_STREAM has been observed and all
// body bytes delivered.
func (rs *RequestStream) ReadBody(ctx context.Context) ([]byte, error) {
	select {
	case b, ok := <-rs.bodyCh:
		if !ok {
			select {
			case err := <-rs.bodyErr:
				return nil, err
			default:
				return nil, io.EOF
			}
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SendHeaders queues the response header block. If endStream is true this
// is a trailers-only or headers-only response and no SendData/trailer
// call may follow. SendHeaders blocks until the connection task has
// written and flushed the header block, or the stream or connection
// closes first.
func (rs *RequestStream) SendHeaders(ctx context.Context, headers []*HeaderField, endStream bool) error {
	return rs.send(ctx, &streamWrite{headers: headers, endStream: endStream})
}

// SendData queues a chunk of response body. It blocks until the
// Connection's flow-control window admits the bytes, which may require
// waiting on a WINDOW_UPDATE from the peer.
func (rs *RequestStream) SendData(ctx context.Context, b []byte, endStream bool) error {
	return rs.send(ctx, &streamWrite{data: b, endStream: endStream})
}

// SendTrailers queues a trailing header block and ends the stream.
func (rs *RequestStream) SendTrailers(ctx context.Context, trailers []*HeaderField) error {
	return rs.send(ctx, &streamWrite{headers: trailers, trailer: true, endStream: true})
}

func (rs *RequestStream) send(ctx context.Context, w *streamWrite) error {
	w.streamID = rs.strm.id
	w.done = make(chan error, 1)

	select {
	case rs.conn.writesCh <- w:
	case <-rs.strm.closeCh:
		return ErrStreamClosed
	case <-rs.conn.closeCh:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-w.done:
		return err
	case <-rs.strm.closeCh:
		return ErrStreamClosed
	case <-rs.conn.closeCh:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
