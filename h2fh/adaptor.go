// Package h2fh bridges h2conn's streaming Handler interface to
// fasthttp's buffered request/response model, so a fasthttp.RequestHandler
// written for HTTP/1.1 can be served over HTTP/2 unchanged.
package h2fh

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/h2lab/h2conn"
	"github.com/valyala/fasthttp"
)

// Handler adapts a fasthttp.RequestHandler into an h2conn.Handler: it
// buffers the whole request (headers + body), runs h on a synthetic
// fasthttp.RequestCtx, and streams the resulting response back out.
type Handler struct {
	H fasthttp.RequestHandler
}

var _ h2conn.Handler = (*Handler)(nil)

func (a *Handler) Handle(ctx context.Context, s *h2conn.RequestStream) error {
	rctx := &fasthttp.RequestCtx{}
	applyRequestHeaders(s, rctx)

	if err := readBody(ctx, s, &rctx.Request); err != nil {
		return err
	}

	a.H(rctx)

	return writeResponse(ctx, s, &rctx.Response)
}

// applyRequestHeaders translates the HeaderFields h2conn already split
// into pseudo-header fields plus s.Headers into a fasthttp.Request.
func applyRequestHeaders(s *h2conn.RequestStream, rctx *fasthttp.RequestCtx) {
	req := &rctx.Request
	req.Header.SetMethod(s.Method)
	req.URI().SetScheme(s.Scheme)
	if s.Authority != "" {
		req.URI().SetHost(s.Authority)
		req.Header.SetHost(s.Authority)
	}
	req.SetRequestURI(s.Path)

	for _, hf := range s.Headers {
		k, v := hf.KeyBytes(), hf.ValueBytes()
		if hf.IsPseudo() {
			continue
		}
		if bytes.Equal(k, h2conn.StringUserAgent) {
			req.Header.SetUserAgentBytes(v)
			continue
		}
		if bytes.Equal(k, h2conn.StringContentType) {
			req.Header.SetContentTypeBytes(v)
			continue
		}
		req.Header.AddBytesKV(k, v)
	}
}

func readBody(ctx context.Context, s *h2conn.RequestStream, req *fasthttp.Request) error {
	for {
		b, err := s.ReadBody(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		req.AppendBody(b)
	}
}

// writeResponse streams a fully-populated fasthttp.Response out as a
// HEADERS frame (status + content-length + lower-cased header fields)
// followed by the body as one or more DATA frames.
func writeResponse(ctx context.Context, s *h2conn.RequestStream, res *fasthttp.Response) error {
	headers := buildResponseHeaders(res)
	defer func() {
		for _, hf := range headers {
			h2conn.ReleaseHeaderField(hf)
		}
	}()
	body := res.Body()

	if len(body) == 0 {
		return s.SendHeaders(ctx, headers, true)
	}
	if err := s.SendHeaders(ctx, headers, false); err != nil {
		return err
	}
	return s.SendData(ctx, body, true)
}

func buildResponseHeaders(res *fasthttp.Response) []*h2conn.HeaderField {
	headers := make([]*h2conn.HeaderField, 0, res.Header.Len()+2)

	status := h2conn.AcquireHeaderField()
	status.SetKeyBytes(h2conn.StringStatus)
	status.SetValue(strconv.Itoa(res.StatusCode()))
	headers = append(headers, status)

	length := h2conn.AcquireHeaderField()
	length.SetKeyBytes(h2conn.StringContentLength)
	length.SetValue(strconv.Itoa(len(res.Body())))
	headers = append(headers, length)

	res.Header.VisitAll(func(k, v []byte) {
		hf := h2conn.AcquireHeaderField()
		hf.SetBytes(bytes.ToLower(k), v)
		headers = append(headers, hf)
	})

	return headers
}
