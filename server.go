package h2conn

import (
	"context"
	"crypto/tls"
	"net"
)

// Server accepts TLS connections that have negotiated h2 via ALPN and
// serves each with its own Connection. It is the thin net.Listener-driven
// entrypoint around Connection/Serve; applications embedding h2conn into
// an existing TLS server (e.g. via (*tls.Config).NextProtos plus a custom
// accept loop, or fasthttp's Server.NextProto) can skip Server entirely
// and call ServeConn directly.
type Server struct {
	Handler Handler
	Config  *ServerConfig
}

// ServeConn runs the HTTP/2 connection preface, SETTINGS exchange, and
// frame dispatch loop for nc until the peer closes the connection, a
// connection error forces a GOAWAY, or ctx is cancelled. It blocks for the
// lifetime of the connection.
func ServeConn(ctx context.Context, nc net.Conn, handler Handler, cfg *ServerConfig) error {
	conn := NewConnection(nc, handler, cfg)
	return conn.Serve(ctx)
}

// Serve accepts connections from ln, negotiates TLS, and hands each one
// that selects H2TLSProto to its own Connection. Connections that
// negotiate a different protocol (or fail the handshake) are closed.
// Serve blocks until ln.Accept returns a non-nil error, typically because
// ln was closed.
func (s *Server) Serve(ln net.Listener) error {
	for {
		c, err := ln.Accept()
		if err != nil {
			return err
		}

		go s.serveConn(c)
	}
}

func (s *Server) serveConn(c net.Conn) {
	defer c.Close()

	if tc, ok := c.(*tls.Conn); ok {
		if err := tc.Handshake(); err != nil {
			s.logf("h2conn: TLS handshake: %s", err)
			return
		}
		if proto := tc.ConnectionState().NegotiatedProtocol; proto != H2TLSProto {
			s.logf("h2conn: ALPN negotiated %q, not %q", proto, H2TLSProto)
			return
		}
	}

	if err := ServeConn(context.Background(), c, s.Handler, s.Config); err != nil {
		s.logf("h2conn: serving connection: %s", err)
	}
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.Config != nil && s.Config.Logger != nil {
		s.Config.Logger.Printf(format, args...)
	}
}

// ListenAndServeTLS listens on addr, loads the given certificate/key pair,
// appends H2TLSProto to the negotiated ALPN protocols, and calls Serve.
func (s *Server) ListenAndServeTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{H2TLSProto},
		MinVersion:   tls.VersionTLS12,
	}

	ln, err := tls.Listen("tcp", addr, tlsConfig)
	if err != nil {
		return err
	}

	return s.Serve(ln)
}
