package h2conn

import "github.com/h2lab/h2conn/h2util"

var (
	StringPath          = []byte(":path")
	StringMethod        = []byte(":method")
	StringScheme        = []byte(":scheme")
	StringAuthority     = []byte(":authority")
	StringStatus        = []byte(":status")
	StringContentLength = []byte("content-length")
	StringContentType   = []byte("content-type")
	StringUserAgent     = []byte("user-agent")
	StringServer        = []byte("server")
	StringTE            = []byte("te")
	StringTrailers      = []byte("trailers")
	StringConnection    = []byte("connection")
)

// connectionSpecificHeaders lists the field names forbidden in HTTP/2
// requests/responses by RFC 7540 §8.1.2.2.
var connectionSpecificHeaders = [][]byte{
	StringConnection,
	[]byte("keep-alive"),
	[]byte("proxy-connection"),
	[]byte("transfer-encoding"),
	[]byte("upgrade"),
}

func isConnectionSpecificHeader(key []byte) bool {
	for _, h := range connectionSpecificHeaders {
		if h2util.EqualsFold(key, h) {
			return true
		}
	}
	return false
}

const (
	// H2TLSProto is the ALPN protocol id negotiated for HTTP/2 over TLS.
	H2TLSProto = "h2"
	// H2Clean is the upgrade token for HTTP/2 over plaintext TCP.
	H2Clean = "h2c"
)
