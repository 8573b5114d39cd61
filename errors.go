package h2conn

import (
	"errors"
	"fmt"
)

// ErrorCode is an HTTP/2 error code as defined by RFC 7540 §7.
type ErrorCode uint32

const (
	NoError              ErrorCode = 0x0
	ProtocolError        ErrorCode = 0x1
	InternalError        ErrorCode = 0x2
	FlowControlError     ErrorCode = 0x3
	SettingsTimeoutError ErrorCode = 0x4
	StreamClosedError    ErrorCode = 0x5
	FrameSizeError       ErrorCode = 0x6
	RefusedStreamError   ErrorCode = 0x7
	CancelError          ErrorCode = 0x8
	CompressionError     ErrorCode = 0x9
	ConnectionError      ErrorCode = 0xa
	EnhanceYourCalm      ErrorCode = 0xb
	InadequateSecurity   ErrorCode = 0xc
	HTTP11Required       ErrorCode = 0xd
)

var errorStrings = [...]string{
	NoError:              "NO_ERROR",
	ProtocolError:        "PROTOCOL_ERROR",
	InternalError:        "INTERNAL_ERROR",
	FlowControlError:     "FLOW_CONTROL_ERROR",
	SettingsTimeoutError: "SETTINGS_TIMEOUT",
	StreamClosedError:    "STREAM_CLOSED",
	FrameSizeError:       "FRAME_SIZE_ERROR",
	RefusedStreamError:   "REFUSED_STREAM",
	CancelError:          "CANCEL",
	CompressionError:     "COMPRESSION_ERROR",
	ConnectionError:      "CONNECT_ERROR",
	EnhanceYourCalm:      "ENHANCE_YOUR_CALM",
	InadequateSecurity:   "INADEQUATE_SECURITY",
	HTTP11Required:       "HTTP_1_1_REQUIRED",
}

func (c ErrorCode) String() string {
	if int(c) < len(errorStrings) && errorStrings[c] != "" {
		return errorStrings[c]
	}
	return fmt.Sprintf("UNKNOWN_ERROR(0x%x)", uint32(c))
}

// IsStreamError reports whether code is classified as stream-scoped
// (RST_STREAM) rather than connection-scoped (GOAWAY).
//
// Per RFC 7540 §5.4.1, any code MAY be sent as either a stream or a
// connection error; this classification treats everything but the handful
// of codes that imply the peer itself is unrecoverable as stream-scoped.
// Connection.dispatch does not consult it: it routes an *Error by the
// StreamID its call site attached.
func (c ErrorCode) IsStreamError() bool {
	switch c {
	case ProtocolError, CompressionError, FlowControlError, SettingsTimeoutError:
		return false
	default:
		return true
	}
}

// IsConnectionError is the complement of IsStreamError.
func (c ErrorCode) IsConnectionError() bool {
	return !c.IsStreamError()
}

// Error is a protocol error tied to a specific HTTP/2 error code, optionally
// scoped to a stream. A zero StreamID means the error is connection-scoped.
type Error struct {
	Code     ErrorCode
	StreamID uint32
	Reason   string
}

func NewError(code ErrorCode, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

func NewStreamError(streamID uint32, code ErrorCode, reason string) *Error {
	return &Error{Code: code, StreamID: streamID, Reason: reason}
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

var (
	ErrZeroPayload      = errors.New("h2conn: frame payload is empty")
	ErrBadPreface       = errors.New("h2conn: bad connection preface")
	ErrFrameMismatch    = errors.New("h2conn: frame type mismatch")
	ErrMissingBytes     = errors.New("h2conn: frame payload too short")
	ErrPayloadExceeds   = errors.New("h2conn: frame payload exceeds negotiated maximum size")
	ErrBitOverflow      = errors.New("h2conn: bit overflow")

	// ErrStreamClosed is returned to a Handler attempting to write to a
	// stream that has already been closed or reset.
	ErrStreamClosed = errors.New("h2conn: stream closed")
	// ErrConnectionClosed is returned to a Handler attempting to write
	// after the owning connection has shut down.
	ErrConnectionClosed = errors.New("h2conn: connection closed")
	// ErrInvalidState is returned when an operation is attempted while
	// the stream is in a state that forbids it.
	ErrInvalidState = errors.New("h2conn: invalid stream state for operation")
)
