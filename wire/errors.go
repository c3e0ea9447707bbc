package wire

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the client-visible failure modes of an RPC call.
type Kind int

const (
	// KindIO covers any transport-level failure: read, write or connect.
	KindIO Kind = iota
	// KindClientSerialize means encoding the outgoing request failed.
	KindClientSerialize
	// KindClientDeserialize means decoding an incoming response (header or
	// payload) failed.
	KindClientDeserialize
	// KindServerDeserialize means the server reported it could not decode
	// the request.
	KindServerDeserialize
	// KindServerSerialize means the server reported it could not encode
	// its response.
	KindServerSerialize
	// KindStatus means the server reported a handler-level failure,
	// notably a recovered panic.
	KindStatus
	// KindTimeout means no response arrived within the configured window.
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "Io"
	case KindClientSerialize:
		return "ClientSerialize"
	case KindClientDeserialize:
		return "ClientDeserialize"
	case KindServerDeserialize:
		return "ServerDeserialize"
	case KindServerSerialize:
		return "ServerSerialize"
	case KindStatus:
		return "Status"
	case KindTimeout:
		return "Timeout"
	default:
		return "Unknown"
	}
}

// Error is the client-visible error taxonomy described by the wire
// protocol: transport failures, codec failures on either side, and
// handler-level Status failures reported by the server.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, so callers can use errors.Is/As
// against transport-level errors.
func (e *Error) Unwrap() error { return e.cause }

// NewIOError wraps a transport failure as a KindIO Error.
func NewIOError(cause error) *Error {
	return &Error{Kind: KindIO, Message: cause.Error(), cause: errors.Wrap(cause, "io")}
}

// NewClientSerializeError wraps a request-encoding failure.
func NewClientSerializeError(cause error) *Error {
	return &Error{Kind: KindClientSerialize, Message: cause.Error(), cause: errors.Wrap(cause, "client serialize")}
}

// NewClientDeserializeError builds a KindClientDeserialize Error with the
// given message (e.g. "invalid response type").
func NewClientDeserializeError(msg string) *Error {
	return &Error{Kind: KindClientDeserialize, Message: msg, cause: errors.New(msg)}
}

// NewServerDeserializeError builds the Error a client sees when the server
// reports ty=1 (it could not decode the request).
func NewServerDeserializeError(msg string) *Error {
	return &Error{Kind: KindServerDeserialize, Message: msg, cause: errors.New(msg)}
}

// NewServerSerializeError builds the Error a client sees when the server
// reports ty=2 (it could not encode its response).
func NewServerSerializeError(msg string) *Error {
	return &Error{Kind: KindServerSerialize, Message: msg, cause: errors.New(msg)}
}

// Statusf builds a KindStatus Error (ty=3), used both server-side to
// construct the wire payload and client-side once decoded.
func Statusf(format string, args ...interface{}) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{Kind: KindStatus, Message: msg, cause: errors.New(msg)}
}

// ErrTimeout is returned by a client call that received no response within
// its configured timeout.
var ErrTimeout = &Error{Kind: KindTimeout, Message: "timed out waiting for response"}

// ErrInvalidInput is returned by the frame codec when a peer's declared
// frame length exceeds MaxFrameSize, or a length-prefixed buffer is
// malformed. The peer that sent it is not trusted further.
var ErrInvalidInput = errors.New("invalid input")

// errPolling is the internal sentinel ResponsePayload returns for a ty=200
// response. The client readers discard polling frames with IsPolling
// before a waiter is consulted, so a frame returned by a client Call never
// carries it.
var errPolling = errors.New("polling")
