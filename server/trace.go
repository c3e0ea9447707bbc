package server

import (
	"context"
	"log"
	"net"

	"github.com/imdario/mergo"
)

// unique type to prevent assignment.
type serverEventContextKey struct{}

// ContextServerTrace returns the Trace associated with the provided
// context. If none, it returns NoOpLoggingHooks.
func ContextServerTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(serverEventContextKey{}).(*Trace)
	if trace == nil {
		trace = NoOpLoggingHooks
	} else {
		_ = mergo.Merge(trace, NoOpLoggingHooks) // nolint: errcheck
	}
	return trace
}

// WithServerTrace returns a new context based on the provided parent ctx.
// Servers created with the returned context will use the provided trace
// hooks.
func WithServerTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, serverEventContextKey{}, trace)
}

// Trace defines a structure for handling server engine trace events.
type Trace struct {
	// StartAccepting is called once, when the accept loop starts.
	StartAccepting func(addr net.Addr)

	// Accepted is called after each Accept() call, with err indicating
	// whether it was successful.
	Accepted func(conn net.Conn, err error)

	// ConnectionAssignedID is called once per accepted connection with
	// the random identifier assigned to it, before the read loop starts.
	// The identifier has no protocol meaning; it exists purely to let log
	// lines for the same connection be correlated.
	ConnectionAssignedID func(id string, remote net.Addr)

	// ConnectionClosed is called when a per-connection read loop exits.
	ConnectionClosed func(remote net.Addr, err error)

	// PanicRecovered is called when a handler invocation panicked and the
	// per-request task recovered it.
	PanicRecovered func(recovered interface{})

	// WriteError is called when the shared queued writer fails to flush a
	// response.
	WriteError func(err error)
}

// DefaultLoggingHooks logs accept/connection/panic/write failures only.
var DefaultLoggingHooks = &Trace{
	Accepted: func(conn net.Conn, err error) {
		if err != nil {
			log.Printf("rpcframe server accept err:%v\n", err)
		}
	},
	ConnectionClosed: func(remote net.Addr, err error) {
		if err != nil {
			log.Printf("rpcframe server connection %v closed err:%v\n", remote, err)
		}
	},
	PanicRecovered: func(recovered interface{}) {
		log.Printf("rpcframe server handler panic recovered:%v\n", recovered)
	},
	WriteError: func(err error) {
		log.Printf("rpcframe server write err:%v\n", err)
	},
}

// DiagnosticLoggingHooks logs every lifecycle event.
var DiagnosticLoggingHooks = &Trace{
	StartAccepting: func(addr net.Addr) {
		log.Printf("rpcframe server start accepting addr:%v\n", addr)
	},
	Accepted: func(conn net.Conn, err error) {
		log.Printf("rpcframe server accept conn:%v err:%v\n", conn, err)
	},
	ConnectionAssignedID: func(id string, remote net.Addr) {
		log.Printf("rpcframe server connection %v assigned id:%s\n", remote, id)
	},
	ConnectionClosed: func(remote net.Addr, err error) {
		log.Printf("rpcframe server connection %v closed err:%v\n", remote, err)
	},
	PanicRecovered: DefaultLoggingHooks.PanicRecovered,
	WriteError:     DefaultLoggingHooks.WriteError,
}

// NoOpLoggingHooks discards all trace events.
var NoOpLoggingHooks = &Trace{
	StartAccepting:       func(addr net.Addr) {},
	Accepted:             func(conn net.Conn, err error) {},
	ConnectionAssignedID: func(id string, remote net.Addr) {},
	ConnectionClosed:     func(remote net.Addr, err error) {},
	PanicRecovered:       func(recovered interface{}) {},
	WriteError:           func(err error) {},
}
