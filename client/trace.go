package client

import (
	"context"
	"log"
	"time"

	"github.com/imdario/mergo"
)

// unique type to prevent assignment.
type clientEventContextKey struct{}

// ContextClientTrace returns the Trace associated with the provided
// context. If none, it returns NoOpLoggingHooks.
func ContextClientTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(clientEventContextKey{}).(*Trace)
	if trace == nil {
		trace = NoOpLoggingHooks
	} else {
		_ = mergo.Merge(trace, NoOpLoggingHooks) // nolint: errcheck
	}
	return trace
}

// WithClientTrace returns a new context based on the provided parent ctx.
// Clients created with the returned context will use the provided trace
// hooks.
func WithClientTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, clientEventContextKey{}, trace)
}

// Trace defines a structure for handling client trace events.
type Trace struct {
	// CallStart is called before a request is submitted.
	CallStart func(id uint64)

	// CallDone is called after a call completes, successfully or not.
	CallDone func(id uint64, err error, d time.Duration)

	// ReaderExit is called when the background reader of a multiplex
	// client stops, whether because of a clean close or a decode error.
	ReaderExit func(err error)
}

// DefaultLoggingHooks logs reader termination only.
var DefaultLoggingHooks = &Trace{
	ReaderExit: func(err error) {
		if err != nil {
			log.Printf("rpcframe client reader exited err:%v\n", err)
		}
	},
}

// DiagnosticLoggingHooks logs every call and reader termination.
var DiagnosticLoggingHooks = &Trace{
	CallStart: func(id uint64) {
		log.Printf("rpcframe client call start id:%d\n", id)
	},
	CallDone: func(id uint64, err error, d time.Duration) {
		log.Printf("rpcframe client call done id:%d err:%v took:%dus\n", id, err, d.Microseconds())
	},
	ReaderExit: func(err error) {
		log.Printf("rpcframe client reader exited err:%v\n", err)
	},
}

// NoOpLoggingHooks discards all trace events.
var NoOpLoggingHooks = &Trace{
	CallStart:  func(id uint64) {},
	CallDone:   func(id uint64, err error, d time.Duration) {},
	ReaderExit: func(err error) {},
}
