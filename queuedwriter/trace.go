package queuedwriter

import (
	"context"
	"log"
	"time"

	"github.com/imdario/mergo"
)

// unique type to prevent assignment.
type writerEventContextKey struct{}

// ContextWriterTrace returns the Trace associated with the provided
// context. If none, it returns NoOpLoggingHooks.
func ContextWriterTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(writerEventContextKey{}).(*Trace)
	if trace == nil {
		trace = NoOpLoggingHooks
	} else {
		_ = mergo.Merge(trace, NoOpLoggingHooks) // nolint: errcheck
	}
	return trace
}

// WithWriterTrace returns a new context based on the provided parent ctx.
// QueuedWriters created with the returned context will use the provided
// trace hooks.
func WithWriterTrace(ctx context.Context, trace *Trace) context.Context {
	return context.WithValue(ctx, writerEventContextKey{}, trace)
}

// Trace defines a structure for handling queued writer trace events.
type Trace struct {
	// FlushDone is called after a drain cycle writes its accumulation
	// buffer to the underlying stream, with bytes the total size written,
	// batched the number of producer buffers coalesced into it, err any
	// I/O failure, and d the time spent in the write.
	FlushDone func(bytes, batched int, err error, d time.Duration)
}

// DefaultLoggingHooks logs only flush failures.
var DefaultLoggingHooks = &Trace{
	FlushDone: func(bytes, batched int, err error, d time.Duration) {
		if err != nil {
			log.Printf("QueuedWriter flush bytes:%d batched:%d err:%v\n", bytes, batched, err)
		}
	},
}

// DiagnosticLoggingHooks logs every flush cycle.
var DiagnosticLoggingHooks = &Trace{
	FlushDone: func(bytes, batched int, err error, d time.Duration) {
		log.Printf("QueuedWriter flush bytes:%d batched:%d err:%v took:%dus\n", bytes, batched, err, d.Microseconds())
	},
}

// NoOpLoggingHooks discards all trace events.
var NoOpLoggingHooks = &Trace{
	FlushDone: func(bytes, batched int, err error, d time.Duration) {},
}
