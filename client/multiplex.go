// Package client implements the two client flavors described by the wire
// protocol: a Multiplex client that demultiplexes responses by id over a
// background reader, and a simpler sequential StreamClient for callers
// that never have more than one request in flight.
package client

import (
	"context"
	"sync"
	"time"

	"github.com/imdario/mergo"

	"github.com/damianoneill/rpcframe/queuedwriter"
	"github.com/damianoneill/rpcframe/transport"
	"github.com/damianoneill/rpcframe/waiter"
	"github.com/damianoneill/rpcframe/wire"
)

// Multiplex is a client that allows many concurrent in-flight calls over
// a single stream. A background reader goroutine demultiplexes responses
// by correlation id to whichever caller is waiting on it; callers may
// invoke Call concurrently from any number of goroutines.
type Multiplex struct {
	stream  transport.Stream
	writer  *queuedwriter.QueuedWriter
	waiters *waiter.Table
	trace   *Trace

	timeout time.Duration

	readerDone sync.WaitGroup
}

// NewMultiplex is NewMultiplexWithConfig with DefaultConfig (no timeout).
func NewMultiplex(ctx context.Context, stream transport.Stream) *Multiplex {
	return NewMultiplexWithConfig(ctx, stream, DefaultConfig)
}

// NewMultiplexWithConfig splits stream, wraps its write half in a
// QueuedWriter, and launches the background reader. cfg is a partial
// Config; zero-valued fields are filled in from DefaultConfig via
// mergo.Merge. The Trace used for logging is resolved from ctx via
// ContextClientTrace.
func NewMultiplexWithConfig(ctx context.Context, stream transport.Stream, cfg *Config) *Multiplex {
	resolved := *cfg
	_ = mergo.Merge(&resolved, DefaultConfig)

	rh, wh := stream.Split()

	mc := &Multiplex{
		stream:  stream,
		writer:  queuedwriter.New(wh),
		waiters: waiter.NewTable(),
		trace:   ContextClientTrace(ctx),
		timeout: resolved.Timeout,
	}

	mc.readerDone.Add(1)
	go mc.readLoop(rh)

	return mc
}

// SetTimeout sets the default per-call wait timeout. Zero means wait
// forever, which is also the default set by NewMultiplex.
func (mc *Multiplex) SetTimeout(d time.Duration) {
	mc.timeout = d
}

// Call registers a waiter, finalizes req with the allocated correlation
// id, hands the resulting frame to the queued writer, and blocks for a
// matching response up to the configured timeout. The returned Frame's
// ResponsePayload decodes to either the handler's return value or a
// server-reported Error; a non-nil error from Call itself means the
// request was never answered (write failure or Timeout).
func (mc *Multiplex) Call(req *wire.ReqBuf) (frame *wire.Frame, err error) {
	id, w := mc.waiters.Register()

	mc.trace.CallStart(uint64(id))
	defer func(begin time.Time) {
		mc.trace.CallDone(uint64(id), err, time.Since(begin))
	}(time.Now())

	bytes := req.Finish(uint64(id))
	if werr := mc.writer.Write(bytes); werr != nil {
		w.Cancel()
		return nil, wire.NewIOError(werr)
	}

	frame, err = w.Wait(mc.timeout)
	return frame, err
}

func (mc *Multiplex) readLoop(r transport.ReadHalf) {
	defer mc.readerDone.Done()

	var scratch []byte
	for {
		frame, err := wire.Decode(r, &scratch)
		if err != nil {
			mc.trace.ReaderExit(err)
			return
		}

		if wire.IsPolling(frame) {
			// Sentinel: no waiter is ever woken for it.
			continue
		}

		mc.waiters.Deposit(frame.ID, frame)
	}
}

// Close closes the underlying stream, which unblocks the background
// reader's pending read with a transport error, then waits for the reader
// goroutine to exit before returning. Close does not wake waiters still
// pending at that point: a call with a non-zero timeout returns ErrTimeout
// once it elapses, and a call with a zero timeout keeps waiting. No
// cancellation signal is sent to the server.
func (mc *Multiplex) Close() error {
	err := mc.stream.Close()
	mc.readerDone.Wait()
	return err
}
