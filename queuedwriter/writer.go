// Package queuedwriter implements a many-producer, single-consumer
// coalescing writer over one stream. Any number of goroutines may call
// Write concurrently; exactly one of them, at a time, drains the queue and
// flushes it to the underlying io.Writer, so the cost of the write syscall
// and the flush mutex is amortized across every producer waiting behind
// it. This is the core's "first producer flushes" pattern: re-implemented
// faithfully rather than replaced with a plain mutex-guarded write, since
// that tradeoff is the entire point of the component.
package queuedwriter

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// minAccumBuf is the minimum headroom the accumulation buffer keeps
// between flushes.
const minAccumBuf = 32 * 1024

// maxIdleAccumBuf bounds how large the accumulation buffer is allowed to
// stay once traffic quiets down; it is reset back to minAccumBuf capacity
// after a flush that leaves it larger than this, so a single burst doesn't
// pin memory for the lifetime of the stream.
const maxIdleAccumBuf = 4 * minAccumBuf

// QueuedWriter serializes writes from many producers onto one underlying
// stream. Every call to Write is safe to invoke concurrently from any
// number of goroutines. A single goroutine's sequential calls are emitted
// in that order; across goroutines every pushed buffer is still emitted
// exactly once, as a contiguous block, but the relative order between
// different producers' buffers is not guaranteed.
type QueuedWriter struct {
	w io.Writer

	// n is the MPSC "someone is already draining" counter. Incrementing
	// it from zero to one wins the right to drain and flush; any other
	// increment means a drain is already in progress and the caller can
	// return immediately.
	n int64

	qmu   sync.Mutex
	queue [][]byte

	wmu sync.Mutex
	acc []byte

	trace *Trace
}

// New wraps w in a QueuedWriter using NoOpLoggingHooks.
func New(w io.Writer) *QueuedWriter {
	return NewWithTrace(w, NoOpLoggingHooks)
}

// NewFromContext wraps w in a QueuedWriter, resolving its Trace from ctx
// via ContextWriterTrace.
func NewFromContext(ctx context.Context, w io.Writer) *QueuedWriter {
	return NewWithTrace(w, ContextWriterTrace(ctx))
}

// NewWithTrace wraps w in a QueuedWriter using an explicit Trace.
func NewWithTrace(w io.Writer, trace *Trace) *QueuedWriter {
	return &QueuedWriter{w: w, acc: make([]byte, 0, minAccumBuf), trace: trace}
}

// Write enqueues p for emission and, if no other goroutine is currently
// draining, drains and flushes the queue itself. p is not retained once
// Write returns its caller may reuse it immediately; the writer copies it
// into the accumulation buffer before returning on the draining path, and
// before any other goroutine can observe it on the non-draining path it
// has already been appended to the internal queue slice (also a copy).
//
// An I/O error is only ever returned to the goroutine that happens to be
// draining at the time the error occurs; earlier callers that already
// returned cannot be retroactively informed, by construction. A later
// Write's error is the caller's signal that the stream is broken.
func (qw *QueuedWriter) Write(p []byte) error {
	qw.push(p)

	if atomic.AddInt64(&qw.n, 1) != 1 {
		// Someone else already owns the drain; our buffer will be picked
		// up by them.
		return nil
	}

	return qw.drain()
}

func (qw *QueuedWriter) push(p []byte) {
	cp := make([]byte, len(p))
	copy(cp, p)

	qw.qmu.Lock()
	qw.queue = append(qw.queue, cp)
	qw.qmu.Unlock()
}

func (qw *QueuedWriter) popAll() [][]byte {
	qw.qmu.Lock()
	batch := qw.queue
	qw.queue = nil
	qw.qmu.Unlock()
	return batch
}

// drain implements §4.3's algorithm: take the writer mutex, then loop
// draining the producer queue into the accumulation buffer until the
// pending counter's snapshot matches exactly what was drained (meaning no
// further work arrived while draining), then issue a single write of
// everything accumulated across every iteration of the loop.
func (qw *QueuedWriter) drain() error {
	qw.wmu.Lock()
	defer qw.wmu.Unlock()

	if cap(qw.acc) < minAccumBuf {
		qw.acc = make([]byte, 0, minAccumBuf)
	} else {
		qw.acc = qw.acc[:0]
	}

	batched := 0
	for {
		batch := qw.popAll()
		batched += len(batch)
		for _, b := range batch {
			qw.acc = append(qw.acc, b...)
		}

		if atomic.AddInt64(&qw.n, -int64(len(batch))) == 0 {
			break
		}
	}

	begin := time.Now()
	_, err := qw.w.Write(qw.acc)
	observeFlush(len(qw.acc), batched, err)
	qw.trace.FlushDone(len(qw.acc), batched, err, time.Since(begin))

	if cap(qw.acc) > maxIdleAccumBuf {
		qw.acc = make([]byte, 0, minAccumBuf)
	} else {
		qw.acc = qw.acc[:0]
	}

	return err
}
