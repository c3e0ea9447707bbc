package client

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/imdario/mergo"

	"github.com/damianoneill/rpcframe/transport"
	"github.com/damianoneill/rpcframe/wire"
)

// StreamClient is a simpler, non-multiplexed client for callers that only
// ever have one request outstanding at a time — diagnostic paths and UDP,
// which do not benefit from the multiplex client's demultiplexing reader.
// It maintains a monotonically increasing id per instance, writes the
// framed request directly to the stream, then reads frames until one
// matches the expected id, discarding anything older.
type StreamClient struct {
	stream transport.Stream
	r      transport.ReadHalf
	w      transport.WriteHalf

	nextID  uint64
	timeout time.Duration
	scratch []byte

	trace *Trace
}

// NewStreamClient is NewStreamClientWithConfig with DefaultStreamConfig
// (timeout DefaultStreamTimeout).
func NewStreamClient(ctx context.Context, stream transport.Stream) *StreamClient {
	return NewStreamClientWithConfig(ctx, stream, DefaultStreamConfig)
}

// NewStreamClientWithConfig wraps stream for sequential use. cfg is a
// partial Config; zero-valued fields are filled in from
// DefaultStreamConfig via mergo.Merge.
func NewStreamClientWithConfig(ctx context.Context, stream transport.Stream, cfg *Config) *StreamClient {
	resolved := *cfg
	_ = mergo.Merge(&resolved, DefaultStreamConfig)

	r, w := stream.Split()
	return &StreamClient{
		stream:  stream,
		r:       r,
		w:       w,
		timeout: resolved.Timeout,
		trace:   ContextClientTrace(ctx),
	}
}

// SetTimeout sets the read timeout used by subsequent calls.
func (c *StreamClient) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Call allocates the next sequential id, writes the request, and reads
// frames until one matches; any frame bearing an earlier id (a stale
// response to a call this client gave up on) is discarded rather than
// treated as an error.
func (c *StreamClient) Call(req *wire.ReqBuf) (*wire.Frame, error) {
	id := atomic.AddUint64(&c.nextID, 1)

	c.trace.CallStart(id)
	var err error
	defer func(begin time.Time) {
		c.trace.CallDone(id, err, time.Since(begin))
	}(time.Now())

	frame := req.Finish(id)
	if _, werr := c.w.Write(frame); werr != nil {
		err = wire.NewIOError(werr)
		return nil, err
	}

	if derr := c.stream.SetReadDeadline(time.Now().Add(c.timeout)); derr != nil {
		err = wire.NewIOError(derr)
		return nil, err
	}

	for {
		var f *wire.Frame
		f, err = wire.Decode(c.r, &c.scratch)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				err = wire.ErrTimeout
			} else {
				err = wire.NewIOError(err)
			}
			return nil, err
		}

		if f.ID != id || wire.IsPolling(f) {
			continue
		}

		return f, nil
	}
}

// Close closes the underlying stream.
func (c *StreamClient) Close() error {
	return c.stream.Close()
}
