package server_test

import (
	"context"
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianoneill/rpcframe/client"
	"github.com/damianoneill/rpcframe/server"
	"github.com/damianoneill/rpcframe/transport"
	"github.com/damianoneill/rpcframe/wire"
)

// echoHandler writes the request payload back unchanged.
var echoHandler = server.HandlerFunc(func(req []byte, rsp *wire.RspBuf) error {
	_, err := rsp.Write(req)
	return err
})

// addHandler decodes two big-endian uint32 operands and writes their
// big-endian uint32 sum.
var addHandler = server.HandlerFunc(func(req []byte, rsp *wire.RspBuf) error {
	if len(req) != 8 {
		return wire.NewServerDeserializeError("add expects 8 bytes")
	}
	sum := binary.BigEndian.Uint32(req[0:4]) + binary.BigEndian.Uint32(req[4:8])
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], sum)
	_, err := rsp.Write(out[:])
	return err
})

// panickingAddHandler panics whenever the first operand is zero,
// otherwise behaves like addHandler so a connection continues to
// serve normal requests after the panic is recovered.
var panickingAddHandler = server.HandlerFunc(func(req []byte, rsp *wire.RspBuf) error {
	if len(req) != 8 {
		return wire.NewServerDeserializeError("add expects 8 bytes")
	}
	a := binary.BigEndian.Uint32(req[0:4])
	if a == 0 {
		panic("boom")
	}
	b := binary.BigEndian.Uint32(req[4:8])
	var out [4]byte
	binary.BigEndian.PutUint32(out[:], a+b)
	_, err := rsp.Write(out[:])
	return err
})

// counterHandler atomically increments a shared counter and echoes its
// new value.
func counterHandler(counter *int64) server.Handler {
	return server.HandlerFunc(func(req []byte, rsp *wire.RspBuf) error {
		v := atomic.AddInt64(counter, 1)
		var out [8]byte
		binary.BigEndian.PutUint64(out[:], uint64(v))
		_, err := rsp.Write(out[:])
		return err
	})
}

func startServer(t *testing.T, h server.Handler) (*server.Server, string) {
	t.Helper()
	s, err := server.NewServer(context.Background(), "tcp", "127.0.0.1:0", h)
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
		s.Join()
	})
	return s, s.Addr().String()
}

func dial(t *testing.T, addr string) *client.Multiplex {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	mc := client.NewMultiplex(context.Background(), transport.NewConnStream(conn))
	t.Cleanup(func() { _ = mc.Close() })
	return mc
}

func TestServerEchoRoundTrip(t *testing.T) {
	_, addr := startServer(t, echoHandler)
	mc := dial(t, addr)

	req := wire.NewReqBuf()
	_, _ = req.Write([]byte("Hello World! id=3"))

	frame, err := mc.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	assert.Equal(t, "Hello World! id=3", string(payload))
}

func TestServerAdd(t *testing.T) {
	_, addr := startServer(t, addHandler)
	mc := dial(t, addr)

	req := wire.NewReqBuf()
	var operands [8]byte
	binary.BigEndian.PutUint32(operands[0:4], 2)
	binary.BigEndian.PutUint32(operands[4:8], 40)
	_, _ = req.Write(operands[:])

	frame, err := mc.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	require.Len(t, payload, 4)
	assert.EqualValues(t, 42, binary.BigEndian.Uint32(payload))
}

// TestServerPanicIsolation verifies that a panicking handler invocation
// surfaces as a Status error on the calling request, and the connection
// continues to serve subsequent requests normally.
func TestServerPanicIsolation(t *testing.T) {
	_, addr := startServer(t, panickingAddHandler)
	mc := dial(t, addr)

	req := wire.NewReqBuf()
	var operands [8]byte // a=0 triggers the panic
	binary.BigEndian.PutUint32(operands[4:8], 5)
	_, _ = req.Write(operands[:])

	frame, err := mc.Call(req)
	require.NoError(t, err)
	_, err = frame.ResponsePayload()
	require.Error(t, err)
	var wireErr *wire.Error
	require.ErrorAs(t, err, &wireErr)
	assert.Equal(t, wire.KindStatus, wireErr.Kind)
	assert.Equal(t, "rpc panicked in server!", wireErr.Message)

	req2 := wire.NewReqBuf()
	binary.BigEndian.PutUint32(operands[0:4], 2)
	binary.BigEndian.PutUint32(operands[4:8], 40)
	_, _ = req2.Write(operands[:])

	frame2, err := mc.Call(req2)
	require.NoError(t, err)
	payload2, err := frame2.ResponsePayload()
	require.NoError(t, err)
	assert.EqualValues(t, 42, binary.BigEndian.Uint32(payload2))
}

// TestServerConcurrentCounter verifies that many concurrent callers
// across many connections each incrementing a shared counter observe a
// consistent final total, with no lost or duplicated updates.
func TestServerConcurrentCounter(t *testing.T) {
	var counter int64
	_, addr := startServer(t, counterHandler(&counter))

	const conns = 20
	const perConn = 100

	var wg sync.WaitGroup
	for i := 0; i < conns; i++ {
		mc := dial(t, addr)
		wg.Add(1)
		go func(mc *client.Multiplex) {
			defer wg.Done()
			for j := 0; j < perConn; j++ {
				req := wire.NewReqBuf()
				_, err := mc.Call(req)
				assert.NoError(t, err)
			}
		}(mc)
	}
	wg.Wait()

	assert.EqualValues(t, conns*perConn, atomic.LoadInt64(&counter))
}

// TestServerOversizeFrameTerminatesOnlyThatConnection verifies that a
// client which writes a declared length beyond MaxFrameSize gets its
// connection dropped, while every other connection keeps being served.
func TestServerOversizeFrameTerminatesOnlyThatConnection(t *testing.T) {
	_, addr := startServer(t, echoHandler)

	bad, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer bad.Close()

	var hdr [16]byte
	binary.BigEndian.PutUint64(hdr[8:16], wire.MaxFrameSize+1)
	_, err = bad.Write(hdr[:])
	require.NoError(t, err)

	buf := make([]byte, 1)
	_ = bad.SetReadDeadline(time.Now().Add(time.Second))
	_, err = bad.Read(buf)
	assert.Error(t, err, "server should have closed the oversize connection")

	good := dial(t, addr)
	req := wire.NewReqBuf()
	_, _ = req.Write([]byte("still alive"))
	frame, err := good.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	assert.Equal(t, "still alive", string(payload))
}

// TestServerTimeoutThenSuccess verifies that a call which times out
// client-side does not wedge the connection; a subsequent call that
// completes promptly still succeeds.
func TestServerTimeoutThenSuccess(t *testing.T) {
	// A handler that sleeps briefly simulates a slow request without
	// needing a second server; the client's own short timeout is what
	// manufactures the timeout in this test.
	slow := server.HandlerFunc(func(req []byte, rsp *wire.RspBuf) error {
		time.Sleep(50 * time.Millisecond)
		_, err := rsp.Write(req)
		return err
	})
	_, addr := startServer(t, slow)
	mc := dial(t, addr)
	mc.SetTimeout(5 * time.Millisecond)

	_, err := mc.Call(wire.NewReqBuf())
	assert.ErrorIs(t, err, wire.ErrTimeout)

	mc.SetTimeout(time.Second)
	req := wire.NewReqBuf()
	_, _ = req.Write([]byte("after timeout"))
	frame, err := mc.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	assert.Equal(t, "after timeout", string(payload))
}
