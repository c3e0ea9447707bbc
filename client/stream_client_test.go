package client_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/damianoneill/rpcframe/client"
	"github.com/damianoneill/rpcframe/transport"
	"github.com/damianoneill/rpcframe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamClientRoundTrip(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()
	go fakeEchoServer(t, server)

	sc := client.NewStreamClient(context.Background(), transport.NewConnStream(clientConn))
	defer sc.Close()

	req := wire.NewReqBuf()
	_, _ = req.Write([]byte("add(7,35)"))

	frame, err := sc.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	assert.Equal(t, "add(7,35)", string(payload))
}

func TestStreamClientDiscardsStaleIDs(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()

	go func() {
		var scratch []byte
		frame, err := wire.Decode(server, &scratch)
		if err != nil {
			return
		}
		// Respond once with a stale id, then with the real one.
		stale := wire.NewRspBuf()
		_, _ = server.Write(stale.Finish(frame.ID-1, nil))

		rsp := wire.NewRspBuf()
		_, _ = rsp.Write([]byte("ok"))
		_, _ = server.Write(rsp.Finish(frame.ID, nil))
	}()

	sc := client.NewStreamClient(context.Background(), transport.NewConnStream(clientConn))
	defer sc.Close()

	req := wire.NewReqBuf()
	frame, err := sc.Call(req)
	require.NoError(t, err)
	payload, err := frame.ResponsePayload()
	require.NoError(t, err)
	assert.Equal(t, "ok", string(payload))
}

func TestStreamClientTimesOut(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()
	go slowServer(t, server, 200*time.Millisecond)

	sc := client.NewStreamClient(context.Background(), transport.NewConnStream(clientConn))
	defer sc.Close()
	sc.SetTimeout(20 * time.Millisecond)

	req := wire.NewReqBuf()
	_, err := sc.Call(req)
	assert.ErrorIs(t, err, wire.ErrTimeout)
}
