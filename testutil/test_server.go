// Package testutil provides an in-process TCP test server for tests that
// speak the wire protocol directly: a plain net.Listen-based acceptor that
// hands each connection to a caller-supplied handler.
package testutil

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ConnHandler processes one accepted connection, returning when the
// connection is done (its caller has already closed it or will close it
// after the handler returns).
type ConnHandler func(t *testing.T, conn net.Conn)

// TestServer is a bare TCP listener that hands every accepted connection
// to a ConnHandler, one goroutine per connection.
type TestServer struct {
	listener net.Listener
}

// NewTestServer starts listening on an OS-assigned loopback port and
// begins accepting connections in the background.
func NewTestServer(t *testing.T, handler ConnHandler) *TestServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	assert.NoError(t, err, "listen failed")

	go acceptConnections(t, listener, handler)

	return &TestServer{listener: listener}
}

// Addr delivers the address on which the server is listening.
func (ts *TestServer) Addr() string {
	return ts.listener.Addr().String()
}

// Port delivers the TCP port number on which the server is listening.
func (ts *TestServer) Port() int {
	return ts.listener.Addr().(*net.TCPAddr).Port
}

// Close closes the listener, ending the accept loop. Already-accepted
// connections are not closed by this call.
func (ts *TestServer) Close() {
	// nolint: errcheck
	ts.listener.Close()
}

func acceptConnections(t *testing.T, listener net.Listener, handler ConnHandler) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}

		go func() {
			defer conn.Close()
			handler(t, conn)
		}()
	}
}
