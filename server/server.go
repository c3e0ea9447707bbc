// Package server implements the RPC engine's accept loop, per-connection
// read loop, per-request panic-isolated dispatch, and a UDP variant, all
// sharing the Handler contract in handler.go.
package server

import (
	"context"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/damianoneill/rpcframe/queuedwriter"
	"github.com/damianoneill/rpcframe/transport"
	"github.com/damianoneill/rpcframe/wire"
)

// scratchPool amortizes per-frame scratch-buffer allocation across many
// sequential requests on a connection, while still giving each
// concurrently dispatched request task exclusive ownership of the bytes
// it decoded into: the connection's read loop gets a buffer from the
// pool, decodes into it, hands it to the per-request goroutine, and only
// that goroutine returns it to the pool once it's done with the payload.
var scratchPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 4096)
		return &b
	},
}

// Server is the TCP/Unix-domain accept loop and per-connection dispatch
// engine. Construct with NewServer; Close tears it down.
type Server struct {
	listener net.Listener
	handler  Handler
	manager  *connManager
	trace    *Trace

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewServer binds network/address (e.g. "tcp", "localhost:0") and starts
// accepting connections in a background goroutine, dispatching every
// decoded request to h. Callers needing an ephemeral port should request
// port 0 and read it back from Addr().
func NewServer(ctx context.Context, network, address string, h Handler) (*Server, error) {
	l, err := net.Listen(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s %s", network, address)
	}

	s := &Server{
		listener: l,
		handler:  h,
		manager:  newConnManager(),
		trace:    ContextServerTrace(ctx),
	}

	s.wg.Add(1)
	go s.acceptLoop()

	return s, nil
}

// Addr returns the listener's bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()

	s.trace.StartAccepting(s.listener.Addr())
	for {
		conn, err := s.listener.Accept()
		s.trace.Accepted(conn, err)
		if err != nil {
			return
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			_ = tc.SetNoDelay(true)
		}
		incConnectionsAccepted()

		connID := uuid.New().String()
		s.trace.ConnectionAssignedID(connID, conn.RemoteAddr())

		remove := s.manager.add(func() { _ = conn.Close() })

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer remove()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection decodes frames from conn until it disconnects or sends
// something undecodable, spawning a per-request goroutine for each one.
// Requests enter dispatch in read order; responses exit in
// handler-completion order, since each per-request goroutine writes to
// the shared QueuedWriter as soon as it finishes, independent of the
// others.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	stream := transport.NewConnStream(conn)
	rh, wh := stream.Split()
	qw := queuedwriter.New(wh)

	var reqWG sync.WaitGroup
	var readErr error

	for {
		bufp := scratchPool.Get().(*[]byte)
		frame, err := wire.Decode(rh, bufp)
		if err != nil {
			scratchPool.Put(bufp)
			readErr = err
			incDecodeErrors()
			break
		}

		reqWG.Add(1)
		incRequestsInFlight()
		go func(f *wire.Frame, bufp *[]byte) {
			defer reqWG.Done()
			defer decRequestsInFlight()
			defer scratchPool.Put(bufp)
			s.dispatch(f, qw)
		}(frame, bufp)
	}

	s.trace.ConnectionClosed(conn.RemoteAddr(), readErr)

	// Let in-flight requests finish and write their responses; a closed
	// connection makes those writes fail harmlessly. We do not block the
	// accept loop or other connections on this.
	reqWG.Wait()
}

func (s *Server) dispatch(f *wire.Frame, qw *queuedwriter.QueuedWriter) {
	rsp := wire.NewRspBuf()
	result := invoke(s.handler, f.RequestPayload(), rsp, s.trace)
	frame := rsp.Finish(f.ID, result)

	if err := qw.Write(frame); err != nil {
		s.trace.WriteError(err)
	}
}

// Close cancels the accept loop and every active connection through the
// connection manager, then returns without waiting for them to finish;
// use Join to wait.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		_ = s.listener.Close()
		s.manager.cancelAll()
	})
}

// Join blocks until the accept loop and every connection and per-request
// task it spawned have returned. Call Close first to trigger shutdown.
func (s *Server) Join() {
	s.wg.Wait()
}

// connCount reports the number of currently tracked connections, for
// tests verifying clean shutdown.
func (s *Server) connCount() int {
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	return len(s.manager.children)
}
