package server

import (
	"context"
	"net"
	"sync"

	"github.com/pkg/errors"

	"github.com/damianoneill/rpcframe/wire"
)

// udpRecvBufferSize is the per-packet receive buffer. UDP requests are not
// length-delimited the way TCP frames are — the datagram boundary is the
// frame boundary — so this stays well under a typical path MTU rather
// than MaxFrameSize.
const udpRecvBufferSize = 1024

// UDPServer is the connectionless counterpart to Server: every request is
// exactly one datagram in, one datagram out, dispatched through the same
// panic-isolated Handler contract. There is no QueuedWriter here, since
// coalescing would merge multiple clients' responses into a single
// datagram; instead a single write mutex serializes WriteToUDP calls so
// concurrent handler goroutines never interleave partial writes.
type UDPServer struct {
	conn    *net.UDPConn
	handler Handler
	trace   *Trace

	writeMu sync.Mutex

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewUDPServer binds address and starts receiving datagrams in a
// background goroutine, dispatching each decoded request to h.
func NewUDPServer(ctx context.Context, address string, h Handler) (*UDPServer, error) {
	addr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve udp addr %s", address)
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen udp %s", address)
	}

	s := &UDPServer{
		conn:    conn,
		handler: h,
		trace:   ContextServerTrace(ctx),
	}

	s.wg.Add(1)
	go s.receiveLoop()

	return s, nil
}

// Addr returns the bound UDP address.
func (s *UDPServer) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *UDPServer) receiveLoop() {
	defer s.wg.Done()

	s.trace.StartAccepting(s.conn.LocalAddr())

	for {
		buf := make([]byte, udpRecvBufferSize)
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			s.trace.ConnectionClosed(s.conn.LocalAddr(), err)
			return
		}

		frame, err := wire.DecodeBytes(buf[:n])
		if err != nil {
			incDecodeErrors()
			s.trace.Accepted(nil, err)
			continue
		}

		s.wg.Add(1)
		incRequestsInFlight()
		go func(f *wire.Frame, remote *net.UDPAddr) {
			defer s.wg.Done()
			defer decRequestsInFlight()
			s.dispatch(f, remote)
		}(frame, remote)
	}
}

func (s *UDPServer) dispatch(f *wire.Frame, remote *net.UDPAddr) {
	rsp := wire.NewRspBuf()
	result := invoke(s.handler, f.RequestPayload(), rsp, s.trace)
	packet := rsp.Finish(f.ID, result)

	s.writeMu.Lock()
	_, err := s.conn.WriteToUDP(packet, remote)
	s.writeMu.Unlock()

	if err != nil {
		s.trace.WriteError(err)
	}
}

// Close stops the receive loop by closing the underlying socket. It does
// not wait for in-flight dispatch goroutines; use Join for that.
func (s *UDPServer) Close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

// Join blocks until the receive loop and every dispatch goroutine it
// spawned have returned.
func (s *UDPServer) Join() {
	s.wg.Wait()
}
