// Package transport defines the duplex byte stream contract the client
// and server engines are built against: any net.Conn-backed flavor (TCP,
// Unix-domain) that can be split into read/write halves and have a read
// deadline set. Authenticated/encrypted transport selection is out of
// scope.
package transport

import (
	"io"
	"net"
	"time"
)

// ReadHalf is the read side of a split Stream.
type ReadHalf interface {
	io.Reader
}

// WriteHalf is the write side of a split Stream.
type WriteHalf interface {
	io.Writer
}

// Stream describes any duplex byte stream that can be split into
// independent read and write halves and have a read deadline set. Both
// the multiplex client (which hands the write half to a QueuedWriter and
// the read half to a background reader goroutine) and the server engine
// (same split, per connection) are built only against this interface.
type Stream interface {
	io.Closer

	// Split returns independent read and write halves of the stream. For
	// a net.Conn-backed implementation these both wrap the same
	// underlying connection: net.Conn already supports concurrent Read
	// and Write from different goroutines, so handing out the same
	// conn as both halves is sufficient and needs no separate teardown.
	Split() (ReadHalf, WriteHalf)

	// SetReadDeadline sets the deadline for future Read calls on the
	// read half. A zero value disables the deadline.
	SetReadDeadline(t time.Time) error
}

// connStream adapts any net.Conn to Stream.
type connStream struct {
	conn net.Conn
}

// NewConnStream wraps a net.Conn (TCP, Unix-domain, or any other net.Conn
// implementation) as a Stream.
func NewConnStream(conn net.Conn) Stream {
	return &connStream{conn: conn}
}

func (c *connStream) Split() (ReadHalf, WriteHalf) {
	return c.conn, c.conn
}

func (c *connStream) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *connStream) Close() error {
	return c.conn.Close()
}
