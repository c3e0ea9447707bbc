package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
)

// DialTCP connects to address and returns it wrapped as a Stream,
// enabling TCP_NODELAY the way the server's accept loop does for accepted
// connections, so small frames aren't held back by Nagle's algorithm on
// either side of the exchange.
func DialTCP(ctx context.Context, address string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Wrapf(err, "dial tcp %s", address)
	}

	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	return NewConnStream(conn), nil
}
