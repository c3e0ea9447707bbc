//go:build unix

package transport

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DialUnix connects to a Unix-domain socket at path and returns it wrapped
// as a Stream. Unix-domain sockets are available on the platforms the
// unix build tag covers; Windows callers should use DialTCP instead.
func DialUnix(ctx context.Context, path string) (Stream, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "dial unix %s", path)
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		if serr := setSocketBuffers(uc, socketBufferSize); serr != nil {
			return nil, errors.Wrap(serr, "set socket buffers")
		}
	}

	return NewConnStream(conn), nil
}

// socketBufferSize is the kernel send/receive buffer size DialUnix applies
// to the Unix-domain sockets it dials. RPC traffic on a local socket
// tends to arrive in short, many-frame bursts (see queuedwriter's
// coalescing writer), so a buffer well above the kernel default reduces
// the chance of a stalled peer backing up the accept loop.
const socketBufferSize = 256 * 1024

// setSocketBuffers sets SO_RCVBUF and SO_SNDBUF on conn's underlying file
// descriptor via the raw syscall conn, since net.UnixConn exposes no
// portable setter for these options.
func setSocketBuffers(conn *net.UnixConn, bytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return errors.Wrap(err, "syscall conn")
	}

	var setErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, bytes); err != nil {
			setErr = errors.Wrap(err, "SO_RCVBUF")
			return
		}
		if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, bytes); err != nil {
			setErr = errors.Wrap(err, "SO_SNDBUF")
		}
	})
	if ctrlErr != nil {
		return errors.Wrap(ctrlErr, "control")
	}
	return setErr
}
