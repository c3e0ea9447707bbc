package transport_test

import (
	"net"
	"testing"
	"time"

	"github.com/damianoneill/rpcframe/internal/mocks"
	"github.com/damianoneill/rpcframe/transport"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnStreamSplitSharesUnderlyingConn(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	s := transport.NewConnStream(client)
	r, w := s.Split()

	go func() {
		_, _ = server.Write([]byte("hello"))
	}()

	buf := make([]byte, 5)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	go func() {
		b := make([]byte, 2)
		_, _ = server.Read(b)
	}()
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)
}

func TestConnStreamSetReadDeadline(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	s := transport.NewConnStream(client)
	require.NoError(t, s.SetReadDeadline(time.Now().Add(10*time.Millisecond)))

	r, _ := s.Split()
	buf := make([]byte, 1)
	_, err := r.Read(buf)
	assert.Error(t, err)
}

func TestMockStreamSatisfiesInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	m := mocks.NewMockStream(ctrl)
	m.EXPECT().Close().Return(nil)

	var s transport.Stream = m
	assert.NoError(t, s.Close())
}
