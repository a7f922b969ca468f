package reactor

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordingTalkerHandlerDrainsReceivedBytes(t *testing.T) {
	r, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	handler := &RecordingTalkerHandler{}
	listener, err := r.Listen("127.0.0.1", 0, 0, func(peer *Address) *TcpTalker {
		return r.NewTalker(handler, 0)
	})
	require.NoError(t, err)

	port, err := listener.LocalAddr().Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("abc"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return string(handler.Received()) == "abc"
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, 1, handler.Connects())
}

func TestRecordingUDPHandlerRecordsDatagramsInOrder(t *testing.T) {
	r, err := New(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	handler := &RecordingUDPHandler{}
	endpoint, err := r.NewUDP("", 0, handler, 0)
	require.NoError(t, err)

	port, err := endpoint.LocalAddr().Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("one"))
	require.NoError(t, err)
	_, err = conn.Write([]byte("longer"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return handler.Count() == 2
	}, 2*time.Second, 10*time.Millisecond)

	datagrams := handler.Datagrams()
	require.Equal(t, "one", string(datagrams[0]))
	require.Equal(t, "longer", string(datagrams[1]))
}
