package reactor

import (
	"context"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// echoHandler echoes every received chunk back to the peer and records
// call counts for assertions.
type echoHandler struct {
	mu        sync.Mutex
	connected int
	closed    int
	received  []byte
}

func (h *echoHandler) OnConnect(t *TcpTalker) {
	h.mu.Lock()
	h.connected++
	h.mu.Unlock()
}

func (h *echoHandler) OnReceive(t *TcpTalker) {
	buf := make([]byte, 4096)
	n, _ := t.ReadRing().Consume(buf, 0, 4096)
	h.mu.Lock()
	h.received = append(h.received, buf[:n]...)
	h.mu.Unlock()
	_ = t.Write(buf[:n])
}

func (h *echoHandler) OnClose(t *TcpTalker) {
	h.mu.Lock()
	h.closed++
	h.mu.Unlock()
}

func (h *echoHandler) OnError(t *TcpTalker, _ error) {}

func TestReactorListenAndEchoOverTcp(t *testing.T) {
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

	handler := &echoHandler{}
	listener, err := r.Listen("127.0.0.1", 0, 0, func(peer *Address) *TcpTalker {
		return r.NewTalker(handler, 0)
	})
	require.NoError(t, err)

	port, err := listener.LocalAddr().Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("hello"))
	require.NoError(t, err)

	reply := make([]byte, 5)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, err = io.ReadFull(conn, reply)
	require.NoError(t, err)
	require.Equal(t, "hello", string(reply))

	snap := r.Metrics().Snapshot()
	require.GreaterOrEqual(t, snap.ReadOps, uint64(1))
	require.GreaterOrEqual(t, snap.WriteOps, uint64(1))
}

func TestReactorUDPEcho(t *testing.T) {
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

	var mu sync.Mutex
	var gotPeer *Address
	var gotPayload []byte
	handler := udpHandlerFunc{
		onReceive: func(u *UdpEndpoint, peer *Address, payload []byte) {
			mu.Lock()
			gotPeer = peer
			gotPayload = append([]byte(nil), payload...)
			mu.Unlock()
			_ = u.Write(peer, payload)
		},
	}

	endpoint, err := r.NewUDP("", 0, handler, 0)
	require.NoError(t, err)

	port, err := endpoint.LocalAddr().Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("udp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	reply := make([]byte, 4)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, err := conn.Read(reply)
	require.NoError(t, err)
	require.Equal(t, "ping", string(reply[:n]))

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, gotPeer)
	require.Equal(t, "ping", string(gotPayload))
}

type udpHandlerFunc struct {
	onReceive func(u *UdpEndpoint, peer *Address, payload []byte)
}

func (h udpHandlerFunc) OnReceive(u *UdpEndpoint, peer *Address, payload []byte) {
	if h.onReceive != nil {
		h.onReceive(u, peer, payload)
	}
}

func (h udpHandlerFunc) OnError(u *UdpEndpoint, _ error) {}
