package socket

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-reactor/internal/sockaddr"
)

func newLoopbackListener(t *testing.T, factory TalkerFactory) *TcpListener {
	t.Helper()
	addr, err := sockaddr.New("127.0.0.1", 0)
	require.NoError(t, err)

	l := NewTcpListener(nil, nil, nil, addr, 16, factory)
	require.NoError(t, l.Listen())
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestTcpListenerAdmissionRefusal(t *testing.T) {
	l := newLoopbackListener(t, func(peer *sockaddr.Address) *TcpTalker {
		return nil // refuse every connection
	})

	port, err := l.localAddr.Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", itoa(port)), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	waitReadable(t, l.FD())
	l.OnReadable()

	assert.Equal(t, ListenerListening, l.State(), "refused admission must not change listener state")

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	n, _ := conn.Read(buf)
	assert.Equal(t, 0, n, "refused connection should see the handle closed, not data")
}

func TestTcpListenerAdmissionAccepted(t *testing.T) {
	var connected *TcpTalker
	handler := &recordingTalkerHandler{}

	l := newLoopbackListener(t, func(peer *sockaddr.Address) *TcpTalker {
		talker := NewTcpTalker(nil, nil, nil, handler, 4096)
		connected = talker
		return talker
	})

	port, err := l.localAddr.Port()
	require.NoError(t, err)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", itoa(port)), time.Second)
	require.NoError(t, err)
	defer conn.Close()

	waitReadable(t, l.FD())
	l.OnReadable()

	require.NotNil(t, connected)
	assert.Equal(t, StateConnected, connected.State())
	assert.True(t, handler.connected)
}

type recordingTalkerHandler struct {
	connected bool
}

func (h *recordingTalkerHandler) OnConnect(t *TcpTalker)        { h.connected = true }
func (h *recordingTalkerHandler) OnReceive(t *TcpTalker)        {}
func (h *recordingTalkerHandler) OnClose(t *TcpTalker)          {}
func (h *recordingTalkerHandler) OnError(t *TcpTalker, _ error) {}
