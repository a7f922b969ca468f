package reactor

import (
	"context"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/sockaddr"
	"github.com/behrlich/go-reactor/internal/socket"
)

func TestMailboxQuitEndsDrain(t *testing.T) {
	mb := NewMailbox()
	mb.Post("one")
	mb.Post(Quit)
	mb.Post("never seen")

	var handled []any
	r := &Reactor{msgHandler: MessageHandlerFunc(func(msg any) { handled = append(handled, msg) }), mailbox: mb}

	quit := r.drainMailbox()
	assert.True(t, quit)
	assert.Equal(t, []any{"one"}, handled)
	assert.True(t, mb.Empty())
}

func TestMailboxDrainWithoutQuit(t *testing.T) {
	mb := NewMailbox()
	mb.Post(1)
	mb.Post(2)

	var sum int
	r := &Reactor{msgHandler: MessageHandlerFunc(func(msg any) { sum += msg.(int) }), mailbox: mb}

	quit := r.drainMailbox()
	assert.False(t, quit)
	assert.Equal(t, 3, sum)
}

func TestFdSetHelpers(t *testing.T) {
	var set unix.FdSet
	fdSet(&set, 5)
	fdSet(&set, 70)
	assert.True(t, fdIsSet(&set, 5))
	assert.True(t, fdIsSet(&set, 70))
	assert.False(t, fdIsSet(&set, 6))
}

// TestEchoOverTcp exercises the registration -> accept -> receive ->
// dispatch path with a running reactor and a real loopback connection, then
// checks that cancelling the context shuts the reactor down.
func TestEchoOverTcp(t *testing.T) {
	r, err := New(nil, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	var mu sync.Mutex
	var received []byte
	handler := &funcTalkerHandler{
		onReceive: func(tk *socket.TcpTalker) {
			buf := make([]byte, 4096)
			n, _ := tk.ReadRing().Consume(buf, 0, 4096)
			mu.Lock()
			received = append(received, buf[:n]...)
			mu.Unlock()
		},
	}

	addr, err := sockaddr.New("127.0.0.1", 0)
	require.NoError(t, err)

	listener := socket.NewTcpListener(r, nil, nil, addr, 16, func(peer *sockaddr.Address) *socket.TcpTalker {
		return socket.NewTcpTalker(r, nil, nil, handler, 4096)
	})
	require.NoError(t, listener.Listen())

	port := listenerPort(t, listener)

	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(int(port))), 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("ping"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return string(received) == "ping"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reactor did not shut down after context cancellation")
	}
}

type funcTalkerHandler struct {
	onReceive func(t *socket.TcpTalker)
}

func (h *funcTalkerHandler) OnConnect(t *socket.TcpTalker) {}
func (h *funcTalkerHandler) OnReceive(t *socket.TcpTalker) {
	if h.onReceive != nil {
		h.onReceive(t)
	}
}
func (h *funcTalkerHandler) OnClose(t *socket.TcpTalker)        {}
func (h *funcTalkerHandler) OnError(t *socket.TcpTalker, _ error) {}

func listenerPort(t *testing.T, l *socket.TcpListener) uint16 {
	t.Helper()
	addr := l.LocalAddr()
	require.NotNil(t, addr)
	port, err := addr.Port()
	require.NoError(t, err)
	return port
}
