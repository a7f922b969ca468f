package reactor

import "sync"

// RecordingTalkerHandler is a TalkerHandler that records every callback
// invocation and the bytes seen on receive, for use in tests that exercise
// a Reactor's TCP path without writing a bespoke handler each time.
type RecordingTalkerHandler struct {
	mu sync.Mutex

	connectCalls int
	closeCalls   int
	errors       []error
	received     []byte

	// OnReceiveFunc, when set, is invoked in place of the default
	// drain-into-received behavior, letting a test echo or otherwise react
	// to incoming bytes.
	OnReceiveFunc func(t *TcpTalker)
}

// OnConnect implements TalkerHandler.
func (h *RecordingTalkerHandler) OnConnect(t *TcpTalker) {
	h.mu.Lock()
	h.connectCalls++
	h.mu.Unlock()
}

// OnReceive implements TalkerHandler: by default it drains the talker's
// read ring into Received(); set OnReceiveFunc to override.
func (h *RecordingTalkerHandler) OnReceive(t *TcpTalker) {
	if h.OnReceiveFunc != nil {
		h.OnReceiveFunc(t)
		return
	}
	buf := make([]byte, 4096)
	for {
		n, err := t.ReadRing().Consume(buf, 0, len(buf))
		if err != nil || n == 0 {
			return
		}
		h.mu.Lock()
		h.received = append(h.received, buf[:n]...)
		h.mu.Unlock()
	}
}

// OnClose implements TalkerHandler.
func (h *RecordingTalkerHandler) OnClose(t *TcpTalker) {
	h.mu.Lock()
	h.closeCalls++
	h.mu.Unlock()
}

// OnError implements TalkerHandler.
func (h *RecordingTalkerHandler) OnError(t *TcpTalker, err error) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
}

// Connects reports how many times OnConnect fired.
func (h *RecordingTalkerHandler) Connects() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connectCalls
}

// Closes reports how many times OnClose fired.
func (h *RecordingTalkerHandler) Closes() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

// Errors returns a copy of every error OnError has observed.
func (h *RecordingTalkerHandler) Errors() []error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]error(nil), h.errors...)
}

// Received returns a copy of every byte OnReceive has drained so far.
func (h *RecordingTalkerHandler) Received() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.received...)
}

// udpDatagram is one recorded inbound datagram: a peer address plus payload.
type udpDatagram struct {
	Peer    *Address
	Payload []byte
}

// RecordingUDPHandler is a UDPHandler that records every inbound datagram
// with its peer address and payload, preserving call order and boundaries.
type RecordingUDPHandler struct {
	mu        sync.Mutex
	datagrams []udpDatagram
	errors    []error

	// OnReceiveFunc, when set, is invoked in place of the default
	// record-only behavior.
	OnReceiveFunc func(u *UdpEndpoint, peer *Address, payload []byte)
}

// OnReceive implements UDPHandler.
func (h *RecordingUDPHandler) OnReceive(u *UdpEndpoint, peer *Address, payload []byte) {
	h.mu.Lock()
	h.datagrams = append(h.datagrams, udpDatagram{Peer: peer, Payload: append([]byte(nil), payload...)})
	h.mu.Unlock()
	if h.OnReceiveFunc != nil {
		h.OnReceiveFunc(u, peer, payload)
	}
}

// OnError implements UDPHandler.
func (h *RecordingUDPHandler) OnError(u *UdpEndpoint, err error) {
	h.mu.Lock()
	h.errors = append(h.errors, err)
	h.mu.Unlock()
}

// Datagrams returns the payload of every recorded datagram, in arrival
// order.
func (h *RecordingUDPHandler) Datagrams() [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]byte, len(h.datagrams))
	for i, d := range h.datagrams {
		out[i] = d.Payload
	}
	return out
}

// Count reports how many datagrams have been recorded.
func (h *RecordingUDPHandler) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.datagrams)
}

var (
	_ TalkerHandler = (*RecordingTalkerHandler)(nil)
	_ UDPHandler    = (*RecordingUDPHandler)(nil)
)
