package socket

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/constants"
	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/ringbuf"
	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// State is a TcpTalker's connection state, per the state machine in
// SPEC_FULL.md §4.4.
type State int32

const (
	StateUndefined State = iota
	StateDisconnected
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNDEFINED"
	}
}

// TcpTalker is a bidirectional byte-stream endpoint: SPEC_FULL.md C4. Writes
// are length-prefixed internally so a partial kernel send can be resumed;
// the wire only ever carries the caller's unframed payload.
type TcpTalker struct {
	base

	state int32 // State, accessed atomically

	readRing  *ringbuf.RingBuffer
	writeRing *ringbuf.RingBuffer

	sendSem chan struct{} // 1-buffered: non-blocking try-lock for flush
	sending int32         // atomic bool

	handler TalkerHandler
}

// NewTcpTalker creates an unopened talker. ringCapacity sizes both the read
// and write rings.
func NewTcpTalker(reactor interfaces.ReactorHandle, logger interfaces.Logger, observer interfaces.Observer, handler TalkerHandler, ringCapacity int) *TcpTalker {
	t := &TcpTalker{
		base:      newBase(KindTcpTalker, reactor, logger, observer),
		readRing:  ringbuf.New(ringCapacity),
		writeRing: ringbuf.New(ringCapacity),
		sendSem:   make(chan struct{}, 1),
		handler:   handler,
	}
	t.sendSem <- struct{}{}
	atomic.StoreInt32(&t.state, int32(StateUndefined))
	return t
}

// State returns the talker's current connection state.
func (t *TcpTalker) State() State {
	return State(atomic.LoadInt32(&t.state))
}

func (t *TcpTalker) setState(s State) {
	atomic.StoreInt32(&t.state, int32(s))
}

// Connect opens a socket of remote's family and issues a non-blocking
// connect.
func (t *TcpTalker) Connect(remote *sockaddr.Address) error {
	if remote.Family() != sockaddr.INET && remote.Family() != sockaddr.INET6 {
		return ErrInvalidRemoteAddress
	}

	if err := t.open(remote.Family(), unix.SOCK_STREAM, 0); err != nil {
		return err
	}
	if t.reactor != nil {
		if err := t.reactor.Register(t); err != nil {
			t.disconnect(t)
			return err
		}
	}
	t.setState(StateDisconnected)

	err := unix.Connect(t.FD(), remote.Sockaddr())
	switch {
	case err == nil:
		t.setState(StateConnected)
		_ = t.captureLocalAddress()
		t.setRemoteAddr(remote)
		if t.handler != nil {
			t.handler.OnConnect(t)
		}
		return nil
	case err == unix.EINPROGRESS || err == unix.EWOULDBLOCK:
		t.setState(StateConnecting)
		t.setRemoteAddr(remote)
		if t.reactor != nil {
			_ = t.reactor.Wake()
		}
		return nil
	default:
		t.setLastErr(err)
		t.disconnect(t)
		t.setState(StateUndefined)
		return wrapErrno(ErrUnableToConnect, err)
	}
}

// adopt wires an accepted fd into this (factory-constructed, unopened)
// talker, as TcpListener.OnReadable does for each accepted connection.
func (t *TcpTalker) adopt(fd int, family sockaddr.Family) error {
	if err := t.setFD(fd, family); err != nil {
		return err
	}
	if t.reactor != nil {
		if err := t.reactor.Register(t); err != nil {
			return err
		}
	}
	if err := t.captureLocalAddress(); err != nil {
		return err
	}
	if err := t.captureRemoteAddress(); err != nil {
		return err
	}
	t.setState(StateConnected)
	return nil
}

// Write enqueues src on the write ring behind its length prefix, as a
// single atomic batch, then triggers a flush. The append is all-or-nothing:
// if the combined header+payload would exceed ring capacity, neither is
// written.
func (t *TcpTalker) Write(src []byte) error {
	t.writeRing.Lock()
	if t.writeRing.UsedLocked()+lengthPrefixSize+len(src) > t.writeRing.CapacityLocked() {
		t.writeRing.Unlock()
		return ringbuf.ErrAttemptToExceedCapacity
	}
	_ = t.writeRing.Append(encodeLengthPrefix(len(src)), true)
	_ = t.writeRing.Append(src, true)
	t.writeRing.Unlock()

	if t.reactor != nil {
		_ = t.reactor.Wake()
	}
	return t.flush(false)
}

// flush drains the write ring into the kernel. override bypasses the
// sending guard; the reactor calls flush(true) on observed write-readiness,
// everyone else calls flush(false).
func (t *TcpTalker) flush(override bool) error {
	select {
	case <-t.sendSem:
		defer func() { t.sendSem <- struct{}{} }()
	default:
		return nil // another drain is already in progress
	}

	if !override && atomic.LoadInt32(&t.sending) == 1 {
		return nil
	}

	if t.State() != StateConnected {
		return ErrInvalidSendState
	}

	header := make([]byte, lengthPrefixSize)
	chunk := make([]byte, constants.SendChunkSize)

	for {
		n, err := t.writeRing.Peek(header, 0, lengthPrefixSize)
		if err != nil {
			return err
		}
		if n < lengthPrefixSize {
			return nil // ring empty
		}
		recordLen := decodeLengthPrefix(header)

		payloadLen := recordLen
		if payloadLen > constants.SendChunkSize {
			payloadLen = constants.SendChunkSize
		}
		n, err = t.writeRing.Peek(chunk, lengthPrefixSize, payloadLen)
		if err != nil {
			return err
		}

		sent, sendErr := sendWithCount(t.FD(), chunk[:n], unix.MSG_NOSIGNAL)
		if sendErr != nil {
			if sendErr == unix.EWOULDBLOCK || sendErr == unix.EAGAIN {
				atomic.StoreInt32(&t.sending, 1)
				return nil
			}
			if t.observer != nil {
				t.observer.ObserveError(t.id, sendErr)
			}
			return wrapErrno(ErrSendingPacket, sendErr)
		}

		if t.observer != nil {
			t.observer.ObserveWrite(t.id, uint64(sent), true)
		}

		if sent < recordLen {
			residual := recordLen - sent
			if _, err := t.writeRing.Consume(nil, 0, sent); err != nil {
				return err
			}
			if err := t.writeRing.Modify(encodeLengthPrefix(residual), 0, false); err != nil {
				return err
			}
			atomic.StoreInt32(&t.sending, 1)
			return nil
		}

		if _, err := t.writeRing.Consume(nil, 0, lengthPrefixSize+recordLen); err != nil {
			return err
		}
	}
}

// recv reads as much as the kernel currently has, appending each chunk to
// the read ring, and returns the total bytes read. When the kernel reports
// peer EOF, recv moves the talker to StateDisconnected.
func (t *TcpTalker) recv() (int, error) {
	buf := getScratch()
	defer putScratch(buf)

	total := 0
	for {
		n, err := unix.Read(t.FD(), buf)
		if err != nil {
			if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
				return total, nil
			}
			if t.observer != nil {
				t.observer.ObserveError(t.id, err)
			}
			return total, wrapErrno(ErrUnableToRecvData, err)
		}
		if n == 0 {
			t.setState(StateDisconnected) // peer EOF
			return total, nil
		}
		if err := t.readRing.Append(buf[:n], false); err != nil {
			return total, err
		}
		total += n
		if t.observer != nil {
			t.observer.ObserveRead(t.id, uint64(n), true)
		}
		if n < len(buf) {
			return total, nil
		}
	}
}

// ReadRing exposes the receive ring so application code can peek/consume
// inbound bytes from within OnReceive.
func (t *TcpTalker) ReadRing() *ringbuf.RingBuffer { return t.readRing }

// WriteRing exposes the write ring, primarily for tests asserting on
// in-flight framing.
func (t *TcpTalker) WriteRing() *ringbuf.RingBuffer { return t.writeRing }

// WantsWrite implements interfaces.Endpoint.
func (t *TcpTalker) WantsWrite() bool {
	return atomic.LoadInt32(&t.sending) == 1 || t.State() == StateConnecting
}

// OnReadable implements interfaces.Endpoint: the Connecting->Connected
// transition (write-ready would also do this, but a simultaneous read
// event takes priority since the reactor dispatches read before write),
// then drains recv and fires onReceive/onClose.
func (t *TcpTalker) OnReadable() {
	if t.State() == StateConnecting {
		t.setState(StateConnected)
		_ = t.captureLocalAddress()
		_ = t.captureRemoteAddress()
		if t.handler != nil {
			t.handler.OnConnect(t)
		}
	}

	n, err := t.recv()
	if err != nil {
		if t.handler != nil {
			t.handler.OnError(t, err)
		}
		return
	}
	if n > 0 && t.handler != nil {
		t.handler.OnReceive(t)
	}
	if t.State() == StateDisconnected {
		if t.handler != nil {
			t.handler.OnClose(t)
		}
	}
}

// OnWritable implements interfaces.Endpoint.
func (t *TcpTalker) OnWritable() {
	if t.State() == StateConnecting {
		t.setState(StateConnected)
		_ = t.captureLocalAddress()
		_ = t.captureRemoteAddress()
		if t.handler != nil {
			t.handler.OnConnect(t)
		}
		return
	}
	atomic.StoreInt32(&t.sending, 0)
	if err := t.flush(true); err != nil && t.handler != nil {
		t.handler.OnError(t, err)
	}
}

// OnErrorReady implements interfaces.Endpoint.
func (t *TcpTalker) OnErrorReady() {
	if err := t.captureSOError(); err != nil && t.handler != nil {
		t.handler.OnError(t, err)
	}
}

// Close implements interfaces.Endpoint: disconnect then fire onClose.
func (t *TcpTalker) Close() error {
	t.disconnect(t)
	t.setState(StateUndefined)
	if t.handler != nil {
		t.handler.OnClose(t)
	}
	return nil
}
