package socket

import (
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/constants"
	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/ringbuf"
	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// UdpEndpoint is a datagram endpoint whose rings hold whole per-message
// records, preserving datagram boundaries and peer addresses across a
// send/recv cycle: SPEC_FULL.md C6.
type UdpEndpoint struct {
	base

	bound int32 // atomic bool

	readRing  *ringbuf.RingBuffer
	writeRing *ringbuf.RingBuffer

	sendSem chan struct{}
	sending int32

	handler UDPHandler
}

// NewUdpEndpoint creates an unbound UDP endpoint.
func NewUdpEndpoint(reactor interfaces.ReactorHandle, logger interfaces.Logger, observer interfaces.Observer, handler UDPHandler, ringCapacity int) *UdpEndpoint {
	u := &UdpEndpoint{
		base:      newBase(KindUdp, reactor, logger, observer),
		readRing:  ringbuf.New(ringCapacity),
		writeRing: ringbuf.New(ringCapacity),
		sendSem:   make(chan struct{}, 1),
		handler:   handler,
	}
	u.sendSem <- struct{}{}
	return u
}

// Bind opens a socket of local's family and binds to it. Fails with
// ErrAlreadyBound if the endpoint is already open.
func (u *UdpEndpoint) Bind(local *sockaddr.Address) error {
	if atomic.LoadInt32(&u.bound) == 1 {
		return ErrAlreadyBound
	}

	if err := u.open(local.Family(), unix.SOCK_DGRAM, 0); err != nil {
		return err
	}
	if err := unix.Bind(u.FD(), local.Sockaddr()); err != nil {
		u.disconnect(u)
		return wrapErrno(ErrUnableToBindSocket, err)
	}
	if u.reactor != nil {
		if err := u.reactor.Register(u); err != nil {
			u.disconnect(u)
			return err
		}
	}
	if err := u.captureLocalAddress(); err != nil {
		u.disconnect(u)
		return err
	}
	atomic.StoreInt32(&u.bound, 1)
	return nil
}

// BindPort binds the IPv6 wildcard address on port, for "any address"
// listeners.
func (u *UdpEndpoint) BindPort(port uint16) error {
	return u.Bind(sockaddr.Wildcard(port))
}

// Write enqueues one datagram addressed to peer behind its record header,
// as a single atomic batch, then triggers a flush.
func (u *UdpEndpoint) Write(peer *sockaddr.Address, src []byte) error {
	header, err := encodeUDPHeader(len(src), peer)
	if err != nil {
		return err
	}

	u.writeRing.Lock()
	if u.writeRing.UsedLocked()+len(header)+len(src) > u.writeRing.CapacityLocked() {
		u.writeRing.Unlock()
		return ringbuf.ErrAttemptToExceedCapacity
	}
	_ = u.writeRing.Append(header, true)
	_ = u.writeRing.Append(src, true)
	u.writeRing.Unlock()

	if u.reactor != nil {
		_ = u.reactor.Wake()
	}
	return u.flush(false)
}

// flush drains whole datagrams from the write ring into the kernel.
// EMSGSIZE is treated as "message dropped, continue" per SPEC_FULL.md §4.6.
func (u *UdpEndpoint) flush(override bool) error {
	select {
	case <-u.sendSem:
		defer func() { u.sendSem <- struct{}{} }()
	default:
		return nil
	}

	if !override && atomic.LoadInt32(&u.sending) == 1 {
		return nil
	}

	header := make([]byte, udpHeaderSize)
	payload := make([]byte, constants.MaxUDPMessageLength)

	for {
		n, err := u.writeRing.Peek(header, 0, udpHeaderSize)
		if err != nil {
			return err
		}
		if n < udpHeaderSize {
			return nil
		}

		totalLength, dataLength, peer, err := decodeUDPHeader(header)
		if err != nil {
			return err
		}

		if _, err := u.writeRing.Peek(payload[:dataLength], udpHeaderSize, dataLength); err != nil {
			return err
		}

		sendErr := unix.Sendto(u.FD(), payload[:dataLength], 0, peer.Sockaddr())
		if sendErr != nil {
			switch sendErr {
			case unix.EWOULDBLOCK, unix.EAGAIN:
				atomic.StoreInt32(&u.sending, 1)
				return nil
			case unix.EMSGSIZE:
				// silently dropped; still consume and keep draining
			default:
				if u.observer != nil {
					u.observer.ObserveError(u.id, sendErr)
				}
				return wrapErrno(ErrSendingPacket, sendErr)
			}
		} else if u.observer != nil {
			u.observer.ObserveWrite(u.id, uint64(dataLength), true)
		}

		if _, err := u.writeRing.Consume(nil, 0, totalLength); err != nil {
			return err
		}
	}
}

// recv reads datagrams into the read ring, one record per datagram, until
// EWOULDBLOCK.
func (u *UdpEndpoint) recv() (int, error) {
	payload := make([]byte, constants.MaxUDPMessageLength)

	count := 0
	for {
		n, from, err := unix.Recvfrom(u.FD(), payload, 0)
		if err != nil {
			if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
				return count, nil
			}
			if u.observer != nil {
				u.observer.ObserveError(u.id, err)
			}
			return count, wrapErrno(ErrUnableToRecvData, err)
		}

		peer, err := sockaddr.FromSockaddr(from)
		if err != nil {
			continue
		}
		header, err := encodeUDPHeader(n, peer)
		if err != nil {
			continue
		}

		u.readRing.Lock()
		_ = u.readRing.Append(header, true)
		_ = u.readRing.Append(payload[:n], true)
		u.readRing.Unlock()

		count++
		if u.observer != nil {
			u.observer.ObserveRead(u.id, uint64(n), true)
		}
	}
}

// dispatchReceive pops whole records from the read ring and invokes the
// handler's OnReceive once per datagram, preserving boundaries.
func (u *UdpEndpoint) dispatchReceive() {
	header := make([]byte, udpHeaderSize)
	for {
		n, err := u.readRing.Peek(header, 0, udpHeaderSize)
		if err != nil || n < udpHeaderSize {
			return
		}
		totalLength, dataLength, peer, err := decodeUDPHeader(header)
		if err != nil {
			return
		}

		payload := make([]byte, dataLength)
		if _, err := u.readRing.Peek(payload, udpHeaderSize, dataLength); err != nil {
			return
		}
		if _, err := u.readRing.Consume(nil, 0, totalLength); err != nil {
			return
		}

		if u.handler != nil {
			u.handler.OnReceive(u, peer, payload)
		}
	}
}

// WantsWrite implements interfaces.Endpoint.
func (u *UdpEndpoint) WantsWrite() bool {
	return atomic.LoadInt32(&u.sending) == 1
}

// OnReadable implements interfaces.Endpoint.
func (u *UdpEndpoint) OnReadable() {
	if _, err := u.recv(); err != nil {
		if u.handler != nil {
			u.handler.OnError(u, err)
		}
		return
	}
	u.dispatchReceive()
}

// OnWritable implements interfaces.Endpoint.
func (u *UdpEndpoint) OnWritable() {
	atomic.StoreInt32(&u.sending, 0)
	if err := u.flush(true); err != nil && u.handler != nil {
		u.handler.OnError(u, err)
	}
}

// OnErrorReady implements interfaces.Endpoint.
func (u *UdpEndpoint) OnErrorReady() {
	if err := u.captureSOError(); err != nil && u.handler != nil {
		u.handler.OnError(u, err)
	}
}

// Close implements interfaces.Endpoint.
func (u *UdpEndpoint) Close() error {
	u.disconnect(u)
	atomic.StoreInt32(&u.bound, 0)
	return nil
}
