package socket

import (
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// ListenerState mirrors the two states a TcpListener passes through.
type ListenerState int32

const (
	ListenerUndefined ListenerState = iota
	ListenerListening
)

// TcpListener is a passive endpoint that accepts connections and delegates
// talker construction to a user-supplied TalkerFactory: SPEC_FULL.md C5.
type TcpListener struct {
	base

	addr    *sockaddr.Address
	backlog int
	state   ListenerState

	factory TalkerFactory
}

// NewTcpListener creates an unopened listener bound to addr with the given
// backlog, delegating accepted-connection construction to factory.
func NewTcpListener(reactor interfaces.ReactorHandle, logger interfaces.Logger, observer interfaces.Observer, addr *sockaddr.Address, backlog int, factory TalkerFactory) *TcpListener {
	return &TcpListener{
		base:    newBase(KindTcpListener, reactor, logger, observer),
		addr:    addr,
		backlog: backlog,
		factory: factory,
	}
}

// Listen opens a socket of the configured family, binds, and starts
// listening.
func (l *TcpListener) Listen() error {
	if err := l.open(l.addr.Family(), unix.SOCK_STREAM, 0); err != nil {
		return err
	}
	if err := unix.SetsockoptInt(l.FD(), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		l.disconnect(l)
		return wrapErrno(ErrUnableToBindSocket, err)
	}
	if err := unix.Bind(l.FD(), l.addr.Sockaddr()); err != nil {
		l.disconnect(l)
		return wrapErrno(ErrUnableToBindSocket, err)
	}
	if err := unix.Listen(l.FD(), l.backlog); err != nil {
		l.disconnect(l)
		return wrapErrno(ErrUnableToListen, err)
	}

	if l.reactor != nil {
		if err := l.reactor.Register(l); err != nil {
			l.disconnect(l)
			return err
		}
	}
	if err := l.captureLocalAddress(); err != nil {
		l.disconnect(l)
		return err
	}
	l.state = ListenerListening
	return nil
}

// State returns the listener's current state.
func (l *TcpListener) State() ListenerState { return l.state }

// WantsWrite implements interfaces.Endpoint: listeners never want write
// readiness.
func (l *TcpListener) WantsWrite() bool { return false }

// OnReadable implements interfaces.Endpoint: accepts in a loop until
// EWOULDBLOCK, consulting the factory for admission control on each
// accepted handle.
func (l *TcpListener) OnReadable() {
	for {
		fd, sa, err := unix.Accept(l.FD())
		if err != nil {
			if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
				return
			}
			if l.observer != nil {
				l.observer.ObserveError(l.id, wrapErrno(ErrUnableToAcceptSocket, err))
			}
			return
		}

		peer, addrErr := sockaddr.FromSockaddr(sa)
		if addrErr != nil {
			unix.Close(fd)
			continue
		}

		if l.factory == nil {
			unix.Close(fd)
			if l.observer != nil {
				l.observer.ObserveAccept(l.id, false)
			}
			continue
		}
		talker := l.factory(peer)
		if talker == nil {
			unix.Close(fd) // admission refused
			if l.observer != nil {
				l.observer.ObserveAccept(l.id, false)
			}
			continue
		}

		if err := talker.adopt(fd, l.addr.Family()); err != nil {
			unix.Close(fd)
			if l.observer != nil {
				l.observer.ObserveAccept(l.id, false)
				l.observer.ObserveError(l.id, err)
			}
			continue
		}
		if l.observer != nil {
			l.observer.ObserveAccept(l.id, true)
		}
		if talker.handler != nil {
			talker.handler.OnConnect(talker)
		}
	}
}

// OnWritable implements interfaces.Endpoint; listeners are never in the
// write-interest set so this is never called, kept only to satisfy the
// interface.
func (l *TcpListener) OnWritable() {}

// OnErrorReady implements interfaces.Endpoint.
func (l *TcpListener) OnErrorReady() {
	if err := l.captureSOError(); err != nil && l.observer != nil {
		l.observer.ObserveError(l.id, err)
	}
}

// Close implements interfaces.Endpoint.
func (l *TcpListener) Close() error {
	l.disconnect(l)
	l.state = ListenerUndefined
	return nil
}
