package socket

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// Kind discriminates the three endpoint flavors the reactor multiplexes.
type Kind int

const (
	KindUndefined Kind = iota
	KindTcpTalker
	KindTcpListener
	KindUdp
)

func (k Kind) String() string {
	switch k {
	case KindTcpTalker:
		return "TcpTalker"
	case KindTcpListener:
		return "TcpListener"
	case KindUdp:
		return "Udp"
	default:
		return "Undefined"
	}
}

// invalidFD is the sentinel meaning "not open", mirroring EPC_INVALID_SOCKET.
const invalidFD = -1

// base is the common socket lifecycle every endpoint embeds: kernel handle
// management, SO_LINGER/O_NONBLOCK setup, address capture, error capture,
// and registration with the owning reactor. It corresponds to
// SPEC_FULL.md C3 (Endpoint base).
type base struct {
	// mu guards lastErr/localAddr/remoteAddr, which the reactor goroutine
	// writes from OnReadable/OnWritable/Connect while application code may
	// read them from LocalAddr/RemoteAddr/LastError on another goroutine.
	mu sync.Mutex

	id       string
	kind     Kind
	family   sockaddr.Family
	sockType int
	protocol int
	fd       int32 // atomic, invalidFD when closed

	lastErr error

	localAddr  *sockaddr.Address
	remoteAddr *sockaddr.Address

	reactor  interfaces.ReactorHandle
	logger   interfaces.Logger
	observer interfaces.Observer
}

func newBase(kind Kind, reactor interfaces.ReactorHandle, logger interfaces.Logger, observer interfaces.Observer) base {
	return base{
		id:       uuid.NewString(),
		kind:     kind,
		fd:       invalidFD,
		reactor:  reactor,
		logger:   logger,
		observer: observer,
	}
}

// ID returns this endpoint's correlation id, used in log fields and metrics.
func (b *base) ID() string { return b.id }

// Kind reports whether this is a talker, listener, or UDP endpoint.
func (b *base) Kind() Kind { return b.kind }

// FD returns the OS file descriptor, or invalidFD if not open.
func (b *base) FD() int { return int(atomic.LoadInt32(&b.fd)) }

// LocalAddr returns the address captured by CaptureLocalAddress, or nil.
func (b *base) LocalAddr() *sockaddr.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.localAddr
}

// RemoteAddr returns the address captured by CaptureRemoteAddress, or nil.
func (b *base) RemoteAddr() *sockaddr.Address {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remoteAddr
}

// LastError returns the most recently captured errno-bearing error.
func (b *base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// setLastErr records an errno-bearing error under the lock.
func (b *base) setLastErr(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

// setRemoteAddr records a caller-supplied remote address under the lock,
// used by TcpTalker.Connect before the reactor can capture one via getpeername.
func (b *base) setRemoteAddr(addr *sockaddr.Address) {
	b.mu.Lock()
	b.remoteAddr = addr
	b.mu.Unlock()
}

// open creates a non-blocking kernel socket of the given family/type/
// protocol and sets SO_LINGER to a zero timeout (so close() sends RST instead
// of lingering). It does not register the endpoint: the concrete type
// registers after open, since the reactor's Register takes the full
// interfaces.Endpoint, not just the base.
func (b *base) open(family sockaddr.Family, sockType, protocol int) error {
	fd, err := unix.Socket(family.ToUnix(), sockType, protocol)
	if err != nil {
		b.setLastErr(err)
		return wrapErrno(ErrUnableToCreateSocket, err)
	}

	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0}); err != nil {
		unix.Close(fd)
		b.setLastErr(err)
		return wrapErrno(ErrUnableToCreateSocket, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		b.setLastErr(err)
		return wrapErrno(ErrUnableToCreateSocket, err)
	}

	b.family = family
	b.sockType = sockType
	b.protocol = protocol
	atomic.StoreInt32(&b.fd, int32(fd))
	return nil
}

// setFD adopts an already-open handle (used by TcpListener.OnReadable after
// accept): applies the same nonblock/linger setup an explicitly opened
// socket gets.
func (b *base) setFD(fd int, family sockaddr.Family) error {
	if err := unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{Onoff: 1, Linger: 0}); err != nil {
		unix.Close(fd)
		return wrapErrno(ErrUnableToCreateSocket, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return wrapErrno(ErrUnableToCreateSocket, err)
	}
	b.family = family
	atomic.StoreInt32(&b.fd, int32(fd))
	return nil
}

// disconnect unregisters from the reactor (if one is set and the endpoint
// exposes itself via self) and closes the OS handle. Idempotent.
func (b *base) disconnect(self interfaces.Endpoint) {
	if b.reactor != nil && self != nil {
		_ = b.reactor.Unregister(self)
	}
	fd := atomic.SwapInt32(&b.fd, invalidFD)
	if fd != invalidFD {
		unix.Close(int(fd))
	}
}

// captureLocalAddress populates localAddr from getsockname.
func (b *base) captureLocalAddress() error {
	sa, err := unix.Getsockname(b.FD())
	if err != nil {
		b.setLastErr(err)
		return wrapErrno(ErrGetPeerNameError, err)
	}
	addr, err := sockaddr.FromSockaddr(sa)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.localAddr = addr
	b.mu.Unlock()
	return nil
}

// captureRemoteAddress populates remoteAddr from getpeername.
func (b *base) captureRemoteAddress() error {
	sa, err := unix.Getpeername(b.FD())
	if err != nil {
		b.setLastErr(err)
		return wrapErrno(ErrGetPeerNameError, err)
	}
	addr, err := sockaddr.FromSockaddr(sa)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.remoteAddr = addr
	b.mu.Unlock()
	return nil
}

// captureSOError reads SO_ERROR off the socket and stores it as lastErr,
// called from the reactor's error-interest dispatch.
func (b *base) captureSOError() error {
	errno, err := unix.GetsockoptInt(b.FD(), unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		b.setLastErr(err)
		return err
	}
	if errno != 0 {
		soErr := unix.Errno(errno)
		b.setLastErr(soErr)
		return soErr
	}
	return nil
}
