package socket

import (
	"errors"
	"fmt"
)

// wrapErrno pairs a sentinel with the underlying syscall error so callers
// can both errors.Is(err, ErrUnableToCreateSocket) and inspect the errno.
func wrapErrno(sentinel, errno error) error {
	return fmt.Errorf("%w: %v", sentinel, errno)
}

// Sentinel errors raised by the endpoint, talker, listener, and UDP
// operations, mirroring the error taxonomy in SPEC_FULL.md §7. The root
// package's Listen, DialTCP and NewUDP wrap them into *reactor.Error; other
// methods (Write, handler OnError callbacks) pass them through unwrapped.
// Callers match on these with errors.Is.
var (
	// ErrUnableToCreateSocket is raised when the kernel socket() call fails.
	ErrUnableToCreateSocket = errors.New("socket: unable to create socket")

	// ErrGetPeerNameError is raised when capturing a local or remote
	// address via getsockname/getpeername fails.
	ErrGetPeerNameError = errors.New("socket: unable to capture address")

	// ErrInvalidRemoteAddress is raised by TcpTalker.Connect when the
	// remote address's family is neither INET nor INET6.
	ErrInvalidRemoteAddress = errors.New("socket: invalid remote address")

	// ErrUnableToConnect is raised when a non-blocking connect fails with
	// an errno other than EINPROGRESS/EWOULDBLOCK.
	ErrUnableToConnect = errors.New("socket: unable to connect")

	// ErrUnableToRecvData is raised when a talker or UDP recv fails with
	// an errno other than EWOULDBLOCK/EAGAIN.
	ErrUnableToRecvData = errors.New("socket: unable to receive data")

	// ErrInvalidSendState is raised when flush is entered while the
	// talker is not Connected — a programming error, not a transient
	// condition.
	ErrInvalidSendState = errors.New("socket: invalid send state")

	// ErrSendingPacket is raised when a send/sendto fails with an errno
	// other than EWOULDBLOCK/EAGAIN (and, for UDP, other than EMSGSIZE).
	ErrSendingPacket = errors.New("socket: error sending packet")

	// ErrUnableToListen is raised when the kernel listen() call fails.
	ErrUnableToListen = errors.New("socket: unable to listen")

	// ErrUnableToBindSocket is raised when the kernel bind() call fails.
	ErrUnableToBindSocket = errors.New("socket: unable to bind socket")

	// ErrUnableToAcceptSocket is reported to the listener's Observer when
	// accept() fails with an errno other than EWOULDBLOCK/EAGAIN.
	ErrUnableToAcceptSocket = errors.New("socket: unable to accept socket")

	// ErrAlreadyBound is raised when Bind is called on a UDP endpoint that
	// is already open.
	ErrAlreadyBound = errors.New("socket: endpoint already bound")
)
