package reactor

import (
	"errors"
	"fmt"
	"syscall"

	internalreactor "github.com/behrlich/go-reactor/internal/reactor"
	"github.com/behrlich/go-reactor/internal/ringbuf"
	"github.com/behrlich/go-reactor/internal/sockaddr"
	"github.com/behrlich/go-reactor/internal/socket"
)

// ErrCode is the public, stable error category every Error carries,
// mirroring the taxonomy in SPEC_FULL.md §7. Codes are comparable labels,
// not sentinel values — callers should match on Code via IsCode, or on the
// wrapped internal sentinel via errors.Is.
type ErrCode string

const (
	ErrCodeUnknownAddressType       ErrCode = "unknown address type"
	ErrCodeCannotConvertInetToInet6 ErrCode = "cannot convert inet to inet6"
	ErrCodeCannotConvertInet6ToInet ErrCode = "cannot convert inet6 to inet"
	ErrCodeConvertingToString       ErrCode = "converting address to string"
	ErrCodeUndefinedFamily          ErrCode = "undefined address family"

	ErrCodeUnableToCreateSocket ErrCode = "unable to create socket"
	ErrCodeGetPeerNameError     ErrCode = "unable to capture address"

	ErrCodeInvalidRemoteAddress     ErrCode = "invalid remote address"
	ErrCodeUnableToConnect          ErrCode = "unable to connect"
	ErrCodeUnableToRecvData         ErrCode = "unable to receive data"
	ErrCodeInvalidSendState         ErrCode = "invalid send state"
	ErrCodeReadingWritePacketLength ErrCode = "reading or writing packet length"
	ErrCodeSendingPacket            ErrCode = "error sending packet"

	ErrCodeUnableToListen       ErrCode = "unable to listen"
	ErrCodeUnableToBindSocket   ErrCode = "unable to bind socket"
	ErrCodeUnableToAcceptSocket ErrCode = "unable to accept socket"

	ErrCodeAlreadyBound ErrCode = "endpoint already bound"

	ErrCodeUnableToOpenPipe  ErrCode = "unable to open wake pipe"
	ErrCodeUnableToReadPipe  ErrCode = "unable to read wake pipe"
	ErrCodeUnableToWritePipe ErrCode = "unable to write wake pipe"

	ErrCodeHeadAndTailOutOfSync      ErrCode = "ring head and tail out of sync"
	ErrCodeUsedLessThanZero          ErrCode = "ring used less than zero"
	ErrCodeTailExceededCapacity      ErrCode = "ring tail exceeded capacity"
	ErrCodeAttemptToExceedCapacity   ErrCode = "ring attempt to exceed capacity"
	ErrCodeBufferSizeHasBeenExceeded ErrCode = "ring buffer size has been exceeded"
	ErrCodeHeadHasExceededCapacity   ErrCode = "ring head has exceeded capacity"
	ErrCodeModifyOutsideBufferBounds ErrCode = "ring modify outside current buffer bounds"

	ErrCodeUnknown ErrCode = "unknown error"
)

// Error is the structured error every public operation in this module
// returns: an operation name, an endpoint correlation id when one applies,
// a stable Code for programmatic matching, the kernel errno when one was
// involved, and the wrapped internal error for errors.Is/As against the
// package-level sentinels in internal/ringbuf, internal/sockaddr,
// internal/socket, and internal/reactor.
type Error struct {
	Op       string
	Endpoint string
	Code     ErrCode
	Errno    syscall.Errno
	Msg      string
	Inner    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Code)
	}
	switch {
	case e.Op != "" && e.Endpoint != "":
		return fmt.Sprintf("reactor: %s: op=%s endpoint=%s", msg, e.Op, e.Endpoint)
	case e.Op != "":
		return fmt.Sprintf("reactor: %s: op=%s", msg, e.Op)
	default:
		return fmt.Sprintf("reactor: %s", msg)
	}
}

// Unwrap exposes the wrapped internal error so errors.Is(err,
// ringbuf.ErrAttemptToExceedCapacity) (for example) keeps working across
// the public boundary.
func (e *Error) Unwrap() error { return e.Inner }

// Is reports whether target is an *Error with the same Code, letting
// callers compare against a code-only Error{Code: ErrCodeUnableToConnect}
// without constructing a full value.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == te.Code
}

// IsCode reports whether err is, or wraps, an *Error carrying code.
func IsCode(err error, code ErrCode) bool {
	var re *Error
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// wrapOp classifies an internal error against the known sentinels in
// internal/ringbuf, internal/sockaddr, internal/socket, and
// internal/reactor, and wraps it as a public *Error carrying op and the
// originating endpoint's correlation id. Unrecognized errors pass through
// with ErrCodeUnknown rather than being silently dropped.
func wrapOp(op, endpoint string, err error) *Error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*Error); ok {
		return re
	}

	e := &Error{Op: op, Endpoint: endpoint, Inner: err, Msg: err.Error(), Code: classify(err)}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		e.Errno = errno
	}
	return e
}

var sentinelCodes = []struct {
	sentinel error
	code     ErrCode
}{
	{sockaddr.ErrUnknownAddressType, ErrCodeUnknownAddressType},
	{sockaddr.ErrUndefinedFamily, ErrCodeUndefinedFamily},

	{socket.ErrUnableToCreateSocket, ErrCodeUnableToCreateSocket},
	{socket.ErrGetPeerNameError, ErrCodeGetPeerNameError},
	{socket.ErrInvalidRemoteAddress, ErrCodeInvalidRemoteAddress},
	{socket.ErrUnableToConnect, ErrCodeUnableToConnect},
	{socket.ErrUnableToRecvData, ErrCodeUnableToRecvData},
	{socket.ErrInvalidSendState, ErrCodeInvalidSendState},
	{socket.ErrSendingPacket, ErrCodeSendingPacket},
	{socket.ErrUnableToListen, ErrCodeUnableToListen},
	{socket.ErrUnableToBindSocket, ErrCodeUnableToBindSocket},
	{socket.ErrUnableToAcceptSocket, ErrCodeUnableToAcceptSocket},
	{socket.ErrAlreadyBound, ErrCodeAlreadyBound},

	{internalreactor.ErrUnableToOpenPipe, ErrCodeUnableToOpenPipe},
	{internalreactor.ErrUnableToReadPipe, ErrCodeUnableToReadPipe},
	{internalreactor.ErrUnableToWritePipe, ErrCodeUnableToWritePipe},

	{ringbuf.ErrHeadAndTailOutOfSync, ErrCodeHeadAndTailOutOfSync},
	{ringbuf.ErrUsedLessThanZero, ErrCodeUsedLessThanZero},
	{ringbuf.ErrTailExceededCapacity, ErrCodeTailExceededCapacity},
	{ringbuf.ErrAttemptToExceedCapacity, ErrCodeAttemptToExceedCapacity},
	{ringbuf.ErrBufferSizeHasBeenExceeded, ErrCodeBufferSizeHasBeenExceeded},
	{ringbuf.ErrHeadExceededCapacity, ErrCodeHeadHasExceededCapacity},
	{ringbuf.ErrModifyOutOfBounds, ErrCodeModifyOutsideBufferBounds},
}

func classify(err error) ErrCode {
	for _, sc := range sentinelCodes {
		if errors.Is(err, sc.sentinel) {
			return sc.code
		}
	}
	return ErrCodeUnknown
}
