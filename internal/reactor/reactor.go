package reactor

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"

	"github.com/behrlich/go-reactor/internal/constants"
	"github.com/behrlich/go-reactor/internal/interfaces"
)

// ErrorHandler receives errors the reactor itself encounters (a select(2)
// failure unrelated to any one endpoint, or a wake-pipe failure).
type ErrorHandler func(err error)

// Reactor drives the readiness multiplex loop described in SPEC_FULL.md
// §4.7: one dedicated worker registers/unregisters endpoints, blocks on
// select(2) across their descriptors plus a wake pipe, and dispatches
// error/read/write readiness to each endpoint in turn. Per-kind behavior
// (listener accept loops, talker state transitions, UDP datagram framing)
// lives on the endpoints themselves; the reactor only sequences dispatch.
type Reactor struct {
	mu        sync.Mutex
	endpoints map[int]interfaces.Endpoint

	wakeR int
	wakeW int

	mailbox      *Mailbox
	msgHandler   MessageHandler
	errorHandler ErrorHandler
	logger       interfaces.Logger
}

// New creates a Reactor with its wake pipe open, ready to register
// endpoints and Run. mailbox may be nil, in which case a fresh one is
// created; msgHandler may be nil to discard non-quit messages.
func New(mailbox *Mailbox, msgHandler MessageHandler, errorHandler ErrorHandler, logger interfaces.Logger) (*Reactor, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_NONBLOCK); err != nil {
		return nil, wrapPipeErr(ErrUnableToOpenPipe, err)
	}

	if mailbox == nil {
		mailbox = NewMailbox()
	}

	return &Reactor{
		endpoints:    make(map[int]interfaces.Endpoint),
		wakeR:        fds[0],
		wakeW:        fds[1],
		mailbox:      mailbox,
		msgHandler:   msgHandler,
		errorHandler: errorHandler,
		logger:       logger,
	}, nil
}

func wrapPipeErr(sentinel, err error) error {
	if err == nil {
		return sentinel
	}
	return &pipeError{sentinel: sentinel, inner: err}
}

type pipeError struct {
	sentinel error
	inner    error
}

func (e *pipeError) Error() string { return e.sentinel.Error() + ": " + e.inner.Error() }
func (e *pipeError) Unwrap() error { return e.sentinel }

// fdBits is the width of one unix.FdSet.Bits word; fdSet/fdIsSet mirror the
// standard FD_SET/FD_ISSET bit-twiddling macros from <sys/select.h>.
const fdBits = 64

func fdSet(set *unix.FdSet, fd int) {
	set.Bits[fd/fdBits] |= 1 << (uint(fd) % fdBits)
}

func fdIsSet(set *unix.FdSet, fd int) bool {
	return set.Bits[fd/fdBits]&(1<<(uint(fd)%fdBits)) != 0
}

// Register implements interfaces.ReactorHandle: inserts the endpoint into
// the descriptor map and wakes the reactor so a newly-registered write-
// interested endpoint is noticed on the next cycle.
func (r *Reactor) Register(e interfaces.Endpoint) error {
	r.mu.Lock()
	r.endpoints[e.FD()] = e
	r.mu.Unlock()
	return r.Wake()
}

// Unregister implements interfaces.ReactorHandle.
func (r *Reactor) Unregister(e interfaces.Endpoint) error {
	r.mu.Lock()
	delete(r.endpoints, e.FD())
	r.mu.Unlock()
	return r.Wake()
}

// Wake implements interfaces.ReactorHandle: writes a single byte to the
// wake pipe, causing a blocked select(2) to return. A full pipe (meaning a
// wake is already pending) is not an error.
func (r *Reactor) Wake() error {
	_, err := unix.Write(r.wakeW, []byte{constants.WakeByte})
	if err != nil && err != unix.EWOULDBLOCK && err != unix.EAGAIN {
		return wrapPipeErr(ErrUnableToWritePipe, err)
	}
	return nil
}

// Post enqueues msg on the reactor's mailbox and wakes the loop, so a
// message posted from any goroutine is observed promptly.
func (r *Reactor) Post(msg any) error {
	r.mailbox.Post(msg)
	return r.Wake()
}

func (r *Reactor) drainWakePipe() error {
	buf := make([]byte, 64)
	for {
		_, err := unix.Read(r.wakeR, buf)
		if err != nil {
			if err == unix.EWOULDBLOCK || err == unix.EAGAIN {
				return nil
			}
			return wrapPipeErr(ErrUnableToReadPipe, err)
		}
	}
}

// drainMailbox pops and dispatches messages until the mailbox is empty or a
// Quit message is observed, reporting whether a quit was seen.
func (r *Reactor) drainMailbox() (quit bool) {
	for {
		msg, ok := r.mailbox.Pop()
		if !ok {
			return false
		}
		if _, isQuit := msg.(quitMessage); isQuit {
			return true
		}
		if r.msgHandler != nil {
			r.msgHandler.HandleMessage(msg)
		}
	}
}

// Run drives the multiplex loop described in SPEC_FULL.md §4.7 until a Quit
// message is drained from the mailbox or ctx is cancelled. On exit every
// endpoint still registered is closed, and any close errors are aggregated.
func (r *Reactor) Run(ctx context.Context) error {
	// select(2) below has no timeout, so this watcher wakes the loop when
	// ctx is cancelled; finish stops it before shutdown closes the pipe.
	stopWatch, watchDone := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(watchDone)
		select {
		case <-ctx.Done():
			_ = r.Wake()
		case <-stopWatch:
		}
	}()
	finish := func() error { close(stopWatch); <-watchDone; return r.shutdown() }

	for {
		select {
		case <-ctx.Done():
			return finish()
		default:
		}

		r.mu.Lock()
		fds := make([]int, 0, len(r.endpoints))
		for fd := range r.endpoints {
			fds = append(fds, fd)
		}
		sort.Ints(fds)

		var readSet, writeSet, errSet unix.FdSet
		maxFD := r.wakeR
		fdSet(&readSet, r.wakeR)

		for _, fd := range fds {
			ep := r.endpoints[fd]
			fdSet(&readSet, fd)
			fdSet(&errSet, fd)
			if ep.WantsWrite() {
				fdSet(&writeSet, fd)
			}
			if fd > maxFD {
				maxFD = fd
			}
		}
		r.mu.Unlock()

		n, err := unix.Select(maxFD+1, &readSet, &writeSet, &errSet, nil)
		if err != nil {
			if err == unix.EINTR || err == unix.Errno(514) {
				if r.drainMailbox() {
					return finish()
				}
				continue
			}
			if r.errorHandler != nil {
				r.errorHandler(err)
			}
			continue
		}
		if n == 0 {
			continue
		}

		if fdIsSet(&readSet, r.wakeR) {
			if err := r.drainWakePipe(); err != nil && r.errorHandler != nil {
				r.errorHandler(err)
			}
			if r.drainMailbox() {
				return finish()
			}
		}

		for _, fd := range fds {
			r.mu.Lock()
			ep, ok := r.endpoints[fd]
			r.mu.Unlock()
			if !ok {
				continue // unregistered mid-cycle by an earlier callback
			}

			if fdIsSet(&errSet, fd) {
				ep.OnErrorReady()
			}
			if fdIsSet(&readSet, fd) {
				ep.OnReadable()
			}
			if fdIsSet(&writeSet, fd) {
				ep.OnWritable()
			}
		}

		if r.drainMailbox() {
			return finish()
		}
		if err := r.drainWakePipe(); err != nil && r.errorHandler != nil {
			r.errorHandler(err)
		}
	}
}

// shutdown closes every endpoint still registered, aggregating close
// errors, then closes the wake pipe.
func (r *Reactor) shutdown() error {
	if r.logger != nil {
		r.logger.Info("reactor shutting down")
	}

	r.mu.Lock()
	endpoints := make([]interfaces.Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		endpoints = append(endpoints, ep)
	}
	r.endpoints = make(map[int]interfaces.Endpoint)
	r.mu.Unlock()

	var result *multierror.Error
	for _, ep := range endpoints {
		if err := ep.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	unix.Close(r.wakeR)
	unix.Close(r.wakeW)

	return result.ErrorOrNil()
}
