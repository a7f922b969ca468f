package reactor

import "errors"

// Sentinel errors for the reactor's own plumbing, mirroring SPEC_FULL.md §7.
var (
	// ErrUnableToOpenPipe is raised if the wake pipe cannot be created.
	ErrUnableToOpenPipe = errors.New("reactor: unable to open wake pipe")

	// ErrUnableToReadPipe is raised if draining the wake pipe fails with
	// anything other than EWOULDBLOCK/EAGAIN.
	ErrUnableToReadPipe = errors.New("reactor: unable to read wake pipe")

	// ErrUnableToWritePipe is raised if writing the wake byte fails with
	// anything other than EWOULDBLOCK/EAGAIN (a full pipe means a wake is
	// already pending, which is not itself an error).
	ErrUnableToWritePipe = errors.New("reactor: unable to write wake pipe")
)
