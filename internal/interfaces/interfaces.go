// Package interfaces holds the narrow collaborator contracts the socket and
// reactor packages depend on, kept separate from the public package to avoid
// import cycles between internal/socket, internal/reactor, and the root
// reactor package.
package interfaces

// Logger is the logging surface consumed by internal/socket and
// internal/reactor. internal/logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	With(args ...any) Logger
}

// Observer receives metrics events from endpoints and the reactor. It must
// be safe for concurrent use: ObserveX methods are called from whichever
// goroutine performs the I/O (the reactor worker for recv/accept, any
// application goroutine for write).
type Observer interface {
	ObserveRead(endpointID string, bytes uint64, success bool)
	ObserveWrite(endpointID string, bytes uint64, success bool)
	ObserveAccept(listenerID string, accepted bool)
	ObserveError(endpointID string, err error)
}

// Endpoint is the reactor's view of a registered socket: enough to multiplex
// on its descriptor and dispatch readiness to it without the reactor package
// knowing whether it is a talker, a listener, or a UDP endpoint. internal/
// socket's TcpTalker, TcpListener, and UdpEndpoint all implement it. This is
// the tagged-dispatch substitute for the collaborator's virtual callbacks.
type Endpoint interface {
	// FD returns the OS file descriptor to multiplex on.
	FD() int

	// WantsWrite reports whether the write-interest set should include
	// this descriptor on the current cycle.
	WantsWrite() bool

	// OnReadable is invoked when the descriptor is read-ready.
	OnReadable()

	// OnWritable is invoked when the descriptor is write-ready.
	OnWritable()

	// OnErrorReady is invoked when the descriptor is in the error set;
	// the implementation is responsible for capturing SO_ERROR.
	OnErrorReady()

	// Close disconnects and releases the endpoint's OS handle.
	Close() error
}

// ReactorHandle is the non-owning back-reference an Endpoint holds to the
// Reactor that multiplexes it, used to register/unregister and to wake the
// multiplex loop after an application write.
type ReactorHandle interface {
	Register(e Endpoint) error
	Unregister(e Endpoint) error
	Wake() error
}
