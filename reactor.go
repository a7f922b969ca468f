// Package reactor is a single-worker, select(2)-based socket multiplexer:
// one goroutine owns every registered TCP talker, TCP listener, and UDP
// endpoint, drains an application mailbox, and dispatches readiness to
// user-supplied handlers. See SPEC_FULL.md for the full design.
package reactor

import (
	"context"

	"github.com/c2h5oh/datasize"

	"github.com/behrlich/go-reactor/internal/constants"
	"github.com/behrlich/go-reactor/internal/interfaces"
	"github.com/behrlich/go-reactor/internal/logging"
	internalreactor "github.com/behrlich/go-reactor/internal/reactor"
	"github.com/behrlich/go-reactor/internal/sockaddr"
	"github.com/behrlich/go-reactor/internal/socket"
)

// Re-exported types so callers never need to import the internal packages
// directly: a TalkerHandler implementation, an Address, and the three
// endpoint types are all anyone outside this module needs to see.
type (
	// Address is an IPv4 or IPv6 endpoint address.
	Address = sockaddr.Address

	// TalkerHandler receives a TcpTalker's connect/receive/close/error
	// callbacks.
	TalkerHandler = socket.TalkerHandler

	// TalkerFactory is a listener's per-accept admission-control hook.
	TalkerFactory = socket.TalkerFactory

	// UDPHandler receives a UdpEndpoint's receive/error callbacks.
	UDPHandler = socket.UDPHandler

	// TcpTalker is a bidirectional byte-stream endpoint.
	TcpTalker = socket.TcpTalker

	// TcpListener accepts connections and hands them to a TalkerFactory.
	TcpListener = socket.TcpListener

	// UdpEndpoint is a datagram endpoint that preserves message
	// boundaries across send/recv.
	UdpEndpoint = socket.UdpEndpoint
)

// NewAddress parses a presentation-format IPv4 or IPv6 address and pairs it
// with port.
func NewAddress(host string, port uint16) (*Address, error) {
	return sockaddr.New(host, port)
}

// WildcardAddress returns the IPv6 any-address (::) bound to port, for
// listeners that should accept on every interface.
func WildcardAddress(port uint16) *Address {
	return sockaddr.Wildcard(port)
}

// Options configures a Reactor's defaults and collaborators. The zero value
// is valid: a fresh Metrics observer, a default zap-backed logger, and
// constants.DefaultRingBufferSize/DefaultListenBacklog.
type Options struct {
	// Logger receives structured log lines from the multiplex loop. Nil
	// uses logging.Default().
	Logger interfaces.Logger

	// Observer receives per-endpoint metrics events. Nil uses a fresh
	// *Metrics, reachable afterward via Reactor.Metrics.
	Observer interfaces.Observer

	// RingBufferSize sizes new talkers' and UDP endpoints' send/receive
	// rings when callers don't pass an explicit size to NewTalker/NewUDP.
	RingBufferSize datasize.ByteSize

	// ListenBacklog sizes new listeners' accept backlog when callers don't
	// pass an explicit backlog to Listen.
	ListenBacklog int

	// ErrorHandler receives errors the reactor's own plumbing raises
	// (a select(2) failure, a wake-pipe failure) that aren't attributable
	// to any one endpoint.
	ErrorHandler func(err error)
}

func (o *Options) ringSize() int {
	if o == nil || o.RingBufferSize == 0 {
		return constants.DefaultRingBufferSize
	}
	return int(o.RingBufferSize.Bytes())
}

func (o *Options) backlog() int {
	if o == nil || o.ListenBacklog == 0 {
		return constants.DefaultListenBacklog
	}
	return o.ListenBacklog
}

// Reactor is the public handle on a running multiplex loop: it creates and
// registers talkers, listeners, and UDP endpoints, and owns the Metrics
// observer when the caller didn't supply one.
type Reactor struct {
	inner    *internalreactor.Reactor
	logger   interfaces.Logger
	observer interfaces.Observer
	metrics  *Metrics
	opts     Options
}

// New creates a Reactor. Call Run to start its multiplex loop; endpoints
// may be created and registered either before or after Run starts.
func New(opts Options) (*Reactor, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	var metrics *Metrics
	observer := opts.Observer
	if observer == nil {
		metrics = NewMetrics()
		observer = metrics
	}

	inner, err := internalreactor.New(nil, nil, opts.ErrorHandler, logger)
	if err != nil {
		return nil, wrapOp("New", "", err)
	}

	return &Reactor{inner: inner, logger: logger, observer: observer, metrics: metrics, opts: opts}, nil
}

// Metrics returns the built-in Metrics observer, or nil if Options.Observer
// was set to something else.
func (r *Reactor) Metrics() *Metrics { return r.metrics }

// Run drives the multiplex loop until ctx is cancelled or a Quit message is
// posted, closing every registered endpoint on the way out.
func (r *Reactor) Run(ctx context.Context) error {
	if err := r.inner.Run(ctx); err != nil {
		return wrapOp("Run", "", err)
	}
	return nil
}

// Post enqueues msg on the reactor's mailbox for delivery on the next
// multiplex cycle; safe to call from any goroutine.
func (r *Reactor) Post(msg any) error {
	return r.inner.Post(msg)
}

// Quit is the sentinel message that ends Run's loop when posted.
var Quit = internalreactor.Quit

// Listen opens and registers a TcpListener bound to host:port, delegating
// per-accept admission control to factory. backlog of 0 uses
// Options.ListenBacklog (or constants.DefaultListenBacklog).
func (r *Reactor) Listen(host string, port uint16, backlog int, factory TalkerFactory) (*TcpListener, error) {
	addr, err := sockaddr.New(host, port)
	if err != nil {
		return nil, wrapOp("Listen", "", err)
	}
	if backlog == 0 {
		backlog = r.opts.backlog()
	}

	l := socket.NewTcpListener(r.inner, r.logger, r.observer, addr, backlog, factory)
	if err := l.Listen(); err != nil {
		return nil, wrapOp("Listen", "", err)
	}
	return l, nil
}

// NewTalker creates an unopened TcpTalker (StateUndefined) with the given
// handler. ringSize of 0 uses Options.RingBufferSize (or
// constants.DefaultRingBufferSize). The talker registers with the reactor
// once Connect opens its socket or a listener adopts an accepted handle for
// it; call Connect or use it as a TalkerFactory's admitted value.
func (r *Reactor) NewTalker(handler TalkerHandler, ringSize datasize.ByteSize) *TcpTalker {
	size := int(ringSize.Bytes())
	if size == 0 {
		size = r.opts.ringSize()
	}
	return socket.NewTcpTalker(r.inner, r.logger, r.observer, handler, size)
}

// DialTCP creates a talker, registers it, and connects it to host:port.
func (r *Reactor) DialTCP(host string, port uint16, handler TalkerHandler, ringSize datasize.ByteSize) (*TcpTalker, error) {
	addr, err := sockaddr.New(host, port)
	if err != nil {
		return nil, wrapOp("DialTCP", "", err)
	}
	t := r.NewTalker(handler, ringSize)
	if err := t.Connect(addr); err != nil {
		return nil, wrapOp("DialTCP", t.ID(), err)
	}
	return t, nil
}

// NewUDP creates, binds, and registers a UdpEndpoint on host:port. Pass
// port 0 with an empty host to bind an ephemeral port on every interface.
func (r *Reactor) NewUDP(host string, port uint16, handler UDPHandler, ringSize datasize.ByteSize) (*UdpEndpoint, error) {
	size := int(ringSize.Bytes())
	if size == 0 {
		size = r.opts.ringSize()
	}
	u := socket.NewUdpEndpoint(r.inner, r.logger, r.observer, handler, size)

	var err error
	if host == "" {
		err = u.BindPort(port)
	} else {
		var addr *sockaddr.Address
		addr, err = sockaddr.New(host, port)
		if err == nil {
			err = u.Bind(addr)
		}
	}
	if err != nil {
		return nil, wrapOp("NewUDP", u.ID(), err)
	}
	return u, nil
}
