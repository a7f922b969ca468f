package socket

import "github.com/behrlich/go-reactor/internal/sockaddr"

// TalkerHandler receives a TcpTalker's lifecycle callbacks. All methods
// default to no-op if a nil handler is supplied.
type TalkerHandler interface {
	OnConnect(t *TcpTalker)
	OnReceive(t *TcpTalker)
	OnClose(t *TcpTalker)
	OnError(t *TcpTalker, err error)
}

// TalkerFactory is the listener's admission-control hook: given the
// accepted connection's peer address, it returns a talker to adopt the
// handle, or nil to refuse the connection (the accepted handle is then
// closed immediately with no callback fired).
type TalkerFactory func(peer *sockaddr.Address) *TcpTalker

// UDPHandler receives a UdpEndpoint's lifecycle callbacks.
type UDPHandler interface {
	OnReceive(u *UdpEndpoint, peer *sockaddr.Address, payload []byte)
	OnError(u *UdpEndpoint, err error)
}
