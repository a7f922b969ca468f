// Package sockaddr implements Address (SPEC_FULL.md C2), a thin wrapper
// around golang.org/x/sys/unix's sockaddr types that the socket package
// uses for connect/bind/getsockname/getpeername/recvfrom results, and for
// the peer addresses embedded in UDP record headers.
package sockaddr

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Family identifies an address's protocol family.
type Family int

const (
	Undefined Family = iota
	INET
	INET6
)

func (f Family) String() string {
	switch f {
	case INET:
		return "INET"
	case INET6:
		return "INET6"
	default:
		return "Undefined"
	}
}

// ToUnix returns the unix.AF_* constant for this family, or 0 if undefined.
func (f Family) ToUnix() int {
	switch f {
	case INET:
		return unix.AF_INET
	case INET6:
		return unix.AF_INET6
	default:
		return 0
	}
}

// Address holds either an IPv4 or an IPv6 socket address, mirroring the
// original's sockaddr_storage-backed class. The zero value is Undefined:
// Port and IP return ErrUndefinedFamily for it, String returns
// "<undefined>", and Sockaddr returns nil.
type Address struct {
	family Family
	v4     unix.SockaddrInet4
	v6     unix.SockaddrInet6
}

// New parses a presentation-format IP address (IPv4 or IPv6) and pairs it
// with port, trying INET before INET6 exactly as the original's
// setAddress(addr, port) does.
func New(addr string, port uint16) (*Address, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, ErrUnknownAddressType
	}

	if v4 := ip.To4(); v4 != nil {
		var sa unix.SockaddrInet4
		copy(sa.Addr[:], v4)
		sa.Port = int(port)
		return &Address{family: INET, v4: sa}, nil
	}

	v6 := ip.To16()
	if v6 == nil {
		return nil, ErrUnknownAddressType
	}
	var sa unix.SockaddrInet6
	copy(sa.Addr[:], v6)
	sa.Port = int(port)
	return &Address{family: INET6, v6: sa}, nil
}

// Wildcard returns the IPv6 any-address (::) bound to port, mirroring the
// original's port-only setAddress(port) overload used for listen sockets
// that bind every interface.
func Wildcard(port uint16) *Address {
	var sa unix.SockaddrInet6
	sa.Port = int(port)
	return &Address{family: INET6, v6: sa}
}

// FromSockaddr converts a unix.Sockaddr — as returned by unix.Getsockname,
// unix.Getpeername, or unix.Accept — into an Address.
func FromSockaddr(sa unix.Sockaddr) (*Address, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &Address{family: INET, v4: *v}, nil
	case *unix.SockaddrInet6:
		return &Address{family: INET6, v6: *v}, nil
	default:
		return nil, ErrUnknownAddressType
	}
}

// Family reports the address's protocol family.
func (a *Address) Family() Family {
	return a.family
}

// Port returns the address's port.
func (a *Address) Port() (uint16, error) {
	switch a.family {
	case INET:
		return uint16(a.v4.Port), nil
	case INET6:
		return uint16(a.v6.Port), nil
	default:
		return 0, ErrUndefinedFamily
	}
}

// IP returns the address's IP in its standard net.IP representation.
func (a *Address) IP() (net.IP, error) {
	switch a.family {
	case INET:
		return net.IP(a.v4.Addr[:]), nil
	case INET6:
		return net.IP(a.v6.Addr[:]), nil
	default:
		return nil, ErrUndefinedFamily
	}
}

// String renders the address in host:port (or [host]:port for IPv6) form.
func (a *Address) String() string {
	switch a.family {
	case INET:
		return fmt.Sprintf("%s:%d", net.IP(a.v4.Addr[:]).String(), a.v4.Port)
	case INET6:
		return fmt.Sprintf("[%s]:%d", net.IP(a.v6.Addr[:]).String(), a.v6.Port)
	default:
		return "<undefined>"
	}
}

// Sockaddr returns the unix.Sockaddr form suitable for unix.Connect,
// unix.Bind, and unix.Sendto.
func (a *Address) Sockaddr() unix.Sockaddr {
	switch a.family {
	case INET:
		sa := a.v4
		return &sa
	case INET6:
		sa := a.v6
		return &sa
	default:
		return nil
	}
}
