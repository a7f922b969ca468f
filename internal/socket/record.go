package socket

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/behrlich/go-reactor/internal/sockaddr"
)

// The original source mixes sizeof(int) for the TCP length prefix with
// sizeof(size_t) for the UDP record header, which differ across platforms
// (SPEC_FULL.md §9). Both channels here use one fixed 8-byte little-endian
// width instead, so peek/modify/decode never need to guess a width.
const (
	// lengthPrefixSize is the width of the TCP write-ring length prefix.
	lengthPrefixSize = 8

	// udpAddrFamilySize/udpAddrPortSize/udpAddrBytesSize encode a peer
	// Address compactly: a one-byte family tag, a two-byte port, and a
	// 16-byte address (IPv4 addresses are stored in IPv4-mapped IPv6 form,
	// ::ffff:a.b.c.d).
	udpAddrFamilySize = 1
	udpAddrPortSize   = 2
	udpAddrBytesSize  = 16
	udpAddrSize       = udpAddrFamilySize + udpAddrPortSize + udpAddrBytesSize

	// udpHeaderSize is ⟨total_length, data_length, peer_address⟩ as stored
	// in a UDP endpoint's RingBuffer.
	udpHeaderSize = 8 + 8 + udpAddrSize
)

// encodeLengthPrefix renders length as the fixed-width TCP length prefix.
func encodeLengthPrefix(length int) []byte {
	buf := make([]byte, lengthPrefixSize)
	binary.LittleEndian.PutUint64(buf, uint64(length))
	return buf
}

// decodeLengthPrefix reads a TCP length prefix previously written by
// encodeLengthPrefix.
func decodeLengthPrefix(buf []byte) int {
	return int(binary.LittleEndian.Uint64(buf))
}

// encodeUDPAddress packs an Address into udpAddrSize bytes.
func encodeUDPAddress(addr *sockaddr.Address) ([]byte, error) {
	buf := make([]byte, udpAddrSize)

	switch addr.Family() {
	case sockaddr.INET:
		buf[0] = 1
	case sockaddr.INET6:
		buf[0] = 2
	default:
		return nil, sockaddr.ErrUndefinedFamily
	}

	port, err := addr.Port()
	if err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint16(buf[udpAddrFamilySize:], port)

	ip, err := addr.IP()
	if err != nil {
		return nil, err
	}
	copy(buf[udpAddrFamilySize+udpAddrPortSize:], ip.To16())
	return buf, nil
}

// decodeUDPAddress reverses encodeUDPAddress.
func decodeUDPAddress(buf []byte) (*sockaddr.Address, error) {
	if len(buf) < udpAddrSize {
		return nil, fmt.Errorf("socket: short udp address record (%d bytes)", len(buf))
	}

	port := binary.LittleEndian.Uint16(buf[udpAddrFamilySize:])
	ip := net.IP(buf[udpAddrFamilySize+udpAddrPortSize : udpAddrSize])

	switch buf[0] {
	case 1:
		return sockaddr.New(ip.To4().String(), port)
	case 2:
		return sockaddr.New(ip.String(), port)
	default:
		return nil, sockaddr.ErrUnknownAddressType
	}
}

// encodeUDPHeader renders ⟨total_length, data_length, peer_address⟩ for a
// datagram of dataLength bytes addressed to/from peer.
func encodeUDPHeader(dataLength int, peer *sockaddr.Address) ([]byte, error) {
	addrBytes, err := encodeUDPAddress(peer)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, udpHeaderSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(udpHeaderSize+dataLength))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(dataLength))
	copy(buf[16:], addrBytes)
	return buf, nil
}

// decodeUDPHeader reverses encodeUDPHeader.
func decodeUDPHeader(buf []byte) (totalLength, dataLength int, peer *sockaddr.Address, err error) {
	if len(buf) < udpHeaderSize {
		return 0, 0, nil, fmt.Errorf("socket: short udp header record (%d bytes)", len(buf))
	}

	totalLength = int(binary.LittleEndian.Uint64(buf[0:8]))
	dataLength = int(binary.LittleEndian.Uint64(buf[8:16]))
	peer, err = decodeUDPAddress(buf[16:udpHeaderSize])
	return totalLength, dataLength, peer, err
}
