package socket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/behrlich/go-reactor/internal/sockaddr"
)

func TestLengthPrefixRoundTrip(t *testing.T) {
	buf := encodeLengthPrefix(12345)
	assert.Len(t, buf, lengthPrefixSize)
	assert.Equal(t, 12345, decodeLengthPrefix(buf))
}

func TestUDPAddressRoundTripInet(t *testing.T) {
	addr, err := sockaddr.New("192.168.1.1", 5353)
	require.NoError(t, err)

	buf, err := encodeUDPAddress(addr)
	require.NoError(t, err)
	assert.Len(t, buf, udpAddrSize)

	back, err := decodeUDPAddress(buf)
	require.NoError(t, err)
	assert.Equal(t, addr.String(), back.String())
}

func TestUDPAddressRoundTripInet6(t *testing.T) {
	addr, err := sockaddr.New("::1", 53)
	require.NoError(t, err)

	buf, err := encodeUDPAddress(addr)
	require.NoError(t, err)

	back, err := decodeUDPAddress(buf)
	require.NoError(t, err)
	assert.Equal(t, addr.String(), back.String())
}

func TestUDPHeaderRoundTrip(t *testing.T) {
	peer, err := sockaddr.New("10.0.0.1", 9999)
	require.NoError(t, err)

	header, err := encodeUDPHeader(42, peer)
	require.NoError(t, err)
	assert.Len(t, header, udpHeaderSize)

	total, data, decodedPeer, err := decodeUDPHeader(header)
	require.NoError(t, err)
	assert.Equal(t, udpHeaderSize+42, total)
	assert.Equal(t, 42, data)
	assert.Equal(t, peer.String(), decodedPeer.String())
}
