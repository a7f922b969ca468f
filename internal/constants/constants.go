// Package constants holds the tunable defaults shared across the reactor,
// ring buffer, and socket packages.
package constants

// DefaultRingBufferSize is the default capacity, in bytes, of a TcpTalker's
// or UdpEndpoint's send/receive ring buffers.
const DefaultRingBufferSize = 2 * 1024 * 1024

// DefaultListenBacklog is used when a TcpListener is constructed without an
// explicit backlog.
const DefaultListenBacklog = 128

// RecvChunkSize is the size of the pooled scratch buffer TcpTalker.recv uses
// per kernel read. UdpEndpoint.recv reads into a MaxUDPMessageLength buffer
// instead.
const RecvChunkSize = 2048

// SendChunkSize is the maximum number of payload bytes Talker.flush drains
// into the kernel per inner loop iteration.
const SendChunkSize = 2048

// MaxUDPMessageLength is the largest UDP payload a single datagram can
// carry: (max IP packet size) - (min IPv4 header) - (UDP header).
const MaxUDPMessageLength = 65507

// RecordHeaderSize is the width, in bytes, of the length-prefix framing
// record written ahead of every TCP write-ring record, and of each of the
// two fixed-width fields (total_length, data_length) in a UDP ring record.
// Both channels use the same fixed 8-byte little-endian width; see
// SPEC_FULL.md §9.
const RecordHeaderSize = 8

// WakeByte is written to the reactor's wake pipe to interrupt a blocked
// multiplex cycle.
const WakeByte = '~'
