package socket

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// sendWithCount calls send(2) directly and returns the number of bytes
// actually written. golang.org/x/sys/unix's Send/Sendto wrappers discard
// that count (they assume send() is all-or-nothing), but TCP stream sockets
// can short-write under backpressure, and flush's partial-send residual
// tracking depends on knowing exactly how much went out.
func sendWithCount(fd int, buf []byte, flags int) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	r0, _, errno := unix.Syscall6(unix.SYS_SENDTO,
		uintptr(fd),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		uintptr(flags),
		0, 0)
	if errno != 0 {
		return 0, errno
	}
	return int(r0), nil
}
