package socket

import (
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func itoa(port uint16) string {
	return strconv.Itoa(int(port))
}

// waitReadable blocks until fd is read-ready or the deadline passes, so
// tests that drive OnReadable manually (without a running reactor) don't
// race the kernel's accept/recv queues.
func waitReadable(t *testing.T, fd int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fds := &unix.FdSet{}
		fds.Set(fd)
		tv := unix.Timeval{Sec: 0, Usec: 50000}
		n, err := unix.Select(fd+1, fds, nil, nil, &tv)
		if err == nil && n > 0 {
			return
		}
	}
	t.Fatalf("fd %d never became readable", fd)
}
