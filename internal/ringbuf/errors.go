package ringbuf

import "errors"

// Sentinel errors for RingBuffer invariant violations and capacity checks.
// Names mirror the error taxonomy in SPEC_FULL.md §7.
var (
	// ErrHeadAndTailOutOfSync is raised when used == 0 but head != tail —
	// the ring's own poisoning check for internal corruption.
	ErrHeadAndTailOutOfSync = errors.New("ringbuf: head and tail out of sync")

	// ErrUsedLessThanZero is raised if a read operation's internal
	// accounting of remaining bytes would go negative. Unreachable from any
	// documented call path; kept as a defensive check.
	ErrUsedLessThanZero = errors.New("ringbuf: used less than zero")

	// ErrTailExceededCapacity is raised if the tail index strictly exceeds
	// capacity after a read advances it.
	ErrTailExceededCapacity = errors.New("ringbuf: tail exceeded capacity")

	// ErrAttemptToExceedCapacity is raised by Append when used+length would
	// exceed capacity. The append is rejected before any byte is written.
	ErrAttemptToExceedCapacity = errors.New("ringbuf: attempt to exceed capacity")

	// ErrBufferSizeHasBeenExceeded is raised if Append's internal used
	// accounting exceeds capacity mid-write — a corruption check, since the
	// capacity pre-check should have prevented this.
	ErrBufferSizeHasBeenExceeded = errors.New("ringbuf: buffer size has been exceeded")

	// ErrHeadExceededCapacity is raised if the head index strictly exceeds
	// capacity after a write advances it.
	ErrHeadExceededCapacity = errors.New("ringbuf: head has exceeded capacity")

	// ErrModifyOutOfBounds is raised by Modify when offset+length falls
	// outside the currently used region.
	ErrModifyOutOfBounds = errors.New("ringbuf: attempt to modify data outside bounds of current buffer")
)
