// Package ringbuf implements the fixed-capacity byte ring that backs every
// TcpTalker and UdpEndpoint's send and receive staging (SPEC_FULL.md C1).
//
// A RingBuffer supports four operations: Peek and Consume read (optionally
// removing) bytes starting some offset past the logical tail; Append adds
// bytes at the head, all-or-nothing; Modify overwrites already-queued bytes
// in place, used by the TCP talker to rewrite a partially-sent length
// prefix. All four serialize on the buffer's own mutex by default; Append
// and Modify accept a nolock flag for callers that already hold the lock
// via Lock/Unlock, so a header-then-payload pair can be appended as one
// atomic batch.
package ringbuf

import (
	"sync"

	"github.com/c2h5oh/datasize"
)

// RingBuffer is a fixed-capacity circular byte buffer.
type RingBuffer struct {
	mu sync.Mutex

	data     []byte
	capacity int
	head     int // next write index
	tail     int // next read index
	used     int // bytes currently stored
}

// New creates a RingBuffer with the given fixed capacity in bytes.
func New(capacity int) *RingBuffer {
	rb := &RingBuffer{capacity: capacity}
	rb.Reset()
	return rb
}

// NewSized creates a RingBuffer sized from a human-friendly byte size, e.g.
// ringbuf.NewSized(64 * datasize.KB).
func NewSized(size datasize.ByteSize) *RingBuffer {
	return New(int(size.Bytes()))
}

// Reset re-initializes the buffer to empty. Unlike the original's
// initialize(), which reallocated the backing store on every call, Go's
// fixed-size slice never needs replacing (SPEC_FULL.md §4.1), so Reset only
// clears the indices and zeroes the storage once, lazily allocating it on
// first use.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.head = 0
	r.tail = 0
	r.used = 0
	if r.data == nil {
		r.data = make([]byte, r.capacity)
	}
}

// Capacity returns the buffer's fixed capacity in bytes.
func (r *RingBuffer) Capacity() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity
}

// Used returns the number of bytes currently stored.
func (r *RingBuffer) Used() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Free returns the number of bytes that may still be appended.
func (r *RingBuffer) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.capacity - r.used
}

// Empty reports whether the buffer currently holds no data.
func (r *RingBuffer) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used == 0
}

// UsedLocked returns Used without acquiring the lock. The caller must
// already hold it via Lock — intended for a nolock batch that needs to
// precheck capacity across several Append calls atomically.
func (r *RingBuffer) UsedLocked() int { return r.used }

// CapacityLocked returns Capacity without acquiring the lock. Same contract
// as UsedLocked.
func (r *RingBuffer) CapacityLocked() int { return r.capacity }

// Lock acquires the buffer's mutex for external batching: a caller that
// needs several Append/Modify calls to land atomically (e.g. a record
// header followed by its payload) locks once and passes nolock=true to
// each call, then unlocks.
func (r *RingBuffer) Lock() { r.mu.Lock() }

// Unlock releases the lock acquired by Lock.
func (r *RingBuffer) Unlock() { r.mu.Unlock() }

// Peek copies up to length bytes starting offset bytes past the logical
// tail into dest, without advancing the tail. dest may be nil to skip
// without copying (still bounded by what's available). Returns the number
// of bytes actually copied.
func (r *RingBuffer) Peek(dest []byte, offset, length int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked(dest, offset, length, false)
}

// Consume behaves like Peek but advances the tail (and decrements used) by
// the number of bytes actually copied.
func (r *RingBuffer) Consume(dest []byte, offset, length int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readLocked(dest, offset, length, true)
}

func (r *RingBuffer) readLocked(dest []byte, offset, length int, consume bool) (int, error) {
	if r.used == 0 {
		if r.head != r.tail {
			return 0, ErrHeadAndTailOutOfSync
		}
		return 0, nil
	}
	if offset >= r.used {
		return 0, nil
	}

	amtRead := 0
	newTail := r.tail + offset
	newUsed := r.used - offset
	if newTail >= r.capacity {
		newTail -= r.capacity
	}

	for amtRead < length && newUsed > 0 {
		readLen := r.capacity - newTail
		if newTail < r.head {
			readLen = r.head - newTail
		}
		if remaining := length - amtRead; readLen > remaining {
			readLen = remaining
		}

		if dest != nil {
			copy(dest[amtRead:amtRead+readLen], r.data[newTail:newTail+readLen])
		}

		amtRead += readLen
		newUsed -= readLen
		if newUsed < 0 {
			return 0, ErrUsedLessThanZero
		}

		newTail += readLen
		if newTail == r.capacity {
			newTail = 0
		} else if newTail > r.capacity {
			return 0, ErrTailExceededCapacity
		}
	}

	if consume {
		r.used = newUsed
		r.tail = newTail
	}
	return amtRead, nil
}

// Append writes src at the head. The write is all-or-nothing: if
// used+len(src) would exceed capacity, ErrAttemptToExceedCapacity is
// returned and no byte is written. If nolock is true, the caller must
// already hold the buffer's lock via Lock.
func (r *RingBuffer) Append(src []byte, nolock bool) error {
	if !nolock {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return r.appendLocked(src)
}

func (r *RingBuffer) appendLocked(src []byte) error {
	length := len(src)
	if r.used+length > r.capacity {
		return ErrAttemptToExceedCapacity
	}

	amtWritten := 0
	for amtWritten < length {
		writeLen := r.capacity - r.head
		if r.head < r.tail {
			writeLen = r.tail - r.head
		}
		if remaining := length - amtWritten; writeLen > remaining {
			writeLen = remaining
		}

		copy(r.data[r.head:r.head+writeLen], src[amtWritten:amtWritten+writeLen])

		amtWritten += writeLen
		r.used += writeLen
		if r.used > r.capacity {
			return ErrBufferSizeHasBeenExceeded
		}

		r.head += writeLen
		if r.head == r.capacity {
			r.head = 0
		} else if r.head > r.capacity {
			return ErrHeadExceededCapacity
		}
	}
	return nil
}

// Modify overwrites len(src) bytes starting offset bytes past the tail,
// without moving head, tail, or used. Fails with ErrModifyOutOfBounds if
// offset+len(src) exceeds the currently used region. Intended for rewriting
// the length prefix of a record that has been only partially transmitted —
// use with care, it does not participate in normal enqueue/dequeue order.
func (r *RingBuffer) Modify(src []byte, offset int, nolock bool) error {
	if !nolock {
		r.mu.Lock()
		defer r.mu.Unlock()
	}
	return r.modifyLocked(src, offset)
}

func (r *RingBuffer) modifyLocked(src []byte, offset int) error {
	length := len(src)
	if offset+length > r.used {
		return ErrModifyOutOfBounds
	}

	idx := r.tail + offset
	if idx >= r.capacity {
		idx -= r.capacity
	}

	amtWritten := 0
	for amtWritten < length {
		writeLen := length - amtWritten
		if idx+writeLen > r.capacity {
			writeLen = r.capacity - idx
		}

		copy(r.data[idx:idx+writeLen], src[amtWritten:amtWritten+writeLen])

		amtWritten += writeLen
		idx += writeLen
		if idx == r.capacity {
			idx = 0
		}
	}
	return nil
}
