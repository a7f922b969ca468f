package ringbuf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendConsumeRoundTrip(t *testing.T) {
	rb := New(16)
	require.NoError(t, rb.Append([]byte("hello"), false))
	assert.Equal(t, 5, rb.Used())
	assert.Equal(t, 11, rb.Free())

	dest := make([]byte, 5)
	n, err := rb.Consume(dest, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(dest))
	assert.True(t, rb.Empty())
}

func TestPeekDoesNotConsume(t *testing.T) {
	rb := New(16)
	require.NoError(t, rb.Append([]byte("abcde"), false))

	dest := make([]byte, 3)
	n, err := rb.Peek(dest, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "abc", string(dest))
	assert.Equal(t, 5, rb.Used(), "peek must not advance the tail")
}

func TestPeekWithOffset(t *testing.T) {
	rb := New(16)
	require.NoError(t, rb.Append([]byte("abcdefgh"), false))

	dest := make([]byte, 3)
	n, err := rb.Peek(dest, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "def", string(dest))
}

func TestAppendExceedingCapacityRejectedWhole(t *testing.T) {
	rb := New(8)
	require.NoError(t, rb.Append([]byte("1234567"), false))

	err := rb.Append([]byte("ab"), false)
	assert.ErrorIs(t, err, ErrAttemptToExceedCapacity)
	assert.Equal(t, 7, rb.Used(), "rejected append must not write any bytes")
}

// TestWrapAround exercises an append/consume/append cycle that forces the
// write to wrap past the end of an 8-byte backing array.
func TestWrapAround(t *testing.T) {
	rb := New(8)
	require.NoError(t, rb.Append([]byte("ABCDEF"), false)) // head=6 tail=0 used=6

	dest := make([]byte, 4)
	n, err := rb.Consume(dest, 0, 4) // tail=4 used=2
	require.NoError(t, err)
	assert.Equal(t, "ABCD", string(dest[:n]))

	// head=6, capacity=8: appending 4 bytes wraps after 2 bytes.
	require.NoError(t, rb.Append([]byte("WXYZ"), false))
	assert.Equal(t, 6, rb.Used())

	out := make([]byte, 6)
	n, err = rb.Consume(out, 0, 6)
	require.NoError(t, err)
	assert.Equal(t, "EFWXYZ", string(out[:n]))
	assert.True(t, rb.Empty())
}

func TestModifyRewritesInPlaceWithoutChangingUsed(t *testing.T) {
	rb := New(64)
	require.NoError(t, rb.Append(make([]byte, 8), false))
	require.NoError(t, rb.Append([]byte("payload-data"), false))
	before := rb.Used()

	require.NoError(t, rb.Modify([]byte{0, 0, 0, 0, 0, 0, 0, 20}, 0, false))
	assert.Equal(t, before, rb.Used())

	header := make([]byte, 8)
	n, err := rb.Peek(header, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, byte(20), header[7])
}

func TestModifyOutOfBoundsRejected(t *testing.T) {
	rb := New(64)
	require.NoError(t, rb.Append([]byte("short"), false))

	err := rb.Modify([]byte("toolong!!"), 0, false)
	assert.ErrorIs(t, err, ErrModifyOutOfBounds)
}

func TestNolockBatchAppend(t *testing.T) {
	rb := New(32)
	rb.Lock()
	err1 := rb.Append([]byte{0, 0, 0, 0, 0, 0, 0, 5}, true)
	err2 := rb.Append([]byte("hello"), true)
	rb.Unlock()

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 13, rb.Used())
}

func TestResetClearsBuffer(t *testing.T) {
	rb := New(16)
	require.NoError(t, rb.Append([]byte("data"), false))
	rb.Reset()

	assert.True(t, rb.Empty())
	assert.Equal(t, 16, rb.Capacity())
	assert.Equal(t, 16, rb.Free())
}

func TestPeekBeyondUsedReturnsZero(t *testing.T) {
	rb := New(16)
	require.NoError(t, rb.Append([]byte("ab"), false))

	dest := make([]byte, 4)
	n, err := rb.Peek(dest, 10, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNewSizedFromDatasize(t *testing.T) {
	rb := NewSized(1024)
	assert.Equal(t, 1024, rb.Capacity())
}
