package reactor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/behrlich/go-reactor/internal/ringbuf"
	"github.com/behrlich/go-reactor/internal/socket"
)

func TestWrapOpClassifiesKnownSentinel(t *testing.T) {
	inner := socket.ErrUnableToConnect
	err := wrapOp("Connect", "ep-1", inner)

	assert.Equal(t, "Connect", err.Op)
	assert.Equal(t, "ep-1", err.Endpoint)
	assert.Equal(t, ErrCodeUnableToConnect, err.Code)
	assert.True(t, errors.Is(err, socket.ErrUnableToConnect))
}

func TestWrapOpUnknownSentinelFallsBackToUnknown(t *testing.T) {
	err := wrapOp("Flush", "ep-2", errors.New("something unrelated"))
	assert.Equal(t, ErrCodeUnknown, err.Code)
}

func TestWrapOpPassesThroughExistingError(t *testing.T) {
	original := wrapOp("Write", "ep-3", ringbuf.ErrAttemptToExceedCapacity)
	rewrapped := wrapOp("Write", "ep-3", original)
	assert.Same(t, original, rewrapped)
}

func TestWrapOpNilIsNil(t *testing.T) {
	assert.Nil(t, wrapOp("Connect", "ep-4", nil))
}

func TestErrorMessageIncludesOpAndEndpoint(t *testing.T) {
	err := &Error{Op: "Connect", Endpoint: "ep-5", Msg: "unable to connect"}
	assert.Equal(t, "reactor: unable to connect: op=Connect endpoint=ep-5", err.Error())
}

func TestErrorIsMatchesOnCodeOnly(t *testing.T) {
	err := wrapOp("Listen", "ep-6", socket.ErrUnableToListen)
	assert.True(t, errors.Is(err, &Error{Code: ErrCodeUnableToListen}))
	assert.False(t, errors.Is(err, &Error{Code: ErrCodeUnableToBindSocket}))
}

func TestIsCodeMatchesWrappedError(t *testing.T) {
	err := wrapOp("Bind", "ep-7", socket.ErrAlreadyBound)
	assert.True(t, IsCode(err, ErrCodeAlreadyBound))
	assert.False(t, IsCode(err, ErrCodeUnableToListen))
	assert.False(t, IsCode(nil, ErrCodeAlreadyBound))
}

func TestIsCodeRejectsPlainError(t *testing.T) {
	assert.False(t, IsCode(errors.New("plain"), ErrCodeUnknown))
}
