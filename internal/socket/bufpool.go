package socket

import (
	"sync"

	"github.com/behrlich/go-reactor/internal/constants"
)

// scratchPool hands out fixed-size scratch buffers for the read(2) calls
// TcpTalker.recv performs each time the reactor reports it readable. Every
// buffer is constants.RecvChunkSize bytes rather than bucketed by request
// size, since that is the only size requested.
//
// Uses the *[]byte pattern to avoid boxing a []byte header into sync.Pool's
// any parameter on every Get/Put.
var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, constants.RecvChunkSize)
		return &b
	},
}

// getScratch returns a pooled buffer of exactly constants.RecvChunkSize
// bytes. Callers must call putScratch when done.
func getScratch() []byte {
	return *scratchPool.Get().(*[]byte)
}

// putScratch returns a buffer obtained from getScratch to the pool.
func putScratch(buf []byte) {
	if cap(buf) != constants.RecvChunkSize {
		return
	}
	buf = buf[:constants.RecvChunkSize]
	scratchPool.Put(&buf)
}
