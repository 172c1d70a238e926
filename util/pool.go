package util

import "sync"

// RecvBufSize is the default receive buffer size for inbound relays.
// Each Read is bounded by it, so one printed chunk is at most this
// many bytes.
const RecvBufSize = 1024

// BufPool provides reusable receive buffers, so short-lived sessions
// don't each allocate their own.
var BufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, RecvBufSize)
		return &buf
	},
}

// GetBuf retrieves a buffer of exactly size bytes.  Callers must return
// it with [PutBuf] when finished.
func GetBuf(size int) *[]byte {
	if size <= 0 {
		size = RecvBufSize
	}
	buf := BufPool.Get().(*[]byte)
	if cap(*buf) < size {
		b := make([]byte, size)
		return &b
	}
	*buf = (*buf)[:size]
	return buf
}

// PutBuf returns a buffer to the pool for reuse.
func PutBuf(buf *[]byte) {
	if buf == nil {
		return
	}
	BufPool.Put(buf)
}
