package utils

import "sync"

// ByteSlicePool provides reusable byte slices for the datagram receivers'
// 65536-byte read buffers (spec.md §4.5), avoiding one allocation per
// packet on the hot ingestion path, the same tiered-pooling idea the
// teacher applies to request bodies.
var ByteSlicePool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 65536)
		return &b
	},
}

// GetDatagramBuffer retrieves a 65536-byte scratch buffer from the pool.
func GetDatagramBuffer() *[]byte {
	return ByteSlicePool.Get().(*[]byte)
}

// PutDatagramBuffer returns a scratch buffer to the pool.
func PutDatagramBuffer(b *[]byte) {
	if b == nil || cap(*b) != 65536 {
		return
	}
	ByteSlicePool.Put(b)
}
