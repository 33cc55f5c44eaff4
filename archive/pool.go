package archive

import (
	"sync"
)

const (
	// pooledKeyMaxCap fits a key prefix and a hash with checksum.
	pooledKeyMaxCap = 1 + 90
	// pooledRecordBufferMaxCap fits the record of a full transaction.
	pooledRecordBufferMaxCap = 4 << 10 // 4 KiB
)

type pool struct {
	keyPool          sync.Pool
	recordBufferPool sync.Pool
}

func newPool() *pool {
	var p pool
	p.keyPool.New = func() any {
		return &key{
			buf: make([]byte, 0, pooledKeyMaxCap),
			p:   &p,
		}
	}
	p.recordBufferPool.New = func() any {
		return &recordBuffer{
			buf: make([]byte, 0, pooledRecordBufferMaxCap),
			p:   &p,
		}
	}
	return &p
}

func (p *pool) leaseKey() *key {
	return p.keyPool.Get().(*key)
}

func (p *pool) leaseRecordBuffer() *recordBuffer {
	return p.recordBufferPool.Get().(*recordBuffer)
}
