package archive

import (
	"io"

	"github.com/tanglekit/iriapi/validate"
)

var _ io.Closer = (*key)(nil)

type (
	keyPrefix byte
	key       struct {
		buf []byte
		p   *pool
	}
)

const (
	// unknownKeyPrefix signals an unknown key prefix.
	unknownKeyPrefix keyPrefix = iota //lint:ignore U1000 - iota
	// trytesKeyPrefix represents the prefix of a key that identifies the
	// trytes of a transaction.
	trytesKeyPrefix
)

// trytesKey sets k to the key of the transaction identified by hash. The
// checksum of a 90-tryte hash is not part of the key.
func (k *key) trytesKey(hash string) {
	if len(hash) > validate.HashTrytesSize {
		hash = hash[:validate.HashTrytesSize]
	}
	k.buf = append(k.buf[:0], byte(trytesKeyPrefix))
	k.buf = append(k.buf, hash...)
}

func (k *key) Close() error {
	if cap(k.buf) <= pooledKeyMaxCap {
		k.buf = k.buf[:0]
		k.p.keyPool.Put(k)
	}
	return nil
}
