package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/multiformats/go-varint"
	"lukechampine.com/blake3"
)

// recordVersion is the first byte of every encoded record.
//
// A record is encoded as:
//
//	version | blake3-256(trytes) | uvarint(fetched at, unix ms) | trytes
const recordVersion byte = 1

const checksumLength = 32

var _ io.Closer = (*recordBuffer)(nil)

type recordBuffer struct {
	buf []byte
	p   *pool
}

func (rb *recordBuffer) encode(trytes string, fetchedAt time.Time) {
	sum := blake3.Sum256([]byte(trytes))
	ms := uint64(0)
	if fetchedAt.UnixMilli() > 0 {
		ms = uint64(fetchedAt.UnixMilli())
	}
	rb.buf = append(rb.buf[:0], recordVersion)
	rb.buf = append(rb.buf, sum[:]...)
	rb.buf = append(rb.buf, varint.ToUvarint(ms)...)
	rb.buf = append(rb.buf, trytes...)
}

func (rb *recordBuffer) Close() error {
	if cap(rb.buf) <= pooledRecordBufferMaxCap {
		rb.buf = rb.buf[:0]
		rb.p.recordBufferPool.Put(rb)
	}
	return nil
}

// decodeRecord decodes an encoded record, verifying its checksum. The
// returned trytes do not share memory with b.
func decodeRecord(b []byte) (string, time.Time, error) {
	if len(b) < 1+checksumLength+1 {
		return "", time.Time{}, errors.New("record too short")
	}
	if b[0] != recordVersion {
		return "", time.Time{}, fmt.Errorf("unsupported record version %d", b[0])
	}
	sum := b[1 : 1+checksumLength]
	ms, n, err := varint.FromUvarint(b[1+checksumLength:])
	if err != nil {
		return "", time.Time{}, err
	}
	trytes := b[1+checksumLength+n:]
	got := blake3.Sum256(trytes)
	if !bytes.Equal(sum, got[:]) {
		return "", time.Time{}, errors.New("checksum mismatch")
	}
	var fetchedAt time.Time
	if ms != 0 {
		fetchedAt = time.UnixMilli(int64(ms))
	}
	return string(trytes), fetchedAt, nil
}
