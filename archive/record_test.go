package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/pebble/v2"
	"github.com/stretchr/testify/require"
)

func TestRecord_EncodeDecode(t *testing.T) {
	p := newPool()
	rb := p.leaseRecordBuffer()
	defer rb.Close()

	fetchedAt := time.UnixMilli(1_700_000_000_000)
	rb.encode("TRYTES", fetchedAt)

	trytes, gotFetchedAt, err := decodeRecord(rb.buf)
	require.NoError(t, err)
	require.Equal(t, "TRYTES", trytes)
	require.True(t, fetchedAt.Equal(gotFetchedAt))
}

func TestRecord_DecodeInvalid(t *testing.T) {
	p := newPool()
	rb := p.leaseRecordBuffer()
	defer rb.Close()
	rb.encode("TRYTES", time.Now())

	tampered := append([]byte(nil), rb.buf...)
	tampered[len(tampered)-1] = 'X'
	badVersion := append([]byte(nil), rb.buf...)
	badVersion[0] = recordVersion + 1

	tests := []struct {
		name  string
		given []byte
	}{
		{name: "empty", given: nil},
		{name: "too short", given: []byte{recordVersion, 1, 2}},
		{name: "tampered trytes", given: tampered},
		{name: "unsupported version", given: badVersion},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := decodeRecord(test.given)
			require.Error(t, err)
		})
	}
}

func TestArchive_GetCorrupt(t *testing.T) {
	subject, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	defer subject.Close()

	hash := strings.Repeat("C", 81)
	k := subject.p.leaseKey()
	k.trytesKey(hash)
	require.NoError(t, subject.db.Set(k.buf, []byte("lobster"), pebble.NoSync))
	_ = k.Close()

	_, err = subject.Get(hash)
	require.Error(t, err)
	require.IsType(t, ErrCorrupt{}, err)
}
