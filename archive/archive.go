package archive

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/pebble/v2"
	logging "github.com/ipfs/go-log/v2"
	"github.com/tanglekit/iriapi/validate"
)

var logger = logging.Logger("archive")

// Archive persists raw transaction trytes fetched from a node, keyed by
// transaction hash. It is safe for concurrent use.
type Archive struct {
	db     *pebble.DB
	p      *pool
	closed atomic.Bool
}

// Record is an archived transaction.
type Record struct {
	Hash      string
	Trytes    string
	FetchedAt time.Time
}

// New opens the archive at path, creating it if it does not exist.
func New(path string, opts *pebble.Options) (*Archive, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	opts.EnsureDefaults()
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, err
	}
	return &Archive{
		db: db,
		p:  newPool(),
	}, nil
}

// Put archives the trytes of the transaction identified by hash.
func (a *Archive) Put(hash, trytes string, fetchedAt time.Time) error {
	if err := checkRecord(hash, trytes); err != nil {
		return err
	}
	k := a.p.leaseKey()
	defer k.Close()
	k.trytesKey(hash)

	rb := a.p.leaseRecordBuffer()
	defer rb.Close()
	rb.encode(trytes, fetchedAt)

	return a.db.Set(k.buf, rb.buf, pebble.NoSync)
}

// PutAll archives trytes positionally paired with hashes, as returned by a
// getTrytes command, in a single batch. Pairing stops at the shorter of the
// two slices. Entries the node reported as unknown, i.e. empty or all-9
// trytes, are skipped.
func (a *Archive) PutAll(hashes, trytes []string, fetchedAt time.Time) (int, error) {
	n := len(hashes)
	if len(trytes) < n {
		n = len(trytes)
	}

	batch := a.db.NewBatch()
	defer batch.Close()
	k := a.p.leaseKey()
	defer k.Close()
	rb := a.p.leaseRecordBuffer()
	defer rb.Close()

	var count int
	for i := 0; i < n; i++ {
		if isUnknown(trytes[i]) {
			continue
		}
		if err := checkRecord(hashes[i], trytes[i]); err != nil {
			return 0, err
		}
		k.trytesKey(hashes[i])
		rb.encode(trytes[i], fetchedAt)
		// Batch.Set copies key and value, so the buffers may be reused.
		if err := batch.Set(k.buf, rb.buf, nil); err != nil {
			return 0, err
		}
		count++
	}
	if count == 0 {
		return 0, nil
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		return 0, err
	}
	logger.Debugw("Archived trytes", "count", count)
	return count, nil
}

// Get returns the archived record of the transaction identified by hash.
// ErrNotFound is returned when no record exists.
func (a *Archive) Get(hash string) (Record, error) {
	if !validate.IsHash(hash) {
		return Record{}, ErrInvalidRecord{Hash: hash}
	}
	k := a.p.leaseKey()
	k.trytesKey(hash)

	v, vClose, err := a.db.Get(k.buf)
	_ = k.Close()
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		logger.Debugw("failed to get record", "hash", hash, "err", err)
		return Record{}, err
	}
	defer vClose.Close()

	trytes, fetchedAt, err := decodeRecord(v)
	if err != nil {
		return Record{}, ErrCorrupt{Hash: hash, Err: err}
	}
	return Record{
		Hash:      hash[:validate.HashTrytesSize],
		Trytes:    trytes,
		FetchedAt: fetchedAt,
	}, nil
}

// Delete removes the record of the transaction identified by hash, if any.
func (a *Archive) Delete(hash string) error {
	if !validate.IsHash(hash) {
		return ErrInvalidRecord{Hash: hash}
	}
	k := a.p.leaseKey()
	defer k.Close()
	k.trytesKey(hash)
	return a.db.Delete(k.buf, pebble.NoSync)
}

func (a *Archive) Flush() error {
	return a.db.Flush()
}

// Close flushes and closes the archive. Only the first call has an effect;
// later or concurrent calls return nil.
func (a *Archive) Close() error {
	if !a.closed.CompareAndSwap(false, true) {
		return nil
	}
	ferr := a.db.Flush()
	cerr := a.db.Close()
	// Prioritise on returning close errors over flush errors, since it is more likely to contain
	// useful information about the failure root cause.
	if cerr != nil {
		return cerr
	}
	return ferr
}

// Metrics returns underlying pebble DB metrics
func (a *Archive) Metrics() *pebble.Metrics {
	return a.db.Metrics()
}

func checkRecord(hash, trytes string) error {
	if !validate.IsHash(hash) || !validate.IsTrytes(trytes) {
		return ErrInvalidRecord{Hash: hash}
	}
	return nil
}

// isUnknown reports whether trytes is what a node returns for a hash it has
// no transaction for.
func isUnknown(trytes string) bool {
	for i := 0; i < len(trytes); i++ {
		if trytes[i] != '9' {
			return false
		}
	}
	return true
}
