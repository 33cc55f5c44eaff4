package nodetest

import (
	"errors"

	"github.com/tanglekit/iriapi/archive"
)

var _ Store = ArchiveStore{}

// ArchiveStore serves the transactions held in a tryte archive.
type ArchiveStore struct {
	Archive *archive.Archive
}

func (a ArchiveStore) Trytes(hash string) (string, bool, error) {
	r, err := a.Archive.Get(hash)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return r.Trytes, true, nil
}
