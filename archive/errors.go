package archive

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the archive holds no record for a hash.
var ErrNotFound = errors.New("record not found")

type (
	ErrInvalidRecord struct {
		Hash string
	}
	ErrCorrupt struct {
		Hash string
		Err  error
	}
)

func (e ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid record for hash %q: hash and trytes must be valid trytes", e.Hash)
}

func (e ErrCorrupt) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt record for hash %s: %s", e.Hash, e.Err.Error())
	}
	return fmt.Sprintf("corrupt record for hash %s", e.Hash)
}

func (e ErrCorrupt) Unwrap() error {
	return e.Err
}
