package validate

const (
	// TryteAlphabet lists the 27 characters a tryte string may contain.
	TryteAlphabet = "9ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// HashTrytesSize is the length of a transaction hash in trytes.
	HashTrytesSize = 81
	// HashWithChecksumTrytesSize is the length of a hash followed by its
	// 9-tryte checksum.
	HashWithChecksumTrytesSize = 90
)

// IsTrytes reports whether s is a non-empty string of trytes.
func IsTrytes(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTryte(s[i]) {
			return false
		}
	}
	return true
}

// IsTrytesWithLength reports whether s is a string of exactly n trytes.
func IsTrytesWithLength(s string, n int) bool {
	return len(s) == n && IsTrytes(s)
}

// IsHash reports whether s is a transaction hash, with or without checksum.
func IsHash(s string) bool {
	switch len(s) {
	case HashTrytesSize, HashWithChecksumTrytesSize:
		return IsTrytes(s)
	default:
		return false
	}
}

// IsArrayOfHashes reports whether every element of hashes is a valid hash.
// An empty slice is not a valid array of hashes.
func IsArrayOfHashes(hashes []string) bool {
	if len(hashes) == 0 {
		return false
	}
	for _, h := range hashes {
		if !IsHash(h) {
			return false
		}
	}
	return true
}

// InvalidHashes returns the elements of hashes that are not valid hashes, in
// the order they appear.
func InvalidHashes(hashes []string) []string {
	var invalid []string
	for _, h := range hashes {
		if !IsHash(h) {
			invalid = append(invalid, h)
		}
	}
	return invalid
}

func isTryte(c byte) bool {
	return c == '9' || (c >= 'A' && c <= 'Z')
}
