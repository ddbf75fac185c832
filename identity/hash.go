package identity

import (
	"bytes"
	"encoding/hex"
)

// HashSize is the digest width of a change hash (SHA-256, spec §3.1/§4.2).
const HashSize = 32

// Hash is the 32-byte content identity of a change.
type Hash [HashSize]byte

// String renders the hash as lowercase hex.
func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// IsZero reports whether h is the unset hash (used as a "no hash yet"
// sentinel before a change is encoded).
func (h Hash) IsZero() bool { return h == Hash{} }

// Compare gives the byte-lexicographic order used to tie-break topological
// sorts of the change graph (spec §3.4).
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// HashFromHex parses a hex-encoded hash, as produced by String.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, err
	}
	if len(b) != HashSize {
		return h, errHashSize
	}
	copy(h[:], b)
	return h, nil
}

var errHashSize = &hashSizeError{}

type hashSizeError struct{}

func (*hashSizeError) Error() string { return "identity: hash must be 32 bytes" }

// SortHashes returns a new slice of hashes sorted by byte order, the
// canonical order required when hashes are serialized (spec §4.2/§6.1).
func SortHashes(hs []Hash) []Hash {
	out := append([]Hash(nil), hs...)
	// insertion sort: hash sets in practice are small (deps, heads)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Compare(out[j]) > 0; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
