package syncproto

import (
	"encoding/binary"

	"github.com/holiman/bloomfilter/v2"

	"github.com/Polqt/crdtcore/identity"
)

// bloomP is the false-positive target fixed by SPEC_FULL.md's resolution of
// §9's first open question.
const bloomP = 0.01

// hashKey adapts a 32-byte change hash to the hash.Hash64 interface
// bloomfilter.Filter.Add/Contains require: only Sum64 is ever called by the
// filter's internal double-hashing, so the rest are unreachable stubs.
type hashKey uint64

func (h hashKey) Write(p []byte) (int, error) { return len(p), nil }
func (h hashKey) Sum(b []byte) []byte         { return b }
func (h hashKey) Reset()                      {}
func (h hashKey) Size() int                   { return 8 }
func (h hashKey) BlockSize() int              { return 8 }
func (h hashKey) Sum64() uint64               { return uint64(h) }

func keyOf(h identity.Hash) hashKey {
	return hashKey(binary.LittleEndian.Uint64(h[:8]))
}

// buildBloom constructs a filter over hashes, sized for a ~bloomP false
// positive rate at this set's size (spec §4.7 point 2).
func buildBloom(hashes []identity.Hash) (*bloomfilter.Filter, error) {
	n := uint64(len(hashes))
	if n == 0 {
		n = 1
	}
	f, err := bloomfilter.NewOptimal(n, bloomP)
	if err != nil {
		return nil, err
	}
	for _, h := range hashes {
		f.Add(keyOf(h))
	}
	return f, nil
}

func bloomContains(f *bloomfilter.Filter, h identity.Hash) bool {
	if f == nil {
		return false
	}
	return f.Contains(keyOf(h))
}

// newFilterFromBytes unmarshals a Bloom filter received on the wire.
func newFilterFromBytes(b []byte) (*bloomfilter.Filter, error) {
	f := new(bloomfilter.Filter)
	if err := f.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return f, nil
}
