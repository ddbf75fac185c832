// Package change implements the on-the-wire Change format: header, deps,
// and a columnar op block, plus its content-hash identity (spec §3.3, §4.2,
// §6.1).
package change

import (
	"errors"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
)

// ErrInvalidChange covers malformed op sequences, missing predecessors
// within the change, or a non-monotonic seq (spec §7).
var ErrInvalidChange = errors.New("change: invalid change")

// ErrHashMismatch is returned when an encoded change's embedded hash
// disagrees with the recomputed one (spec §4.2).
var ErrHashMismatch = errors.New("change: hash mismatch")

// Change is a signed-by-hash batch of ops from one actor (spec §3.3).
type Change struct {
	Hash    identity.Hash // filled in at Encode time; zero before that
	Actor   identity.Actor
	Seq     uint64 // 1-based, strictly monotonic per actor
	StartOp uint64 // OpId counter of the first op in Ops
	Deps    []identity.Hash
	Time    int64 // advisory, milliseconds since epoch
	Message string
	Ops     []op.Op

	// Extra preserves unknown trailing columns verbatim across a
	// decode/re-encode round trip (spec §4.2 point 5, §6.1 forward compat).
	Extra map[uint64][]byte
}

// Heads returns the change's own hash as a singleton slice, a convenience
// for callers building frontier sets.
func (c *Change) Heads() []identity.Hash {
	if c.Hash.IsZero() {
		return nil
	}
	return []identity.Hash{c.Hash}
}

// OpIDAt returns the OpId of the op at index i within this change: the
// counters are contiguous starting at StartOp (spec §3.3).
func (c *Change) OpIDAt(i int) identity.OpId {
	return identity.OpId{Counter: c.StartOp + uint64(i), Actor: c.Actor}
}

// Validate checks the structural invariants Apply requires before touching
// the opset (spec §4.4 point 1, minus the "deps present" check which needs
// graph state the change package doesn't have).
func (c *Change) Validate() error {
	if c.Seq == 0 {
		return ErrInvalidChange
	}
	if c.StartOp == 0 {
		return ErrInvalidChange
	}
	for i, o := range c.Ops {
		want := c.OpIDAt(i)
		if o.ID != want {
			return ErrInvalidChange
		}
	}
	return nil
}
