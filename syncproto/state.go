// Package syncproto implements the per-peer sync-state protocol: generate
// and receive sync messages that converge two replicas using Bloom-filter
// "have" advertisements instead of shipping full hash sets (spec §4.7).
package syncproto

import (
	"github.com/holiman/bloomfilter/v2"

	"github.com/Polqt/crdtcore/identity"
)

// SyncState is one peer's bookkeeping for syncing with one other replica
// (spec §4.7). It is owned by the caller, not the document.
type SyncState struct {
	// SharedHeads are hashes we believe the peer already has.
	SharedHeads []identity.Hash
	// LastSentHeads are the local heads we advertised in our last message.
	LastSentHeads []identity.Hash
	// TheirHeads are the peer's most recently reported heads.
	TheirHeads []identity.Hash
	// TheirNeed holds hashes the peer explicitly asked us for (via their
	// message's Needs) and that we should prioritize sending.
	TheirNeed []identity.Hash
	// NeedFromPeer holds hashes named in the peer's heads that we don't
	// have yet; these become our own outgoing Needs on the next generate.
	// Not one of spec §4.7's six named fields, but required to round-trip
	// "what we need" across calls — see DESIGN.md.
	NeedFromPeer []identity.Hash
	// SentHashes are hashes we have already shipped in this session.
	SentHashes map[identity.Hash]struct{}
	// InFlight is true between a generate that produced a message and the
	// corresponding receive on this peer's side of the round trip; purely
	// advisory bookkeeping for a host driving the exchange.
	InFlight bool

	// theirBloom is the most recent Bloom filter the peer sent us,
	// transient (not part of Encode/Decode): it is only ever consulted by
	// the very next Generate call on this state.
	theirBloom *bloomfilter.Filter
}

// NewState creates a fresh, empty SyncState — used at the start of a sync
// session, and any time a prior session must be reset (spec §4.7
// "Cancellation": a new SyncState must be used after reset).
func NewState() *SyncState {
	return &SyncState{SentHashes: make(map[identity.Hash]struct{})}
}

func headsEqual(a, b []identity.Hash) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := identity.SortHashes(a), identity.SortHashes(b)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

func containsHash(hs []identity.Hash, target identity.Hash) bool {
	for _, h := range hs {
		if h == target {
			return true
		}
	}
	return false
}

func unionHashes(a, b []identity.Hash) []identity.Hash {
	seen := make(map[identity.Hash]struct{}, len(a)+len(b))
	var out []identity.Hash
	for _, h := range append(append([]identity.Hash{}, a...), b...) {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
