package syncproto

import (
	"errors"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
)

// maxBatch caps how many changes a single Generate call ships; the rest
// are deferred to a later round (spec §4.7 point 4, "implementation-
// defined size").
const maxBatch = 64

// Generate computes the next outgoing sync message for state against
// state's local document, or (nil, false) if there is nothing new to say
// (spec §4.7 "generate", points 1-6).
func Generate(state *merge.State, sync *SyncState) (*Message, bool, error) {
	localHeads := state.Graph.Heads()

	if headsEqual(localHeads, sync.LastSentHeads) &&
		headsEqual(localHeads, sync.TheirHeads) &&
		len(sync.TheirNeed) == 0 {
		return nil, false, nil
	}

	candidates := state.Graph.ChangesAfter(sync.SharedHeads)
	candidateHashes := make([]identity.Hash, len(candidates))
	for i, c := range candidates {
		candidateHashes[i] = c.Hash
	}
	filter, err := buildBloom(candidateHashes)
	if err != nil {
		return nil, false, err
	}
	filterBytes, err := filter.MarshalBinary()
	if err != nil {
		return nil, false, err
	}
	have := Have{LastSync: append([]identity.Hash{}, sync.SharedHeads...), Filter: filterBytes}

	seen := make(map[identity.Hash]bool)
	var toSend []*change.Change
	for _, c := range candidates {
		if len(toSend) >= maxBatch {
			break
		}
		if _, already := sync.SentHashes[c.Hash]; already {
			continue
		}
		if bloomContains(sync.theirBloom, c.Hash) {
			continue
		}
		if !seen[c.Hash] {
			seen[c.Hash] = true
			toSend = append(toSend, c)
		}
	}
	for _, h := range sync.TheirNeed {
		if len(toSend) >= maxBatch {
			break
		}
		if seen[h] {
			continue
		}
		if c, ok := state.Graph.Get(h); ok {
			seen[h] = true
			toSend = append(toSend, c)
		}
	}

	blobs := make([][]byte, 0, len(toSend))
	for _, c := range toSend {
		blob, err := change.Encode(c)
		if err != nil {
			return nil, false, err
		}
		blobs = append(blobs, blob)
		sync.SentHashes[c.Hash] = struct{}{}
	}

	msg := &Message{
		Heads:   localHeads,
		Needs:   append([]identity.Hash{}, sync.NeedFromPeer...),
		Haves:   []Have{have},
		Changes: blobs,
	}
	sync.LastSentHeads = localHeads
	sync.InFlight = true
	return msg, true, nil
}

// Receive applies an incoming sync message: installs any changes we don't
// yet have (buffering those whose deps are still missing), updates the
// shared-heads frontier, and records the peer's needs and Bloom filter for
// the next Generate call (spec §4.7 "receive", points 1-5).
func Receive(state *merge.State, sync *SyncState, msg *Message) error {
	sync.TheirHeads = msg.Heads
	sync.InFlight = false

	var stillNeed []identity.Hash
	for _, h := range msg.Heads {
		if !state.Graph.Has(h) && !containsHash(stillNeed, h) {
			stillNeed = append(stillNeed, h)
		}
	}
	sync.NeedFromPeer = stillNeed

	sync.TheirNeed = unionHashes(sync.TheirNeed, msg.Needs)

	if len(msg.Haves) > 0 && len(msg.Haves[0].Filter) > 0 {
		f, err := newFilterFromBytes(msg.Haves[0].Filter)
		if err == nil {
			sync.theirBloom = f
		}
	}

	if err := applyBatch(state, msg.Changes); err != nil {
		return err
	}

	ready := state.Graph.DrainReady()
	for _, c := range ready {
		if err := state.Apply(c); err != nil && !errors.Is(err, merge.ErrDuplicateChange) {
			return err
		}
	}

	localHeads := state.Graph.Heads()
	sync.SharedHeads = state.Graph.CommonFrontier(sync.TheirHeads, localHeads)

	var satisfied []identity.Hash
	for _, h := range sync.NeedFromPeer {
		if !state.Graph.Has(h) {
			satisfied = append(satisfied, h)
		}
	}
	sync.NeedFromPeer = satisfied

	return nil
}

// applyBatch applies blobs in as many passes as needed so that a change
// appearing before a dep it needs (within the same batch) still succeeds,
// buffering anything still missing deps after the batch is exhausted.
func applyBatch(state *merge.State, blobs [][]byte) error {
	var changes []*change.Change
	for _, blob := range blobs {
		c, err := change.Decode(blob)
		if err != nil {
			return err
		}
		changes = append(changes, c)
	}

	remaining := changes
	for {
		var next []*change.Change
		progressed := false
		for _, c := range remaining {
			if state.Graph.Has(c.Hash) {
				continue
			}
			err := state.Apply(c)
			switch {
			case err == nil:
				progressed = true
			case errors.Is(err, merge.ErrDuplicateChange):
				progressed = true
			case errors.Is(err, merge.ErrMissingDeps):
				next = append(next, c)
			default:
				return err
			}
		}
		remaining = next
		if !progressed || len(remaining) == 0 {
			break
		}
	}
	for _, c := range remaining {
		state.Graph.Buffer(c)
	}
	return nil
}

// HasOurChanges reports whether the peer (as last reported via
// sync.SharedHeads) already has every change we have (spec §4.7
// "hasOurChanges").
func HasOurChanges(state *merge.State, sync *SyncState) bool {
	localHeads := state.Graph.Heads()
	reachable := state.Graph.Reachable(sync.SharedHeads)
	for _, h := range localHeads {
		if _, ok := reachable[h]; !ok {
			return false
		}
	}
	return true
}
