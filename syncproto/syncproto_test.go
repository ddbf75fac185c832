package syncproto

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/op"
)

func put(t *testing.T, s *merge.State, a identity.Actor, seq, ctr uint64, key, val string, deps []identity.Hash) *change.Change {
	t.Helper()
	c := &change.Change{Actor: a, Seq: seq, StartOp: ctr, Deps: deps, Ops: []op.Op{
		{ID: identity.OpId{Counter: ctr, Actor: a}, Obj: identity.Root, Locator: op.MapLocator(key),
			Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: val}},
	}}
	blob, err := change.Encode(c)
	require.NoError(t, err)
	decoded, err := change.Decode(blob)
	require.NoError(t, err)
	require.NoError(t, s.Apply(decoded))
	return decoded
}

// syncUntilConverged drives the generate/receive loop in both directions
// until neither side has anything new to say, bounded to avoid an infinite
// loop on a test bug (spec §8.1 "sync convergence").
func syncUntilConverged(t *testing.T, a, b *merge.State, sa, sb *SyncState) {
	t.Helper()
	for round := 0; round < 50; round++ {
		msgA, okA, err := Generate(a, sa)
		require.NoError(t, err)
		msgB, okB, err := Generate(b, sb)
		require.NoError(t, err)

		if !okA && !okB {
			return
		}
		if okA {
			require.NoError(t, Receive(b, sb, msgA))
		}
		if okB {
			require.NoError(t, Receive(a, sa, msgB))
		}
	}
	t.Fatal("sync did not converge within round budget")
}

func TestEmptySyncProducesNothingAfterFirstRound(t *testing.T) {
	a := merge.New(nil)
	b := merge.New(nil)
	sa, sb := NewState(), NewState()

	syncUntilConverged(t, a, b, sa, sb)

	_, ok, err := Generate(a, sa)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOfferAllFromNothing(t *testing.T) {
	a := merge.New(nil)
	b := merge.New(nil)
	sa, sb := NewState(), NewState()
	actorA := testutil.Actor(t, 1)

	var deps []identity.Hash
	for i := 0; i < 10; i++ {
		c := put(t, a, actorA, uint64(i+1), uint64(i+1), "k", string(rune('0'+i)), deps)
		deps = []identity.Hash{c.Hash}
	}

	syncUntilConverged(t, a, b, sa, sb)

	require.Equal(t, a.Graph.Heads(), b.Graph.Heads())
	rootB, err := b.Store.Object(identity.Root)
	require.NoError(t, err)
	winner, ok := rootB.Keys["k"].Winner()
	require.True(t, ok)
	require.Equal(t, "9", winner.Value.Str)
}

func TestSimultaneousDisjointKeysConverge(t *testing.T) {
	a := merge.New(nil)
	b := merge.New(nil)
	sa, sb := NewState(), NewState()
	actorA := testutil.Actor(t, 1)
	actorB := testutil.Actor(t, 2)

	var depsA, depsB []identity.Hash
	for i := 0; i < 5; i++ {
		c := put(t, a, actorA, uint64(i+1), uint64(i+1), "x", string(rune('0'+i)), depsA)
		depsA = []identity.Hash{c.Hash}
	}
	for i := 0; i < 5; i++ {
		c := put(t, b, actorB, uint64(i+1), uint64(i+1), "y", string(rune('0'+i)), depsB)
		depsB = []identity.Hash{c.Hash}
	}

	syncUntilConverged(t, a, b, sa, sb)

	require.Equal(t, a.Graph.Heads(), b.Graph.Heads())
	for _, s := range []*merge.State{a, b} {
		root, err := s.Store.Object(identity.Root)
		require.NoError(t, err)
		wx, _ := root.Keys["x"].Winner()
		wy, _ := root.Keys["y"].Winner()
		require.Equal(t, "4", wx.Value.Str)
		require.Equal(t, "4", wy.Value.Str)
	}
}

func TestHasOurChanges(t *testing.T) {
	a := merge.New(nil)
	b := merge.New(nil)
	sa, sb := NewState(), NewState()
	actorA := testutil.Actor(t, 1)
	put(t, a, actorA, 1, 1, "k", "v", nil)

	require.False(t, HasOurChanges(a, sa))
	syncUntilConverged(t, a, b, sa, sb)
	require.True(t, HasOurChanges(a, sa))
	require.True(t, HasOurChanges(b, sb))
}

func TestMessageEncodeDecodeRoundTrip(t *testing.T) {
	a := merge.New(nil)
	actorA := testutil.Actor(t, 1)
	c := put(t, a, actorA, 1, 1, "k", "v", nil)
	blob, err := change.Encode(c)
	require.NoError(t, err)

	var h identity.Hash
	h[0] = 1
	msg := &Message{
		Heads:   []identity.Hash{c.Hash},
		Needs:   []identity.Hash{h},
		Haves:   []Have{{LastSync: nil, Filter: []byte{1, 2, 3}}},
		Changes: [][]byte{blob},
	}
	encoded := EncodeMessage(msg)
	decoded, err := DecodeMessage(encoded)
	require.NoError(t, err)
	require.Equal(t, msg.Heads, decoded.Heads)
	require.Equal(t, msg.Needs, decoded.Needs)
	require.Equal(t, msg.Haves, decoded.Haves)
	require.Equal(t, msg.Changes, decoded.Changes)
}

func TestStateEncodeDecodeRoundTrip(t *testing.T) {
	var h1, h2 identity.Hash
	h1[0], h2[0] = 1, 2
	s := &SyncState{
		SharedHeads:   []identity.Hash{h1},
		LastSentHeads: []identity.Hash{h1},
		TheirHeads:    []identity.Hash{h2},
		TheirNeed:     []identity.Hash{h2},
		SentHashes:    map[identity.Hash]struct{}{h1: {}},
	}
	blob := EncodeState(s)
	decoded, err := DecodeState(blob)
	require.NoError(t, err)
	require.Equal(t, s.SharedHeads, decoded.SharedHeads)
	require.Equal(t, s.TheirNeed, decoded.TheirNeed)
	require.Equal(t, s.SentHashes, decoded.SentHashes)
}

func TestDecodeMessageRejectsBadTag(t *testing.T) {
	_, err := DecodeMessage([]byte{0, Version})
	require.ErrorIs(t, err, ErrMalformedMessage)
}
