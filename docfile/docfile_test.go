package docfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/op"
)

func applyPut(t *testing.T, s *merge.State, a identity.Actor, seq uint64, ctr uint64, key, val string) *change.Change {
	t.Helper()
	c := &change.Change{Actor: a, Seq: seq, StartOp: ctr, Ops: []op.Op{
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

func TestSaveLoadRoundTripUncompressed(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	applyPut(t, s, a, 1, 1, "x", "one")
	applyPut(t, s, a, 2, 2, "y", "two")

	blob, err := Save(s, false)
	require.NoError(t, err)

	loaded, err := Load(blob, nil)
	require.NoError(t, err)
	require.Equal(t, s.Graph.Heads(), loaded.Graph.Heads())

	root, err := loaded.Store.Object(identity.Root)
	require.NoError(t, err)
	wx, ok := root.Keys["x"].Winner()
	require.True(t, ok)
	require.Equal(t, "one", wx.Value.Str)
	wy, ok := root.Keys["y"].Winner()
	require.True(t, ok)
	require.Equal(t, "two", wy.Value.Str)
}

func TestSaveLoadRoundTripCompressed(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	applyPut(t, s, a, 1, 1, "x", "one")

	blob, err := Save(s, true)
	require.NoError(t, err)
	require.Equal(t, byte(1), blob[5])

	loaded, err := Load(blob, nil)
	require.NoError(t, err)
	require.Equal(t, s.Graph.Heads(), loaded.Graph.Heads())
}

func TestSaveSinceOnlyEmitsNewChanges(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	applyPut(t, s, a, 1, 1, "x", "one")
	since := s.Graph.Heads()
	// A second actor's first change, so the incremental blob loads into an
	// empty state without a per-actor seq gap.
	b := testutil.Actor(t, 2)
	applyPut(t, s, b, 1, 2, "y", "two")

	blob, err := SaveSince(s, since, false)
	require.NoError(t, err)

	loaded, err := Load(blob, nil)
	require.NoError(t, err)

	root, err := loaded.Store.Object(identity.Root)
	require.NoError(t, err)
	_, hasX := root.Keys["x"]
	require.False(t, hasX)
	wy, ok := root.Keys["y"].Winner()
	require.True(t, ok)
	require.Equal(t, "two", wy.Value.Str)
}

func TestSaveSinceUnknownHeadFails(t *testing.T) {
	s := merge.New(nil)
	bogus := identity.Hash{}
	bogus[0] = 0x7a
	_, err := SaveSince(s, []identity.Hash{bogus}, false)
	require.ErrorIs(t, err, ErrMissingDeps)
}

func TestLoadRejectsTamperedHash(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	applyPut(t, s, a, 1, 1, "x", "one")

	blob, err := Save(s, false)
	require.NoError(t, err)
	tampered := append([]byte(nil), blob...)
	tampered[len(tampered)-1] ^= 0xFF

	_, err = Load(tampered, nil)
	require.Error(t, err)
}

func TestLoadRejectsBadMagic(t *testing.T) {
	_, err := Load([]byte{0, 0, 0, 0, 0, 0}, nil)
	require.ErrorIs(t, err, ErrMalformedMessage)
}
