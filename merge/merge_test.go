package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/op"
)

func encodeChange(t *testing.T, c *change.Change) *change.Change {
	t.Helper()
	blob, err := change.Encode(c)
	require.NoError(t, err)
	decoded, err := change.Decode(blob)
	require.NoError(t, err)
	return decoded
}

func TestApplySingleChange(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	c := &change.Change{
		Actor: a, Seq: 1, StartOp: 1,
		Ops: []op.Op{
			{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("title"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "hello"}},
		},
	}
	c = encodeChange(t, c)

	require.NoError(t, s.Apply(c))
	require.Equal(t, uint64(1), s.LastSeq(a))
	require.Equal(t, []identity.Hash{c.Hash}, s.Graph.Heads())

	root, err := s.Store.Object(identity.Root)
	require.NoError(t, err)
	winner, ok := root.Keys["title"].Winner()
	require.True(t, ok)
	require.Equal(t, "hello", winner.Value.Str)
}

func TestApplyRejectsSeqGap(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	c := &change.Change{Actor: a, Seq: 2, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}},
	}}
	c = encodeChange(t, c)
	require.ErrorIs(t, s.Apply(c), ErrSeqGap)
}

func TestApplyRejectsMissingDeps(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	missing := identity.Hash{}
	missing[0] = 0xAB
	c := &change.Change{Actor: a, Seq: 1, StartOp: 1, Deps: []identity.Hash{missing}, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}},
	}}
	c = encodeChange(t, c)
	require.ErrorIs(t, s.Apply(c), ErrMissingDeps)
}

func TestApplyRollsBackOnFailedOp(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	c := &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("first"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "ok"}},
		// Second op deletes a key that was never written: must fail and
		// roll back the first op too (atomic commit, spec §4.4 point 3).
		{ID: identity.OpId{Counter: 2, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("nonexistent"), Action: op.ActionDelete},
	}}
	c = encodeChange(t, c)

	err := s.Apply(c)
	require.ErrorIs(t, err, change.ErrInvalidChange)

	root, rerr := s.Store.Object(identity.Root)
	require.NoError(t, rerr)
	_, ok := root.Keys["first"]
	require.False(t, ok, "first op must have been rolled back")
	require.Empty(t, s.Graph.Heads())
	require.Equal(t, uint64(0), s.LastSeq(a))
}

func TestApplyCreatesChildObjectAndWritesIntoIt(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	makeOp := op.Op{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("profile"), Action: op.ActionMakeMap}
	c := &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{makeOp}}
	c = encodeChange(t, c)
	require.NoError(t, s.Apply(c))

	childID := identity.NewObjId(makeOp.ID)
	child, err := s.Store.Object(childID)
	require.NoError(t, err)
	require.NotNil(t, child)
}

func TestApplyDuplicateChangeIsRejected(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)
	c := &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}},
	}}
	c = encodeChange(t, c)
	require.NoError(t, s.Apply(c))
	require.ErrorIs(t, s.Apply(c), ErrDuplicateChange)
}

func TestApplyChainedChangesBuildCommonSequence(t *testing.T) {
	s := New(nil)
	a := testutil.Actor(t, 1)

	c1 := &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "v1"}},
	}}
	c1 = encodeChange(t, c1)
	require.NoError(t, s.Apply(c1))

	c2 := &change.Change{Actor: a, Seq: 2, StartOp: 2, Deps: []identity.Hash{c1.Hash}, Ops: []op.Op{
		{ID: identity.OpId{Counter: 2, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "v2"},
			Predecessors: []identity.OpId{{Counter: 1, Actor: a}}},
	}}
	c2 = encodeChange(t, c2)
	require.NoError(t, s.Apply(c2))

	root, _ := s.Store.Object(identity.Root)
	winner, ok := root.Keys["k"].Winner()
	require.True(t, ok)
	require.Equal(t, "v2", winner.Value.Str)
	require.Equal(t, []identity.Hash{c2.Hash}, s.Graph.Heads())
}
