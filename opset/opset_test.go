package opset

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/op"
)

func TestMapPutWinnerAndConflicts(t *testing.T) {
	s := New()
	root, err := s.Object(identity.Root)
	require.NoError(t, err)

	a1 := testutil.Actor(t, 1)
	a2 := testutil.Actor(t, 2)

	o1 := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}}
	o2 := op.Op{ID: identity.OpId{Counter: 1, Actor: a2}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "y"}}

	require.NoError(t, root.PutMap("k", o1))
	require.NoError(t, root.PutMap("k", o2))

	// Concurrent writes from two actors at the same counter: conflict, and
	// the winner is whichever OpId compares greater (actor bytes tie-break).
	winner, ok := root.Keys["k"].Winner()
	require.True(t, ok)
	require.Equal(t, a2, winner.ID.Actor)
	require.Len(t, root.Keys["k"].Conflicts(), 2)
}

func TestMapPutOverwriteNoLongerConflicts(t *testing.T) {
	s := New()
	root, _ := s.Object(identity.Root)
	a1 := testutil.Actor(t, 1)

	o1 := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "first"}}
	o2 := op.Op{ID: identity.OpId{Counter: 2, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "second"}, Predecessors: []identity.OpId{o1.ID}}

	require.NoError(t, root.PutMap("k", o1))
	require.NoError(t, root.PutMap("k", o2))

	winner, ok := root.Keys["k"].Winner()
	require.True(t, ok)
	require.Equal(t, "second", winner.Value.Str)
	// o2's Predecessors name o1, so o1 is overwritten and must not show up
	// as a live conflict alongside the winner.
	require.Len(t, root.Keys["k"].Conflicts(), 1)
}

func TestDeleteMakesElementInvisible(t *testing.T) {
	s := New()
	root, _ := s.Object(identity.Root)
	a1 := testutil.Actor(t, 1)

	put := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}}
	del := op.Op{ID: identity.OpId{Counter: 2, Actor: a1}, Action: op.ActionDelete, Predecessors: []identity.OpId{put.ID}}

	require.NoError(t, root.PutMap("k", put))
	require.NoError(t, root.DeleteMapKey("k", del))

	_, ok := root.Keys["k"].Winner()
	require.False(t, ok)
}

func TestCounterSumsConcurrentIncrements(t *testing.T) {
	s := New()
	root, _ := s.Object(identity.Root)
	a1, a2 := testutil.Actor(t, 1), testutil.Actor(t, 2)

	put := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeCounter, Int: 10}}
	require.NoError(t, root.PutMap("counter", put))

	inc1 := op.Op{ID: identity.OpId{Counter: 2, Actor: a1}, Action: op.ActionIncrement, Increment: 5, Predecessors: []identity.OpId{put.ID}}
	inc2 := op.Op{ID: identity.OpId{Counter: 1, Actor: a2}, Action: op.ActionIncrement, Increment: 3, Predecessors: []identity.OpId{put.ID}}
	require.NoError(t, root.PutMap("counter", inc1))
	require.NoError(t, root.PutMap("counter", inc2))

	require.Equal(t, int64(18), root.Keys["counter"].CounterValue)
}

func TestSeqInsertAndVisibleOrder(t *testing.T) {
	s := New()
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: testutil.Actor(t, 1)}, Action: op.ActionMakeList}
	listID := s.CreateObject(maker)
	list, err := s.Object(listID)
	require.NoError(t, err)

	a := testutil.Actor(t, 1)
	i1 := op.Op{ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionInsert, Insert: true, Value: op.Value{Type: op.TypeStr, Str: "a"}}
	require.NoError(t, list.InsertSeq(identity.OpId{}, i1))

	i2 := op.Op{ID: identity.OpId{Counter: 3, Actor: a}, Action: op.ActionInsert, Insert: true, Value: op.Value{Type: op.TypeStr, Str: "b"}}
	require.NoError(t, list.InsertSeq(i1.ID, i2))

	// Two concurrent inserts at the same anchor (i1): sibling order is
	// OpId-descending, newer id first.
	i3 := op.Op{ID: identity.OpId{Counter: 3, Actor: testutil.Actor(t, 2)}, Action: op.ActionInsert, Insert: true, Value: op.Value{Type: op.TypeStr, Str: "c"}}
	require.NoError(t, list.InsertSeq(i1.ID, i3))

	order := list.VisibleSeq()
	require.Len(t, order, 3)
	require.Equal(t, i1.ID, order[0])
	// i3 has actor 2 > actor 1 at equal counter 3, so it sorts before i2.
	require.Equal(t, i3.ID, order[1])
	require.Equal(t, i2.ID, order[2])
}

func TestSeqDeleteKeepsNodeForChildren(t *testing.T) {
	s := New()
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: testutil.Actor(t, 1)}, Action: op.ActionMakeList}
	listID := s.CreateObject(maker)
	list, _ := s.Object(listID)

	a := testutil.Actor(t, 1)
	i1 := op.Op{ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionInsert, Insert: true}
	require.NoError(t, list.InsertSeq(identity.OpId{}, i1))
	i2 := op.Op{ID: identity.OpId{Counter: 3, Actor: a}, Action: op.ActionInsert, Insert: true}
	require.NoError(t, list.InsertSeq(i1.ID, i2))

	del := op.Op{ID: identity.OpId{Counter: 4, Actor: a}, Action: op.ActionDelete, Predecessors: []identity.OpId{i1.ID}}
	require.NoError(t, list.DeleteSeq(i1.ID, del))

	require.Equal(t, []identity.OpId{i2.ID}, list.VisibleSeq())
	require.Equal(t, []identity.OpId{i1.ID, i2.ID}, list.AllSeq())
}

func TestValidatePredecessors(t *testing.T) {
	s := New()
	root, _ := s.Object(identity.Root)
	a1 := testutil.Actor(t, 1)
	put := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut}
	require.NoError(t, root.PutMap("k", put))

	require.True(t, root.ValidatePredecessors("k", identity.OpId{}, true, []identity.OpId{put.ID}))
	require.False(t, root.ValidatePredecessors("k", identity.OpId{}, true, []identity.OpId{{Counter: 99, Actor: a1}}))
}

func TestNextCounterAdvancesPastObserved(t *testing.T) {
	s := New()
	a1 := testutil.Actor(t, 1)
	s.Observe(identity.OpId{Counter: 5, Actor: a1})
	require.Equal(t, uint64(6), s.NextCounter())
}
