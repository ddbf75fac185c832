package diffpatch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/op"
)

func apply(t *testing.T, s *merge.State, c *change.Change) {
	t.Helper()
	blob, err := change.Encode(c)
	require.NoError(t, err)
	decoded, err := change.Decode(blob)
	require.NoError(t, err)
	require.NoError(t, s.Apply(decoded))
}

func findPatch(patches []Patch, kind PatchKind) (Patch, bool) {
	for _, p := range patches {
		if p.Kind == kind {
			return p, true
		}
	}
	return Patch{}, false
}

func TestDiffPutNewKey(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	before := s.Graph.Heads()

	c := &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("title"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "hello"}},
	}}
	apply(t, s, c)
	after := s.Graph.Heads()

	patches, ok := Diff(s, before, after)
	require.True(t, ok)
	require.Len(t, patches, 1)
	require.Equal(t, PatchPut, patches[0].Kind)
	require.Equal(t, "hello", patches[0].Value.Str)
	require.Equal(t, "title", patches[0].Path[0].Key)
}

func TestDiffUnknownHeadsFails(t *testing.T) {
	s := merge.New(nil)
	bogus := identity.Hash{}
	bogus[0] = 0xFF
	_, ok := Diff(s, nil, []identity.Hash{bogus})
	require.False(t, ok)
}

func TestDiffDeleteKey(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)

	apply(t, s, &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "v"}},
	}})
	before := s.Graph.Heads()

	apply(t, s, &change.Change{Actor: a, Seq: 2, StartOp: 2, Ops: []op.Op{
		{ID: identity.OpId{Counter: 2, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionDelete,
			Predecessors: []identity.OpId{{Counter: 1, Actor: a}}},
	}})
	after := s.Graph.Heads()

	patches, ok := Diff(s, before, after)
	require.True(t, ok)
	del, ok := findPatch(patches, PatchDel)
	require.True(t, ok)
	require.Equal(t, "k", del.Text)
}

func TestDiffCounterIncrement(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)

	apply(t, s, &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("n"), Action: op.ActionPut, Value: op.Value{Type: op.TypeCounter, Int: 5}},
	}})
	before := s.Graph.Heads()

	apply(t, s, &change.Change{Actor: a, Seq: 2, StartOp: 2, Ops: []op.Op{
		{ID: identity.OpId{Counter: 2, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("n"), Action: op.ActionIncrement,
			Increment: 3, Predecessors: []identity.OpId{{Counter: 1, Actor: a}}},
	}})
	after := s.Graph.Heads()

	patches, ok := Diff(s, before, after)
	require.True(t, ok)
	inc, ok := findPatch(patches, PatchInc)
	require.True(t, ok)
	require.Equal(t, int64(3), inc.Delta)
}

func TestDiffNestedObjectRecurses(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	before := s.Graph.Heads()

	mapID := identity.OpId{Counter: 1, Actor: a}
	apply(t, s, &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: mapID, Obj: identity.Root, Locator: op.MapLocator("profile"), Action: op.ActionMakeMap},
		{ID: identity.OpId{Counter: 2, Actor: a}, Obj: identity.NewObjId(mapID), Locator: op.MapLocator("name"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "Ann"}},
	}})
	after := s.Graph.Heads()

	patches, ok := Diff(s, before, after)
	require.True(t, ok)
	var sawNested bool
	for _, p := range patches {
		if p.Kind == PatchPut && len(p.Path) == 2 && p.Path[1].Key == "name" {
			require.Equal(t, "Ann", p.Value.Str)
			sawNested = true
		}
	}
	require.True(t, sawNested, "expected a nested put patch for profile.name")
}

func TestDiffNoChangeIsEmpty(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	apply(t, s, &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: identity.OpId{Counter: 1, Actor: a}, Obj: identity.Root, Locator: op.MapLocator("k"), Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "v"}},
	}})
	heads := s.Graph.Heads()

	patches, ok := Diff(s, heads, heads)
	require.True(t, ok)
	require.Empty(t, patches)
}

func TestDiffTextSplice(t *testing.T) {
	s := merge.New(nil)
	a := testutil.Actor(t, 1)
	textID := identity.OpId{Counter: 1, Actor: a}

	apply(t, s, &change.Change{Actor: a, Seq: 1, StartOp: 1, Ops: []op.Op{
		{ID: textID, Obj: identity.Root, Locator: op.MapLocator("body"), Action: op.ActionMakeText},
	}})
	before := s.Graph.Heads()

	obj := identity.NewObjId(textID)
	h := identity.OpId{Counter: 2, Actor: a}
	e := identity.OpId{Counter: 3, Actor: a}
	l := identity.OpId{Counter: 4, Actor: a}
	apply(t, s, &change.Change{Actor: a, Seq: 2, StartOp: 2, Ops: []op.Op{
		{ID: h, Obj: obj, Locator: op.ElemLocator(identity.OpId{}), Insert: true, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "h"}},
		{ID: e, Obj: obj, Locator: op.ElemLocator(h), Insert: true, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "e"}},
		{ID: l, Obj: obj, Locator: op.ElemLocator(e), Insert: true, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "y"}},
	}})
	after := s.Graph.Heads()

	patches, ok := Diff(s, before, after)
	require.True(t, ok)
	splice, ok := findPatch(patches, PatchSpliceText)
	require.True(t, ok)
	require.Equal(t, "hey", splice.Text)
	require.Equal(t, 0, splice.Index)
}
