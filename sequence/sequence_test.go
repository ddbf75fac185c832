package sequence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

func newText(t *testing.T, s string) (*opset.Object, []identity.OpId) {
	t.Helper()
	store := opset.New()
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: testutil.Actor(t, 1)}, Action: op.ActionMakeText}
	id := store.CreateObject(maker)
	obj, err := store.Object(id)
	require.NoError(t, err)

	a := testutil.Actor(t, 1)
	var ids []identity.OpId
	anchor := identity.OpId{}
	ctr := uint64(2)
	for _, r := range s {
		o := op.Op{ID: identity.OpId{Counter: ctr, Actor: a}, Action: op.ActionInsert, Insert: true,
			Value: op.Value{Type: op.TypeStr, Str: string(r)}}
		require.NoError(t, obj.InsertSeq(anchor, o))
		ids = append(ids, o.ID)
		anchor = o.ID
		ctr++
	}
	return obj, ids
}

func TestLengthAndText(t *testing.T) {
	obj, _ := newText(t, "hello")
	n, err := Length(obj)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	text, err := Text(obj)
	require.NoError(t, err)
	require.Equal(t, "hello", text)
}

func TestAnchorForInsertAtStartMiddleEnd(t *testing.T) {
	obj, ids := newText(t, "ac")

	anchor, err := AnchorForInsert(obj, 0)
	require.NoError(t, err)
	require.True(t, anchor.IsZero())

	anchor, err = AnchorForInsert(obj, 1)
	require.NoError(t, err)
	require.Equal(t, ids[0], anchor)

	anchor, err = AnchorForInsert(obj, 2)
	require.NoError(t, err)
	require.Equal(t, ids[1], anchor)
}

func TestCursorSentinels(t *testing.T) {
	obj, _ := newText(t, "abc")
	idx, err := Resolve(obj, Start())
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	idx, err = Resolve(obj, End())
	require.NoError(t, err)
	require.Equal(t, 3, idx)
}

func TestCursorResolvesThroughDeletion(t *testing.T) {
	obj, ids := newText(t, "abc")
	a := testutil.Actor(t, 1)

	// Delete the middle element ('b'); a cursor anchored to it, side
	// After, should resolve to the nearest surviving neighbour ('c').
	del := op.Op{ID: identity.OpId{Counter: 10, Actor: a}, Action: op.ActionDelete, Predecessors: []identity.OpId{ids[1]}}
	require.NoError(t, obj.DeleteSeq(ids[1], del))

	idx, err := Resolve(obj, At(ids[1], op.SideAfter))
	require.NoError(t, err)
	require.Equal(t, 1, idx) // lands just before 'c', which is now index 1

	text, err := Text(obj)
	require.NoError(t, err)
	require.Equal(t, "ac", text)
}

func TestBlockAtAndJoinBlock(t *testing.T) {
	store := opset.New()
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: testutil.Actor(t, 1)}, Action: op.ActionMakeText}
	id := store.CreateObject(maker)
	obj, _ := store.Object(id)

	a := testutil.Actor(t, 1)
	block := op.Op{ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionBlock, Insert: true,
		BlockProps: map[string]op.Value{"type": {Type: op.TypeStr, Str: "heading"}}}
	require.NoError(t, obj.InsertSeq(identity.OpId{}, block))

	props, err := BlockAt(obj, 0)
	require.NoError(t, err)
	require.Equal(t, "heading", props["type"].Str)

	target, err := JoinBlockTarget(obj, 0)
	require.NoError(t, err)
	require.Equal(t, block.ID, target)

	_, err = JoinBlockTarget(obj, 99)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestMarksAtAndOverlapTieBreak(t *testing.T) {
	obj, ids := newText(t, "hello")
	a1, a2 := testutil.Actor(t, 1), testutil.Actor(t, 2)

	mark1 := op.Op{
		ID: identity.OpId{Counter: 20, Actor: a1}, Action: op.ActionMark,
		Locator: op.ElemLocator(ids[0]),
		Mark: op.MarkInfo{Name: "bold", Value: op.Value{Type: op.TypeBool, Bool: true},
			StartSide: op.SideBefore, End: ids[4], EndSide: op.SideAfter},
	}
	obj.Marks = append(obj.Marks, mark1)

	at0 := MarksAt(obj, 0)
	require.True(t, at0["bold"].Bool)

	// A later-OpId Unmark over a sub-range should win at the positions it
	// covers (spec's resolved open question: later OpId wins).
	unmark := op.Op{
		ID: identity.OpId{Counter: 21, Actor: a2}, Action: op.ActionUnmark,
		Locator: op.ElemLocator(ids[1]),
		Mark:    op.MarkInfo{Name: "bold", StartSide: op.SideBefore, End: ids[2], EndSide: op.SideAfter},
	}
	obj.Marks = append(obj.Marks, unmark)

	at1 := MarksAt(obj, 1)
	_, present := at1["bold"]
	require.False(t, present, "later unmark should suppress the mark at this position")

	at0again := MarksAt(obj, 0)
	require.True(t, at0again["bold"].Bool, "position outside the unmark range keeps the mark")
}

func TestSpansSeparatesBlocksFromText(t *testing.T) {
	store := opset.New()
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: testutil.Actor(t, 1)}, Action: op.ActionMakeText}
	id := store.CreateObject(maker)
	obj, _ := store.Object(id)
	a := testutil.Actor(t, 1)

	i1 := op.Op{ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionInsert, Insert: true, Value: op.Value{Type: op.TypeStr, Str: "a"}}
	require.NoError(t, obj.InsertSeq(identity.OpId{}, i1))
	blk := op.Op{ID: identity.OpId{Counter: 3, Actor: a}, Action: op.ActionBlock, Insert: true,
		BlockProps: map[string]op.Value{"type": {Type: op.TypeStr, Str: "hr"}}}
	require.NoError(t, obj.InsertSeq(i1.ID, blk))
	i2 := op.Op{ID: identity.OpId{Counter: 4, Actor: a}, Action: op.ActionInsert, Insert: true, Value: op.Value{Type: op.TypeStr, Str: "b"}}
	require.NoError(t, obj.InsertSeq(blk.ID, i2))

	spans := Spans(obj)
	require.Len(t, spans, 3)
	require.Equal(t, "a", spans[0].Text)
	require.True(t, spans[1].IsBlock)
	require.Equal(t, "hr", spans[1].BlockProps["type"].Str)
	require.Equal(t, "b", spans[2].Text)
}

func TestDiffTextMinimalSplice(t *testing.T) {
	instrs := DiffText("hello world", "hello there")
	require.NotEmpty(t, instrs)
	// Shared prefix "hello " and suffix "" trimmed; only the differing
	// middle should be touched.
	for _, ins := range instrs {
		require.GreaterOrEqual(t, ins.Index, 6)
	}
}

func TestDiffTextNoChange(t *testing.T) {
	require.Empty(t, DiffText("same", "same"))
}
