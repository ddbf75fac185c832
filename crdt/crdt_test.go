package crdt

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

func strVal(s string) op.Value { return op.Value{Type: op.TypeStr, Str: s} }

func TestPutAndGetScalar(t *testing.T) {
	doc := NewWithActor(testutil.Actor(t, 1), nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "title", strVal("hello"))
	require.NoError(t, err)
	c, err := tx.Commit()
	require.NoError(t, err)
	require.NotNil(t, c)

	res, ok, err := doc.Get(doc.Root(), "title")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", res.Value.Str)
}

func TestNestedTransactionRejected(t *testing.T) {
	doc := New(nil)
	_, err := Begin(doc)
	require.NoError(t, err)
	_, err = Begin(doc)
	require.ErrorIs(t, err, ErrNestedTransaction)
}

func TestRollbackUndoesStagedPut(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v"))
	require.NoError(t, err)
	tx.Rollback()

	_, ok, err := doc.Get(doc.Root(), "k")
	require.NoError(t, err)
	require.False(t, ok)

	// a transaction can be opened again after rollback.
	tx2, err := Begin(doc)
	require.NoError(t, err)
	tx2.Rollback()
}

func TestEmptyTransactionCommitsNothing(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	c, err := tx.Commit()
	require.NoError(t, err)
	require.Nil(t, c)
	require.Empty(t, doc.Heads())
}

func TestPutObjectAndNestedWrite(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	profileID, err := tx.PutObject(doc.Root(), "profile", opset.KindMap)
	require.NoError(t, err)
	_, err = tx.Put(profileID, "name", strVal("ada"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	res, ok, err := doc.Get(doc.Root(), "profile")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, profileID, res.Obj)

	nameRes, ok, err := doc.Get(profileID, "name")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ada", nameRes.Value.Str)
}

func TestListInsertAndSplice(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	listID, err := tx.PutObject(doc.Root(), "items", opset.KindList)
	require.NoError(t, err)
	for i, v := range []string{"a", "b", "c"} {
		_, err := tx.Insert(listID, i, strVal(v))
		require.NoError(t, err)
	}
	_, err = tx.Commit()
	require.NoError(t, err)

	n, err := doc.Length(listID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	tx2, err := Begin(doc)
	require.NoError(t, err)
	require.NoError(t, tx2.Splice(listID, 1, 1, []op.Value{strVal("x"), strVal("y")}))
	_, err = tx2.Commit()
	require.NoError(t, err)

	n, err = doc.Length(listID)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	first, err := doc.GetIndex(listID, 0)
	require.NoError(t, err)
	require.Equal(t, "a", first.Value.Str)
}

func TestIncrementCounter(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "count", op.Value{Type: op.TypeCounter, Int: 5})
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	tx2, err := Begin(doc)
	require.NoError(t, err)
	require.NoError(t, tx2.Increment(doc.Root(), "count", 3))
	_, err = tx2.Commit()
	require.NoError(t, err)

	v, err := doc.CounterValue(doc.Root(), "count")
	require.NoError(t, err)
	require.Equal(t, int64(8), v)
}

func TestDeleteMapKey(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	tx2, err := Begin(doc)
	require.NoError(t, err)
	require.NoError(t, tx2.Delete(doc.Root(), "k"))
	_, err = tx2.Commit()
	require.NoError(t, err)

	_, ok, err := doc.Get(doc.Root(), "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTextInsertMarkAndSpans(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	textID, err := tx.PutObject(doc.Root(), "body", opset.KindText)
	require.NoError(t, err)
	for i, r := range "hello" {
		_, err := tx.Insert(textID, i, strVal(string(r)))
		require.NoError(t, err)
	}
	require.NoError(t, tx.Mark(textID, 0, 2, "bold", op.Value{Type: op.TypeBool, Bool: true}, op.ExpandNone))
	_, err = tx.Commit()
	require.NoError(t, err)

	text, err := doc.Text(textID)
	require.NoError(t, err)
	require.Equal(t, "hello", text)

	marks, err := doc.MarksAt(textID, 0)
	require.NoError(t, err)
	require.Equal(t, true, marks["bold"].Bool)

	marks, err = doc.MarksAt(textID, 3)
	require.NoError(t, err)
	require.NotContains(t, marks, "bold")

	spans, err := doc.Spans(textID)
	require.NoError(t, err)
	require.NotEmpty(t, spans)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	doc := NewWithActor(testutil.Actor(t, 1), nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	blob, err := Save(doc, true)
	require.NoError(t, err)

	loaded, err := Load(blob, nil)
	require.NoError(t, err)
	res, ok, err := loaded.Get(loaded.Root(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", res.Value.Str)
	require.Equal(t, doc.Heads(), loaded.Heads())
}

func TestCloneIsIndependent(t *testing.T) {
	doc := NewWithActor(testutil.Actor(t, 1), nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v1"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	clone, err := Clone(doc)
	require.NoError(t, err)

	tx2, err := Begin(clone)
	require.NoError(t, err)
	_, err = tx2.Put(clone.Root(), "k", strVal("v2"))
	require.NoError(t, err)
	_, err = tx2.Commit()
	require.NoError(t, err)

	orig, _, err := doc.Get(doc.Root(), "k")
	require.NoError(t, err)
	require.Equal(t, "v1", orig.Value.Str)

	cloned, _, err := clone.Get(clone.Root(), "k")
	require.NoError(t, err)
	require.Equal(t, "v2", cloned.Value.Str)
}

func TestViewIsReadOnlyAtHistoricalHeads(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v1"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)
	midHeads := doc.Heads()

	tx2, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx2.Put(doc.Root(), "k", strVal("v2"))
	require.NoError(t, err)
	_, err = tx2.Commit()
	require.NoError(t, err)

	view, err := View(doc, midHeads)
	require.NoError(t, err)
	res, _, err := view.Get(view.Root(), "k")
	require.NoError(t, err)
	require.Equal(t, "v1", res.Value.Str)

	_, err = Begin(view)
	require.ErrorIs(t, err, ErrReadOnly)
}

func TestViewUnknownHeadsFails(t *testing.T) {
	doc := New(nil)
	var bogus identity.Hash
	bogus[0] = 0xFF
	_, err := View(doc, []identity.Hash{bogus})
	require.Error(t, err)
}

func TestDiffAcrossHeads(t *testing.T) {
	doc := New(nil)
	before := doc.Heads()
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)
	after := doc.Heads()

	patches, ok := doc.Diff(before, after)
	require.True(t, ok)
	require.NotEmpty(t, patches)
}

func TestChangesSinceAndMissingDeps(t *testing.T) {
	doc := New(nil)
	tx, err := Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), "k", strVal("v"))
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	require.Empty(t, doc.ChangesSince(doc.Heads()))
	require.Len(t, doc.ChangesSince(nil), 1)

	var bogus identity.Hash
	bogus[0] = 1
	require.Equal(t, []identity.Hash{bogus}, doc.MissingDeps([]identity.Hash{bogus}))
}
