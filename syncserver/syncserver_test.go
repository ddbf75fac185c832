package syncserver

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/crdt"
	"github.com/Polqt/crdtcore/op"
)

func putKey(t *testing.T, doc *crdt.Document, key, val string) {
	t.Helper()
	tx, err := crdt.Begin(doc)
	require.NoError(t, err)
	_, err = tx.Put(doc.Root(), key, op.Value{Type: op.TypeStr, Str: val})
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)
}

func TestHubGetOrCreateIsStable(t *testing.T) {
	hub := NewHub()
	a := hub.GetOrCreate("doc-1", nil)
	b := hub.GetOrCreate("doc-1", nil)
	require.Same(t, a, b)
}

func TestHubGetUnknownFails(t *testing.T) {
	hub := NewHub()
	_, err := hub.Get("missing")
	require.ErrorIs(t, err, ErrUnknownDocument)
}

func TestDocPeerBookkeepingIsPerPeer(t *testing.T) {
	hub := NewHub()
	d := hub.GetOrCreate("doc-1", nil)
	p1 := d.Peer("alice")
	p2 := d.Peer("bob")
	require.NotSame(t, p1, p2)
	require.Same(t, p1, d.Peer("alice"))
}

func TestDropPeerForgetsBookkeeping(t *testing.T) {
	hub := NewHub()
	d := hub.GetOrCreate("doc-1", nil)
	first := d.Peer("alice")
	d.DropPeer("alice")
	second := d.Peer("alice")
	require.NotSame(t, first, second)
}

func TestGenerateThenReceiveConvergesTwoDocs(t *testing.T) {
	hub := NewHub()
	left := hub.GetOrCreate("doc-1", nil)
	right := NewDoc("doc-1-replica", crdt.New(nil), nil)

	putKey(t, left.Document(), "title", "hello")

	msg, ok, err := left.Generate("right")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, msg)

	require.NoError(t, right.Receive("left", msg))

	res, found, err := right.Document().Get(right.Document().Root(), "title")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "hello", res.Value.Str)
}

func TestHasOurChangesReflectsConvergence(t *testing.T) {
	hub := NewHub()
	left := hub.GetOrCreate("doc-1", nil)
	right := NewDoc("doc-1-replica", crdt.New(nil), nil)

	putKey(t, left.Document(), "k", "v")
	require.False(t, left.HasOurChanges("right"))

	msg, ok, err := left.Generate("right")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, right.Receive("left", msg))

	reply, ok, err := right.Generate("left")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, left.Receive("right", reply))

	require.True(t, left.HasOurChanges("right"))
}

func TestNewPeerIDIsUnique(t *testing.T) {
	a := NewPeerID()
	b := NewPeerID()
	require.NotEmpty(t, a)
	require.NotEqual(t, a, b)
}
