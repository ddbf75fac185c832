package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/internal/testutil"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

func TestGetScalarAndMissingKey(t *testing.T) {
	store := opset.New()
	root, err := store.Object(identity.Root)
	require.NoError(t, err)
	a := testutil.Actor(t, 1)

	require.NoError(t, root.PutMap("name", op.Op{
		ID: identity.OpId{Counter: 1, Actor: a}, Action: op.ActionPut,
		Value: op.Value{Type: op.TypeStr, Str: "ada"},
	}))

	res, found, err := Get(root, "name")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, TagScalar, res.Tag)
	require.Equal(t, "ada", res.Value.Str)

	_, found, err = Get(root, "missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetObjectReference(t *testing.T) {
	store := opset.New()
	root, _ := store.Object(identity.Root)
	a := testutil.Actor(t, 1)
	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: a}, Action: op.ActionMakeMap}
	require.NoError(t, root.PutMap("profile", maker))
	store.CreateObject(maker)

	res, found, err := Get(root, "profile")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, TagObject, res.Tag)
	require.Equal(t, identity.NewObjId(maker.ID), res.Obj)
}

func TestGetAllReturnsConflicts(t *testing.T) {
	store := opset.New()
	root, _ := store.Object(identity.Root)
	a1, a2 := testutil.Actor(t, 1), testutil.Actor(t, 2)

	require.NoError(t, root.PutMap("k", op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}}))
	require.NoError(t, root.PutMap("k", op.Op{ID: identity.OpId{Counter: 1, Actor: a2}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "y"}}))

	all, err := GetAll(root, "k")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestGetAllOmitsOverwrittenValue(t *testing.T) {
	store := opset.New()
	root, _ := store.Object(identity.Root)
	a1 := testutil.Actor(t, 1)

	o1 := op.Op{ID: identity.OpId{Counter: 1, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "x"}}
	o2 := op.Op{ID: identity.OpId{Counter: 2, Actor: a1}, Action: op.ActionPut, Value: op.Value{Type: op.TypeStr, Str: "y"}, Predecessors: []identity.OpId{o1.ID}}
	require.NoError(t, root.PutMap("k", o1))
	require.NoError(t, root.PutMap("k", o2))

	all, err := GetAll(root, "k")
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "y", all[0].Value.Str)
}

func TestCounterValue(t *testing.T) {
	store := opset.New()
	root, _ := store.Object(identity.Root)
	a := testutil.Actor(t, 1)
	put := op.Op{ID: identity.OpId{Counter: 1, Actor: a}, Action: op.ActionPut, Value: op.Value{Type: op.TypeCounter, Int: 5}}
	require.NoError(t, root.PutMap("c", put))
	inc := op.Op{ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionIncrement, Increment: 2, Predecessors: []identity.OpId{put.ID}}
	require.NoError(t, root.PutMap("c", inc))

	v, err := CounterValue(root, "c")
	require.NoError(t, err)
	require.Equal(t, int64(7), v)
}

func TestResolverWalksNestedPath(t *testing.T) {
	store := opset.New()
	root, _ := store.Object(identity.Root)
	a := testutil.Actor(t, 1)

	maker := op.Op{ID: identity.OpId{Counter: 1, Actor: a}, Action: op.ActionMakeMap}
	require.NoError(t, root.PutMap("profile", maker))
	store.CreateObject(maker)

	profileID := identity.NewObjId(maker.ID)
	profile, err := store.Object(profileID)
	require.NoError(t, err)
	require.NoError(t, profile.PutMap("name", op.Op{
		ID: identity.OpId{Counter: 2, Actor: a}, Action: op.ActionPut,
		Value: op.Value{Type: op.TypeStr, Str: "grace"},
	}))

	r := NewResolver(store, 16)
	obj, last, err := r.Resolve(Path{KeyStep("profile"), KeyStep("name")})
	require.NoError(t, err)
	res, found, err := Get(obj, last.Key)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "grace", res.Value.Str)

	// Second resolve should hit the cache for the "profile" hop.
	obj2, last2, err := r.Resolve(Path{KeyStep("profile"), KeyStep("name")})
	require.NoError(t, err)
	res2, _, _ := Get(obj2, last2.Key)
	require.Equal(t, "grace", res2.Value.Str)
}

func TestResolveMissingIntermediateFails(t *testing.T) {
	store := opset.New()
	r := NewResolver(store, 16)
	_, _, err := r.Resolve(Path{KeyStep("nope"), KeyStep("name")})
	require.ErrorIs(t, err, ErrNotFound)
}
