package change

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
)

func mustActor(t *testing.T, b byte) identity.Actor {
	t.Helper()
	a, err := identity.NewActor([]byte{b})
	require.NoError(t, err)
	return a
}

func sampleChange(t *testing.T) *Change {
	actor := mustActor(t, 0x01)
	return &Change{
		Actor:   actor,
		Seq:     1,
		StartOp: 1,
		Time:    1000,
		Message: "initial",
		Ops: []op.Op{
			{
				ID:      identity.OpId{Counter: 1, Actor: actor},
				Obj:     identity.Root,
				Locator: op.MapLocator("title"),
				Action:  op.ActionPut,
				Value:   op.Value{Type: op.TypeStr, Str: "hello"},
			},
			{
				ID:           identity.OpId{Counter: 2, Actor: actor},
				Obj:          identity.Root,
				Locator:      op.MapLocator("title"),
				Action:       op.ActionPut,
				Value:        op.Value{Type: op.TypeInt, Int: -42},
				Predecessors: []identity.OpId{{Counter: 1, Actor: actor}},
			},
		},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := sampleChange(t)
	blob, err := Encode(c)
	require.NoError(t, err)
	require.False(t, c.Hash.IsZero())

	decoded, err := Decode(blob)
	require.NoError(t, err)
	require.Equal(t, c.Hash, decoded.Hash)
	require.Equal(t, c.Seq, decoded.Seq)
	require.Equal(t, c.Message, decoded.Message)
	require.Len(t, decoded.Ops, 2)
	require.Equal(t, "hello", decoded.Ops[0].Value.Str)
	require.Equal(t, int64(-42), decoded.Ops[1].Value.Int)
	require.Equal(t, []identity.OpId{{Counter: 1, Actor: c.Actor}}, decoded.Ops[1].Predecessors)
}

func TestHashStability(t *testing.T) {
	c := sampleChange(t)
	blob, err := Encode(c)
	require.NoError(t, err)

	decoded, err := Decode(blob)
	require.NoError(t, err)

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, c.Hash, decoded.Hash)
	require.Equal(t, decoded.Hash, reencoded.Hash, "hash(encode(decode(encode(c)))) must equal hash(encode(c))")
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0, 1})
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecodeDetectsHashMismatch(t *testing.T) {
	c := sampleChange(t)
	blob, err := Encode(c)
	require.NoError(t, err)
	// Corrupt a byte well past the header so it's still structurally valid.
	blob[len(blob)-1] ^= 0xFF
	_, err = Decode(blob)
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestValidateRejectsNonContiguousOpIds(t *testing.T) {
	c := sampleChange(t)
	c.Ops[1].ID.Counter = 99
	require.ErrorIs(t, c.Validate(), ErrInvalidChange)
}
