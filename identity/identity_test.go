package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpIdCompare(t *testing.T) {
	a, err := NewActor([]byte{0x01})
	require.NoError(t, err)
	b, err := NewActor([]byte{0x02})
	require.NoError(t, err)

	cases := []struct {
		name string
		x, y OpId
		want int
	}{
		{"counter wins", OpId{Counter: 1, Actor: b}, OpId{Counter: 2, Actor: a}, -1},
		{"actor tie-break", OpId{Counter: 5, Actor: a}, OpId{Counter: 5, Actor: b}, -1},
		{"equal", OpId{Counter: 5, Actor: a}, OpId{Counter: 5, Actor: a}, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, c.x.Compare(c.y))
		})
	}
}

func TestActorTooLong(t *testing.T) {
	_, err := NewActor(make([]byte, 33))
	require.ErrorIs(t, err, ErrActorTooLong)
}

func TestActorRoundTrip(t *testing.T) {
	a := NewRandomActor()
	parsed, err := ActorFromHex(a.String())
	require.NoError(t, err)
	require.Equal(t, a.Bytes(), parsed.Bytes())
}

func TestObjIdRoot(t *testing.T) {
	require.True(t, Root.IsRoot())
	actor, _ := NewActor([]byte{0x9})
	obj := NewObjId(OpId{Counter: 1, Actor: actor})
	require.False(t, obj.IsRoot())
	require.Equal(t, -1, Root.Compare(obj))
}

func TestHashCompareAndSort(t *testing.T) {
	h1 := Hash{0x01}
	h2 := Hash{0x02}
	sorted := SortHashes([]Hash{h2, h1})
	require.Equal(t, []Hash{h1, h2}, sorted)
	require.Equal(t, -1, h1.Compare(h2))
}
