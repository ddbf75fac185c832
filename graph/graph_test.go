package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
)

func h(b byte) identity.Hash {
	var hh identity.Hash
	hh[0] = b
	return hh
}

func node(hash identity.Hash, deps ...identity.Hash) *change.Change {
	return &change.Change{Hash: hash, Deps: deps}
}

func TestHeadsAndTopoOrder(t *testing.T) {
	g := New()
	c1 := node(h(1))
	c2 := node(h(2), h(1))
	c3 := node(h(3), h(1))
	c4 := node(h(4), h(2), h(3))

	g.Insert(c1)
	g.Insert(c2)
	g.Insert(c3)
	g.Insert(c4)

	require.Equal(t, []identity.Hash{h(4)}, g.Heads())

	order := g.TopoSort()
	pos := map[identity.Hash]int{}
	for i, c := range order {
		pos[c.Hash] = i
	}
	require.Less(t, pos[h(1)], pos[h(2)])
	require.Less(t, pos[h(1)], pos[h(3)])
	require.Less(t, pos[h(2)], pos[h(4)])
	require.Less(t, pos[h(3)], pos[h(4)])
}

func TestMissingDepsAndBuffer(t *testing.T) {
	g := New()
	c2 := node(h(2), h(1))
	require.Equal(t, []identity.Hash{h(1)}, g.MissingDeps(c2))

	g.Buffer(c2)
	require.Empty(t, g.DrainReady())

	g.Insert(node(h(1)))
	ready := g.DrainReady()
	require.Len(t, ready, 1)
	require.Equal(t, h(2), ready[0].Hash)
}

func TestCommonFrontier(t *testing.T) {
	g := New()
	g.Insert(node(h(1)))
	g.Insert(node(h(2), h(1)))
	g.Insert(node(h(3), h(1)))

	// Peer A is at head 2, peer B is at head 3; their common ancestor is 1.
	frontier := g.CommonFrontier([]identity.Hash{h(2)}, []identity.Hash{h(3)})
	require.Equal(t, []identity.Hash{h(1)}, frontier)
}

func TestChangesAfter(t *testing.T) {
	g := New()
	g.Insert(node(h(1)))
	g.Insert(node(h(2), h(1)))
	g.Insert(node(h(3), h(2)))

	after := g.ChangesAfter([]identity.Hash{h(1)})
	require.Len(t, after, 2)
	require.Equal(t, h(2), after[0].Hash)
	require.Equal(t, h(3), after[1].Hash)
}
