// Package graph implements the change DAG: changes keyed by hash, parent
// links via deps, heads, topological order, and missing-dependency tracking
// (spec §3.4).
package graph

import (
	"sort"

	roaring "github.com/RoaringBitmap/roaring/v2"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
)

// Graph is the DAG of changes for one document.
type Graph struct {
	nodes map[identity.Hash]*change.Change
	// children maps a hash to the hashes that declare it as a dep.
	children map[identity.Hash][]identity.Hash
	heads    map[identity.Hash]struct{}
	// pending holds changes whose deps are not all present yet, keyed by
	// the change's own hash (spec §4.4, §4.7 "buffer").
	pending map[identity.Hash]*change.Change

	// hashIndex assigns each change hash installed in this graph a dense
	// uint32 (dep references get no index), and present is a compact
	// roaring bitmap of the indices that are actually installed. Has and
	// MissingDeps are membership tests against present rather than a
	// second hash-keyed map, so a bulk missing-deps scan over a large
	// frontier set stays cheap as the graph grows (spec §3.4 "missing_deps
	// queries").
	hashIndex map[identity.Hash]uint32
	present   *roaring.Bitmap
	nextIndex uint32
}

// New creates an empty change graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[identity.Hash]*change.Change),
		children:  make(map[identity.Hash][]identity.Hash),
		heads:     make(map[identity.Hash]struct{}),
		pending:   make(map[identity.Hash]*change.Change),
		hashIndex: make(map[identity.Hash]uint32),
		present:   roaring.New(),
	}
}

// indexOf returns h's dense index, assigning a fresh one if h has no
// index yet. Only Insert calls it, with the hash of the change being
// installed.
func (g *Graph) indexOf(h identity.Hash) uint32 {
	if idx, ok := g.hashIndex[h]; ok {
		return idx
	}
	idx := g.nextIndex
	g.nextIndex++
	g.hashIndex[h] = idx
	return idx
}

// Has reports whether hash is already installed in the graph.
func (g *Graph) Has(h identity.Hash) bool {
	idx, ok := g.hashIndex[h]
	if !ok {
		return false
	}
	return g.present.Contains(idx)
}

// Get returns the change for hash, if present.
func (g *Graph) Get(h identity.Hash) (*change.Change, bool) {
	c, ok := g.nodes[h]
	return c, ok
}

// MissingDeps returns the deps of c that are not yet present in the graph.
func (g *Graph) MissingDeps(c *change.Change) []identity.Hash {
	var missing []identity.Hash
	for _, d := range c.Deps {
		if !g.Has(d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// Insert links c into the graph. Callers must have already verified (via
// MissingDeps) that every dep is present; Insert itself only wires up
// parent/child edges and recomputes heads.
func (g *Graph) Insert(c *change.Change) {
	g.nodes[c.Hash] = c
	g.present.Add(g.indexOf(c.Hash))
	for _, d := range c.Deps {
		g.children[d] = append(g.children[d], c.Hash)
		delete(g.heads, d)
	}
	if len(g.children[c.Hash]) == 0 {
		g.heads[c.Hash] = struct{}{}
	}
}

// Heads returns the current heads: hashes with no child in the graph
// (spec §3.4), sorted for determinism.
func (g *Graph) Heads() []identity.Hash {
	out := make([]identity.Hash, 0, len(g.heads))
	for h := range g.heads {
		out = append(out, h)
	}
	return identity.SortHashes(out)
}

// Buffer stashes a change whose deps are not all present, for later
// application once they arrive (spec §4.7 point 2, §7 MissingDeps).
func (g *Graph) Buffer(c *change.Change) {
	g.pending[c.Hash] = c
}

// Pending returns the buffered change for hash, if any.
func (g *Graph) Pending(h identity.Hash) (*change.Change, bool) {
	c, ok := g.pending[h]
	return c, ok
}

// DrainReady removes and returns every buffered change whose deps are now
// all present, repeating until a fixed point (a change may unblock another).
func (g *Graph) DrainReady() []*change.Change {
	var ready []*change.Change
	for {
		progressed := false
		for h, c := range g.pending {
			if len(g.MissingDeps(c)) == 0 {
				ready = append(ready, c)
				delete(g.pending, h)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return ready
}

// TopoSort returns every installed change in a topological order: a change
// always appears after all of its deps, and ties (changes with no
// dependency relation to each other) are broken by ascending hash bytes
// (spec §3.4).
func (g *Graph) TopoSort() []*change.Change {
	indegree := make(map[identity.Hash]int, len(g.nodes))
	for h, c := range g.nodes {
		indegree[h] = len(c.Deps)
	}

	ready := make([]identity.Hash, 0)
	for h, deg := range indegree {
		if deg == 0 {
			ready = append(ready, h)
		}
	}
	ready = identity.SortHashes(ready)

	out := make([]*change.Change, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Compare(ready[j]) < 0 })
		h := ready[0]
		ready = ready[1:]
		out = append(out, g.nodes[h])

		for _, childHash := range g.children[h] {
			indegree[childHash]--
			if indegree[childHash] == 0 {
				ready = append(ready, childHash)
			}
		}
	}
	return out
}

// Reachable computes the set of hashes reachable from frontier by following
// deps backward (ancestors, inclusive of frontier itself).
func (g *Graph) Reachable(frontier []identity.Hash) map[identity.Hash]struct{} {
	seen := make(map[identity.Hash]struct{})
	var stack []identity.Hash
	stack = append(stack, frontier...)
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		if c, ok := g.nodes[h]; ok {
			stack = append(stack, c.Deps...)
		}
	}
	return seen
}

// CommonFrontier returns the greatest set of hashes reachable from both a
// and b: the shared-heads computation the sync protocol needs to recompute
// after each exchange (spec §4.7 point 3). It is the set of heads-of-the-
// intersection: hashes in both ancestor sets that have no descendant also
// in both ancestor sets.
func (g *Graph) CommonFrontier(a, b []identity.Hash) []identity.Hash {
	ra := g.Reachable(a)
	rb := g.Reachable(b)
	shared := make(map[identity.Hash]struct{})
	for h := range ra {
		if _, ok := rb[h]; ok {
			shared[h] = struct{}{}
		}
	}
	var frontier []identity.Hash
	for h := range shared {
		isFrontier := true
		for _, childHash := range g.children[h] {
			if _, ok := shared[childHash]; ok {
				isFrontier = false
				break
			}
		}
		if isFrontier {
			frontier = append(frontier, h)
		}
	}
	return identity.SortHashes(frontier)
}

// ChangesAfter returns, in topological order, every installed change not
// reachable from (i.e. not an ancestor of, and not a member of) frontier —
// the set a peer needs in order to catch up from frontier to the graph's
// current heads (spec §4.7 point 3, §6.2 changes_since).
func (g *Graph) ChangesAfter(frontier []identity.Hash) []*change.Change {
	excluded := g.Reachable(frontier)
	var out []*change.Change
	for _, c := range g.TopoSort() {
		if _, ok := excluded[c.Hash]; !ok {
			out = append(out, c)
		}
	}
	return out
}
