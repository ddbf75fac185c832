// Package opset is the in-memory store of ops grouped by object: a map of
// key -> conflict set for maps, and a tree-of-inserts for sequences and
// text, each with per-object secondary indexes (spec §3.5).
package opset

import (
	"errors"
	"sort"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
)

// ErrNotFound covers an unknown object, map key, or out-of-range index
// (spec §7).
var ErrNotFound = errors.New("opset: not found")

// ErrWrongType is returned when an op targets an object whose kind does not
// support the requested action (spec §7).
var ErrWrongType = errors.New("opset: wrong object type")

// ObjKind tags what kind of object an ObjId names.
type ObjKind int

const (
	KindMap ObjKind = iota
	KindList
	KindText
)

// Element holds the conflict set of ops competing for one logical slot — a
// map key, or one sequence/text position (spec §3.5).
type Element struct {
	// Ops is sorted by OpId descending; the first op that is not an
	// Increment is the current winner.
	Ops []op.Op

	// CounterValue/CounterBase track a live counter's running sum: the
	// value of the original Put plus every concurrent-surviving Increment
	// whose Predecessors include CounterBase (spec §3.2, §4.4).
	CounterValue int64
	CounterBase  identity.OpId
	HasCounter   bool
}

// Winner returns the visible op at the head of the conflict set, skipping
// Increment ops (they add to a counter's value rather than replace it), or
// false if the element holds no other op or its winner is itself a
// tombstoned Delete.
func (e *Element) Winner() (op.Op, bool) {
	for _, o := range e.Ops {
		if o.Action == op.ActionIncrement {
			continue
		}
		if o.Action == op.ActionDelete {
			return op.Op{}, false
		}
		return o, true
	}
	return op.Op{}, false
}

// Conflicts returns every visible (non-overwritten-by-a-later-survivor) op
// competing for this slot, in OpId-descending order. More than one entry
// means a true concurrent write conflict (spec §3.5). An op is overwritten
// once some other op present in this Element names it in Predecessors —
// that's what causally supersedes it, as opposed to merely being an older
// OpId — so it is excluded even though insertSorted never removes it from
// Ops.
func (e *Element) Conflicts() []op.Op {
	overwritten := make(map[identity.OpId]bool, len(e.Ops))
	for _, o := range e.Ops {
		for _, p := range o.Predecessors {
			overwritten[p] = true
		}
	}
	var out []op.Op
	for _, o := range e.Ops {
		if o.Action == op.ActionDelete || overwritten[o.ID] {
			continue
		}
		out = append(out, o)
	}
	return out
}

// insertSorted inserts o into Ops keeping descending OpId order.
func (e *Element) insertSorted(o op.Op) {
	idx := sort.Search(len(e.Ops), func(i int) bool { return e.Ops[i].ID.Compare(o.ID) < 0 })
	e.Ops = append(e.Ops, op.Op{})
	copy(e.Ops[idx+1:], e.Ops[idx:])
	e.Ops[idx] = o
}

// SeqNode is one node in a sequence/text object's tree-of-inserts (spec
// §4.5): it owns an Element (the conflict set for this position) plus its
// ordered children (further inserts anchored after it).
type SeqNode struct {
	ID       identity.OpId // the originating Insert op's id
	Elem     *Element
	Children []identity.OpId // sorted by OpId descending (newest first)
	IsBlock  bool
}

// headAnchor is the sentinel "insert at the very start" anchor.
var headAnchor = identity.OpId{}

// Object is one entry in the opset: either a map (key -> Element) or a
// sequence/text (tree-of-inserts of SeqNode), depending on Kind.
type Object struct {
	Kind ObjKind

	// Map storage.
	Keys map[string]*Element

	// Sequence/text storage.
	Nodes    map[identity.OpId]*SeqNode
	Children map[identity.OpId][]identity.OpId // headAnchor included

	// Marks holds every Mark/Unmark op applied to a text object, in
	// application order; the sequence package resolves these against
	// cursors to compute spans (spec §3.5, §4.5).
	Marks []op.Op
}

func newMapObject() *Object {
	return &Object{Kind: KindMap, Keys: make(map[string]*Element)}
}

func newSeqObject(kind ObjKind) *Object {
	return &Object{
		Kind:     kind,
		Nodes:    make(map[identity.OpId]*SeqNode),
		Children: make(map[identity.OpId][]identity.OpId),
	}
}

// Store holds every object in the document, addressed by ObjId (spec §3.5).
type Store struct {
	objects map[identity.ObjId]*Object
	// clock tracks, per actor, the highest OpId.Counter this store has seen
	// — the Lamport clock input for minting the next local OpId.
	clock map[string]uint64
}

// New creates an empty store with just the implicit root map.
func New() *Store {
	s := &Store{
		objects: make(map[identity.ObjId]*Object),
		clock:   make(map[string]uint64),
	}
	s.objects[identity.Root] = newMapObject()
	return s
}

// Object returns the object at id, or ErrNotFound.
func (s *Store) Object(id identity.ObjId) (*Object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o, nil
}

// CreateObject installs the object that op o creates (a MakeMap/MakeList/
// MakeText op), addressed by o's own OpId.
func (s *Store) CreateObject(o op.Op) identity.ObjId {
	id := o.ChildObjId()
	switch o.Action {
	case op.ActionMakeMap:
		s.objects[id] = newMapObject()
	case op.ActionMakeList:
		s.objects[id] = newSeqObject(KindList)
	case op.ActionMakeText:
		s.objects[id] = newSeqObject(KindText)
	}
	return id
}

// Observe advances the store's Lamport clock so that the next locally
// minted OpId is strictly greater than any counter seen so far (spec §3.1:
// "counter = 1 + max(seenCounter)").
func (s *Store) Observe(id identity.OpId) {
	key := id.Actor.String()
	if id.Counter > s.clock[key] {
		s.clock[key] = id.Counter
	}
}

// NextCounter returns the next Lamport counter for a locally-authored op.
func (s *Store) NextCounter() uint64 {
	var max uint64
	for _, c := range s.clock {
		if c > max {
			max = c
		}
	}
	return max + 1
}
