package opset

import (
	"errors"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
)

// ErrUnknownElement is returned when a Locator references a sequence
// element that has never been inserted.
var ErrUnknownElement = errors.New("opset: unknown element")

// ErrUnknownKey is returned when a Locator references a map key that has
// never been written (relevant to Delete/Increment, which require the
// element to already exist).
var ErrUnknownKey = errors.New("opset: unknown key")

// PutMap inserts/overwrites a map key's conflict set with o (spec §4.4: the
// op always joins the set; Winner() recomputes which entry is visible).
func (obj *Object) PutMap(key string, o op.Op) error {
	if obj.Kind != KindMap {
		return ErrWrongType
	}
	e, ok := obj.Keys[key]
	if !ok {
		e = &Element{}
		obj.Keys[key] = e
	}
	e.insertSorted(o)
	applyCounterSemantics(e, o)
	return nil
}

// DeleteMapKey records a tombstone Delete op against an existing map key.
func (obj *Object) DeleteMapKey(key string, o op.Op) error {
	if obj.Kind != KindMap {
		return ErrWrongType
	}
	e, ok := obj.Keys[key]
	if !ok {
		return ErrUnknownKey
	}
	e.insertSorted(o)
	return nil
}

// InsertSeq creates a brand-new sequence/text element anchored after
// `after` (the zero OpId meaning "at the head"), owned by o.
func (obj *Object) InsertSeq(after identity.OpId, o op.Op) error {
	if obj.Kind != KindList && obj.Kind != KindText {
		return ErrWrongType
	}
	if !after.IsZero() {
		if _, ok := obj.Nodes[after]; !ok {
			return ErrUnknownElement
		}
	}
	n := &SeqNode{ID: o.ID, Elem: &Element{Ops: []op.Op{o}}, IsBlock: o.Action == op.ActionBlock}
	obj.Nodes[o.ID] = n
	insertSibling(obj.Children, after, o.ID)
	return nil
}

// insertSibling inserts child into anchor's sibling list, keeping it sorted
// by OpId descending (newest-inserted-after-anchor sorts first), which is
// the RGA tie-break for concurrent inserts at the same anchor (spec §4.5).
func insertSibling(children map[identity.OpId][]identity.OpId, anchor, child identity.OpId) {
	siblings := children[anchor]
	i := 0
	for i < len(siblings) && siblings[i].Compare(child) > 0 {
		i++
	}
	siblings = append(siblings, identity.OpId{})
	copy(siblings[i+1:], siblings[i:])
	siblings[i] = child
	children[anchor] = siblings
}

// PutSeq records a Put/value-overwrite against an existing sequence element
// (e.g. re-assigning a list slot, or a Mark/Unmark/Increment target).
func (obj *Object) PutSeq(elem identity.OpId, o op.Op) error {
	if obj.Kind != KindList && obj.Kind != KindText {
		return ErrWrongType
	}
	n, ok := obj.Nodes[elem]
	if !ok {
		return ErrUnknownElement
	}
	n.Elem.insertSorted(o)
	applyCounterSemantics(n.Elem, o)
	return nil
}

// DeleteSeq tombstones an existing sequence element. The node stays in the
// tree (its children remain reachable) but no longer contributes to the
// visible sequence (spec §4.5).
func (obj *Object) DeleteSeq(elem identity.OpId, o op.Op) error {
	if obj.Kind != KindList && obj.Kind != KindText {
		return ErrWrongType
	}
	n, ok := obj.Nodes[elem]
	if !ok {
		return ErrUnknownElement
	}
	n.Elem.insertSorted(o)
	return nil
}

// applyCounterSemantics updates e's running CounterValue when o is the
// original counter Put, or an Increment whose Predecessors reference a live
// CounterBase (spec §3.2, §4.4: "all concurrent increments on a live
// counter sum in").
func applyCounterSemantics(e *Element, o op.Op) {
	switch o.Action {
	case op.ActionPut:
		if o.Value.Type == op.TypeCounter {
			e.HasCounter = true
			e.CounterBase = o.ID
			e.CounterValue = o.Value.Int
		}
	case op.ActionIncrement:
		if !e.HasCounter {
			return
		}
		for _, p := range o.Predecessors {
			if p == e.CounterBase {
				e.CounterValue += o.Increment
				return
			}
		}
	}
}

// counterSnapshot captures an Element's counter fields so they can be
// restored verbatim by an undo closure.
type counterSnapshot struct {
	value int64
	base  identity.OpId
	has   bool
}

func (e *Element) snapshotCounter() counterSnapshot {
	return counterSnapshot{value: e.CounterValue, base: e.CounterBase, has: e.HasCounter}
}

func (e *Element) restoreCounter(snap counterSnapshot) {
	e.CounterValue, e.CounterBase, e.HasCounter = snap.value, snap.base, snap.has
}

// applyUndo appends o to e's conflict set (updating counter semantics) and
// returns a closure that exactly reverses the mutation — the building block
// the merge engine uses for its all-or-nothing Apply(change) (spec §4.4
// step 3).
func (e *Element) applyUndo(o op.Op) func() {
	before := e.snapshotCounter()
	e.insertSorted(o)
	applyCounterSemantics(e, o)
	return func() {
		e.removeOp(o.ID)
		e.restoreCounter(before)
	}
}

func (e *Element) removeOp(id identity.OpId) {
	for i, o := range e.Ops {
		if o.ID == id {
			e.Ops = append(e.Ops[:i], e.Ops[i+1:]...)
			return
		}
	}
}

// PutMapUndo is PutMap's rollback-capable counterpart, used by the merge
// engine while validating a change atomically.
func (obj *Object) PutMapUndo(key string, o op.Op) (func(), error) {
	if obj.Kind != KindMap {
		return nil, ErrWrongType
	}
	e, existed := obj.Keys[key]
	if !existed {
		e = &Element{}
		obj.Keys[key] = e
	}
	undoApply := e.applyUndo(o)
	return func() {
		undoApply()
		if !existed {
			delete(obj.Keys, key)
		}
	}, nil
}

// DeleteMapKeyUndo is DeleteMapKey's rollback-capable counterpart.
func (obj *Object) DeleteMapKeyUndo(key string, o op.Op) (func(), error) {
	if obj.Kind != KindMap {
		return nil, ErrWrongType
	}
	e, ok := obj.Keys[key]
	if !ok {
		return nil, ErrUnknownKey
	}
	return e.applyUndo(o), nil
}

// InsertSeqUndo is InsertSeq's rollback-capable counterpart.
func (obj *Object) InsertSeqUndo(after identity.OpId, o op.Op) (func(), error) {
	if obj.Kind != KindList && obj.Kind != KindText {
		return nil, ErrWrongType
	}
	if !after.IsZero() {
		if _, ok := obj.Nodes[after]; !ok {
			return nil, ErrUnknownElement
		}
	}
	n := &SeqNode{ID: o.ID, Elem: &Element{Ops: []op.Op{o}}, IsBlock: o.Action == op.ActionBlock}
	obj.Nodes[o.ID] = n
	insertSibling(obj.Children, after, o.ID)
	return func() {
		delete(obj.Nodes, o.ID)
		removeSibling(obj.Children, after, o.ID)
	}, nil
}

func removeSibling(children map[identity.OpId][]identity.OpId, anchor, child identity.OpId) {
	siblings := children[anchor]
	for i, s := range siblings {
		if s == child {
			children[anchor] = append(siblings[:i], siblings[i+1:]...)
			return
		}
	}
}

// PutSeqUndo is PutSeq's rollback-capable counterpart.
func (obj *Object) PutSeqUndo(elem identity.OpId, o op.Op) (func(), error) {
	if obj.Kind != KindList && obj.Kind != KindText {
		return nil, ErrWrongType
	}
	n, ok := obj.Nodes[elem]
	if !ok {
		return nil, ErrUnknownElement
	}
	return n.Elem.applyUndo(o), nil
}

// DeleteSeqUndo is DeleteSeq's rollback-capable counterpart.
func (obj *Object) DeleteSeqUndo(elem identity.OpId, o op.Op) (func(), error) {
	if obj.Kind != KindList && obj.Kind != KindText {
		return nil, ErrWrongType
	}
	n, ok := obj.Nodes[elem]
	if !ok {
		return nil, ErrUnknownElement
	}
	return n.Elem.applyUndo(o), nil
}

// AppendMarkUndo records a Mark/Unmark op against a text object and
// returns its rollback closure.
func (obj *Object) AppendMarkUndo(o op.Op) func() {
	obj.Marks = append(obj.Marks, o)
	idx := len(obj.Marks) - 1
	return func() {
		obj.Marks = append(obj.Marks[:idx], obj.Marks[idx+1:]...)
	}
}

// CreateObjectUndo is CreateObject's rollback-capable counterpart.
func (s *Store) CreateObjectUndo(o op.Op) (identity.ObjId, func()) {
	id := s.CreateObject(o)
	return id, func() { delete(s.objects, id) }
}

// VisibleChildren returns all of anchor's children, tombstoned ones
// included, in sibling (OpId-descending) order; a caller checks Visible
// for each one it needs.
func (obj *Object) VisibleChildren(anchor identity.OpId) []identity.OpId {
	return obj.Children[anchor]
}

// Visible reports whether node id currently has a winning (non-Delete) op
// at the head of its conflict set.
func (obj *Object) Visible(id identity.OpId) bool {
	n, ok := obj.Nodes[id]
	if !ok {
		return false
	}
	_, ok = n.Elem.Winner()
	return ok
}
