// Package diffpatch implements diff(before_heads, after_heads): a
// materialized view restricted to an arbitrary historical heads set, and
// the patch computation between two such views (spec §4.6).
package diffpatch

import (
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// View is a read-only projection of a Store restricted to ops introduced
// by changes reachable from a fixed heads set — a frozen snapshot of the
// document at some point in its history, independent of the store's
// current (possibly later) state.
type View struct {
	store   *opset.Store
	allowed map[identity.OpId]bool
}

// NewView builds the view of state as of heads. Returns (nil, false) if
// any hash in heads is absent from the graph (spec §4.6 "Empty if either
// head set is not present in the graph").
func NewView(state *merge.State, heads []identity.Hash) (*View, bool) {
	for _, h := range heads {
		if !state.Graph.Has(h) {
			return nil, false
		}
	}
	reachableChanges := state.Graph.Reachable(heads)
	allowed := make(map[identity.OpId]bool)
	for id := range allOpIds(state) {
		if h, ok := state.ChangeOf(id); ok {
			if _, ok := reachableChanges[h]; ok {
				allowed[id] = true
			}
		}
	}
	return &View{store: state.Store, allowed: allowed}, true
}

// allOpIds is a small helper walking every object's ops once to build the
// candidate set NewView filters down by reachability.
func allOpIds(state *merge.State) map[identity.OpId]struct{} {
	out := make(map[identity.OpId]struct{})
	visitObject := func(obj *opset.Object) {
		for _, e := range obj.Keys {
			for _, o := range e.Ops {
				out[o.ID] = struct{}{}
			}
		}
		for _, n := range obj.Nodes {
			for _, o := range n.Elem.Ops {
				out[o.ID] = struct{}{}
			}
		}
		for _, m := range obj.Marks {
			out[m.ID] = struct{}{}
		}
	}
	for _, id := range walkAllObjects(state) {
		obj, err := state.Store.Object(id)
		if err == nil {
			visitObject(obj)
		}
	}
	return out
}

// walkAllObjects enumerates every ObjId the store currently knows about by
// scanning every object-maker op anywhere in the store, plus ROOT. Since
// the opset never deletes objects (spec §3.6 "orphaned objects are
// retained"), this is exhaustive.
func walkAllObjects(state *merge.State) []identity.ObjId {
	ids := []identity.ObjId{identity.Root}
	root, err := state.Store.Object(identity.Root)
	if err != nil {
		return ids
	}
	seen := map[identity.ObjId]bool{identity.Root: true}
	var stack []*opset.Object
	stack = append(stack, root)
	for len(stack) > 0 {
		obj := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range obj.Keys {
			for _, o := range e.Ops {
				if o.IsObjectMaker() {
					childID := o.ChildObjId()
					if !seen[childID] {
						seen[childID] = true
						ids = append(ids, childID)
						if child, err := state.Store.Object(childID); err == nil {
							stack = append(stack, child)
						}
					}
				}
			}
		}
		for _, n := range obj.Nodes {
			for _, o := range n.Elem.Ops {
				if o.IsObjectMaker() {
					childID := o.ChildObjId()
					if !seen[childID] {
						seen[childID] = true
						ids = append(ids, childID)
						if child, err := state.Store.Object(childID); err == nil {
							stack = append(stack, child)
						}
					}
				}
			}
		}
	}
	return ids
}

func (v *View) object(id identity.ObjId) (*opset.Object, error) {
	return v.store.Object(id)
}

func (v *View) filter(ops []op.Op) []op.Op {
	var out []op.Op
	for _, o := range ops {
		if v.allowed[o.ID] {
			out = append(out, o)
		}
	}
	return out
}

// mapKeys returns the sorted visible (in-view) keys of a map object.
func (v *View) mapKeys(obj *opset.Object) []string {
	var keys []string
	for _, k := range obj.MapKeys() {
		if _, ok := v.mapWinner(obj, k); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func (v *View) mapWinner(obj *opset.Object, key string) (op.Op, bool) {
	e, ok := obj.Keys[key]
	if !ok {
		return op.Op{}, false
	}
	filtered := v.filter(e.Ops)
	tmp := &opset.Element{Ops: filtered}
	return tmp.Winner()
}

// seqVisible returns the node ids visible in this view, in tree order.
func (v *View) seqVisible(obj *opset.Object) []identity.OpId {
	var out []identity.OpId
	var dfs func(anchor identity.OpId)
	dfs = func(anchor identity.OpId) {
		for _, child := range obj.Children[anchor] {
			if _, ok := v.seqWinner(obj, child); ok {
				out = append(out, child)
			}
			dfs(child)
		}
	}
	dfs(identity.OpId{})
	return out
}

func (v *View) seqWinner(obj *opset.Object, id identity.OpId) (op.Op, bool) {
	n, ok := obj.Nodes[id]
	if !ok {
		return op.Op{}, false
	}
	filtered := v.filter(n.Elem.Ops)
	if len(filtered) == 0 {
		return op.Op{}, false
	}
	tmp := &opset.Element{Ops: filtered}
	return tmp.Winner()
}
