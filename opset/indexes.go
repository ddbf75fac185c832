package opset

import (
	"sort"

	"github.com/Polqt/crdtcore/identity"
)

// MapKeys returns every key currently present on a map object, in sorted
// order, regardless of visibility (a deleted key keeps its slot so a
// concurrent re-Put still has an element to join).
func (obj *Object) MapKeys() []string {
	keys := make([]string, 0, len(obj.Keys))
	for k := range obj.Keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// VisibleMapKeys returns only the map keys whose head op is not a Delete.
func (obj *Object) VisibleMapKeys() []string {
	var keys []string
	for _, k := range obj.MapKeys() {
		if _, ok := obj.Keys[k].Winner(); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// dfs walks the tree-of-inserts rooted at anchor in sibling (OpId
// descending) order, appending every node id to out, then recursing into
// its children — the canonical sequence/text traversal (spec §4.5).
func (obj *Object) dfs(anchor identity.OpId, out *[]identity.OpId, visibleOnly bool) {
	for _, child := range obj.Children[anchor] {
		if !visibleOnly || obj.Visible(child) {
			*out = append(*out, child)
		}
		obj.dfs(child, out, visibleOnly)
	}
}

// VisibleSeq returns the externally-visible sequence/text element order:
// depth-first over the tree-of-inserts, skipping tombstoned nodes (spec
// §4.5).
func (obj *Object) VisibleSeq() []identity.OpId {
	var out []identity.OpId
	obj.dfs(headAnchor, &out, true)
	return out
}

// AllSeq returns every node (visible or tombstoned) in tree order — needed
// by cursor resolution, which must be able to land on a deleted element's
// former neighbours (spec §4.5 "cursors").
func (obj *Object) AllSeq() []identity.OpId {
	var out []identity.OpId
	obj.dfs(headAnchor, &out, false)
	return out
}

// Len returns the number of visible elements in a sequence/text object.
func (obj *Object) Len() int {
	return len(obj.VisibleSeq())
}

// ValidatePredecessors checks that every id in preds already names an op
// present in the same element targeted by loc — the merge-time invariant
// from spec §3.5 ("predecessors always point to ops already in the store
// when the change applies") and §4.4 step 2.
func (obj *Object) ValidatePredecessors(key string, elem identity.OpId, isMapKey bool, preds []identity.OpId) bool {
	var e *Element
	if isMapKey {
		e = obj.Keys[key]
	} else if n, ok := obj.Nodes[elem]; ok {
		e = n.Elem
	}
	if e == nil {
		return len(preds) == 0
	}
	present := make(map[identity.OpId]struct{}, len(e.Ops))
	for _, o := range e.Ops {
		present[o.ID] = struct{}{}
	}
	for _, p := range preds {
		if _, ok := present[p]; !ok {
			return false
		}
	}
	return true
}
