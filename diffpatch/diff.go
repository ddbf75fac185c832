package diffpatch

import (
	"strings"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// Diff returns the patches describing the delta from the view at
// beforeHeads to the view at afterHeads, or (nil, false) if either heads
// set is absent from the graph (spec §4.6).
func Diff(state *merge.State, beforeHeads, afterHeads []identity.Hash) ([]Patch, bool) {
	before, ok := NewView(state, beforeHeads)
	if !ok {
		return nil, false
	}
	after, ok := NewView(state, afterHeads)
	if !ok {
		return nil, false
	}
	d := &differ{before: before, after: after, store: state.Store}
	var out []Patch
	d.diffObject(identity.Root, nil, &out)
	return out, true
}

type differ struct {
	before, after *View
	store         *opset.Store
}

func (d *differ) diffObject(id identity.ObjId, path Path, out *[]Patch) {
	obj, err := d.store.Object(id)
	if err != nil {
		return
	}
	switch obj.Kind {
	case opset.KindMap:
		d.diffMap(obj, path, out)
	default:
		d.diffSeq(obj, path, out)
	}
}

func (d *differ) diffMap(obj *opset.Object, path Path, out *[]Patch) {
	keys := unionStrings(d.before.mapKeys(obj), d.after.mapKeys(obj))
	for _, key := range keys {
		wb, okB := d.before.mapWinner(obj, key)
		wa, okA := d.after.mapWinner(obj, key)
		kp := keyPath(path, key)

		switch {
		case okA && !okB:
			d.emitAdd(wa, kp, out)
		case !okA && okB:
			*out = append(*out, Patch{Kind: PatchDel, Path: path, Index: -1, Len: 1, Text: key})
		case okA && okB:
			d.emitChange(obj, key, wb, wa, kp, out)
		}
	}
}

// emitAdd records a brand-new key: either a nested-object subtree (recursed
// fully, since before has nothing to compare against) or a scalar Put.
func (d *differ) emitAdd(winner op.Op, path Path, out *[]Patch) {
	if winner.IsObjectMaker() {
		*out = append(*out, Patch{Kind: PatchPut, Path: path})
		d.diffObject(winner.ChildObjId(), path, out)
		return
	}
	*out = append(*out, Patch{Kind: PatchPut, Path: path, Value: winner.Value})
}

func (d *differ) emitChange(obj *opset.Object, key string, wb, wa op.Op, path Path, out *[]Patch) {
	if wa.IsObjectMaker() && wb.IsObjectMaker() {
		if wa.ID == wb.ID {
			d.diffObject(wa.ChildObjId(), path, out)
			return
		}
		// Key re-bound to a brand-new object of the same or different kind.
		*out = append(*out, Patch{Kind: PatchPut, Path: path})
		d.diffObject(wa.ChildObjId(), path, out)
		return
	}
	if wa.Value.Type == op.TypeCounter && wb.Value.Type == op.TypeCounter && wa.ID == wb.ID {
		before, _ := opset.ComputeCounter(d.before.filter(obj.Keys[key].Ops))
		after, _ := opset.ComputeCounter(d.after.filter(obj.Keys[key].Ops))
		if after != before {
			*out = append(*out, Patch{Kind: PatchInc, Path: path, Delta: after - before})
		}
	} else if wa.ID != wb.ID || !sameScalar(wa.Value, wb.Value) {
		if wa.IsObjectMaker() {
			*out = append(*out, Patch{Kind: PatchPut, Path: path})
			d.diffObject(wa.ChildObjId(), path, out)
		} else {
			*out = append(*out, Patch{Kind: PatchPut, Path: path, Value: wa.Value})
		}
	}

	if len(d.after.filter(obj.Keys[key].Ops)) > 1 {
		hasConflict := false
		tmp := &opset.Element{Ops: d.after.filter(obj.Keys[key].Ops)}
		if len(tmp.Conflicts()) > 1 {
			hasConflict = true
		}
		if hasConflict {
			*out = append(*out, Patch{Kind: PatchConflict, Path: path})
		}
	}
}

func (d *differ) diffSeq(obj *opset.Object, path Path, out *[]Patch) {
	beforeIDs := d.before.seqVisible(obj)
	afterIDs := d.after.seqVisible(obj)

	if obj.Kind == opset.KindText {
		beforeText := materializeText(obj, d.before, beforeIDs)
		afterText := materializeText(obj, d.after, afterIDs)
		if beforeText == afterText {
			return
		}
		prefix, suffix := commonAffixes([]rune(beforeText), []rune(afterText))
		a := []rune(beforeText)
		b := []rune(afterText)
		if len(a)-prefix-suffix > 0 {
			*out = append(*out, Patch{Kind: PatchDel, Path: path, Index: prefix, Len: len(a) - prefix - suffix})
		}
		if len(b)-prefix-suffix > 0 {
			*out = append(*out, Patch{Kind: PatchSpliceText, Path: path, Index: prefix, Text: string(b[prefix : len(b)-suffix])})
		}
		return
	}

	prefix, suffix := commonAffixIDs(beforeIDs, afterIDs)
	if len(beforeIDs)-prefix-suffix > 0 {
		*out = append(*out, Patch{Kind: PatchDel, Path: path, Index: prefix, Len: len(beforeIDs) - prefix - suffix})
	}
	newIDs := afterIDs[prefix : len(afterIDs)-suffix]
	if len(newIDs) > 0 {
		var values []op.Value
		for _, id := range newIDs {
			if w, ok := d.after.seqWinner(obj, id); ok && !w.IsObjectMaker() {
				values = append(values, w.Value)
			}
		}
		if len(values) > 0 {
			*out = append(*out, Patch{Kind: PatchInsert, Path: path, Index: prefix, Values: values})
		}
		for _, id := range newIDs {
			if w, ok := d.after.seqWinner(obj, id); ok && w.IsObjectMaker() {
				childPath := append(append(Path{}, path...), PathStep{Index: prefix})
				d.diffObject(w.ChildObjId(), childPath, out)
			}
		}
	}
}

// materializeText concatenates the view's winning string values of ids,
// which must already be in tree order (as returned by seqVisible) — the
// same per-node full-string convention sequence.Text uses.
func materializeText(obj *opset.Object, v *View, ids []identity.OpId) string {
	var b strings.Builder
	for _, id := range ids {
		n, ok := obj.Nodes[id]
		if !ok || n.IsBlock {
			continue
		}
		winner, ok := v.seqWinner(obj, id)
		if !ok || winner.Value.Type != op.TypeStr {
			continue
		}
		b.WriteString(winner.Value.Str)
	}
	return b.String()
}

func commonAffixes(a, b []rune) (prefix, suffix int) {
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return
}

func commonAffixIDs(a, b []identity.OpId) (prefix, suffix int) {
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return
}

func sameScalar(a, b op.Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case op.TypeStr:
		return a.Str == b.Str
	case op.TypeBool:
		return a.Bool == b.Bool
	case op.TypeInt, op.TypeTimestamp:
		return a.Int == b.Int
	case op.TypeUint:
		return a.Uint == b.Uint
	case op.TypeF64:
		return a.F64 == b.F64
	case op.TypeBytes:
		return string(a.Bytes) == string(b.Bytes)
	default:
		return true
	}
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range a {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range b {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
