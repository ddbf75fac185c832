package sequence

import (
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// sentinel tags the two fixed cursor positions that never move (spec §4.5
// "Sentinels start and end always resolve to 0 and length").
type sentinel int

const (
	sentinelNone sentinel = iota
	sentinelStart
	sentinelEnd
)

// Cursor is a stable reference into a sequence/text object: either a fixed
// sentinel, or an element id plus a side, which survives concurrent edits
// elsewhere in the sequence (spec §4.5 "Cursors").
type Cursor struct {
	sentinel sentinel
	Elem     identity.OpId
	Side     op.CursorSide
}

// Start is the cursor that always resolves to index 0.
func Start() Cursor { return Cursor{sentinel: sentinelStart} }

// End is the cursor that always resolves to the current length.
func End() Cursor { return Cursor{sentinel: sentinelEnd} }

// At anchors a cursor to elem, resolving on side when elem is later
// deleted. Side defaults to "after" (spec §4.5).
func At(elem identity.OpId, side op.CursorSide) Cursor {
	return Cursor{Elem: elem, Side: side}
}

// Resolve computes cursor's current index within obj's visible sequence.
// If the anchored element has been deleted, it resolves to the nearest
// surviving neighbour on its side (spec §4.5).
func Resolve(obj *opset.Object, c Cursor) (int, error) {
	if err := checkKind(obj); err != nil {
		return 0, err
	}
	visible := obj.VisibleSeq()
	switch c.sentinel {
	case sentinelStart:
		return 0, nil
	case sentinelEnd:
		return len(visible), nil
	}

	all := obj.AllSeq()
	pos := -1
	for i, id := range all {
		if id == c.Elem {
			pos = i
			break
		}
	}
	if pos < 0 {
		// Unknown anchor (never inserted, e.g. the zero head sentinel used
		// as an anchor reference): treat as start.
		return 0, nil
	}

	if obj.Visible(c.Elem) {
		return visibleCountBefore(obj, all, pos, c.Side), nil
	}

	// Deleted: walk toward the requested side for the nearest survivor.
	if c.Side == op.SideAfter {
		for i := pos + 1; i < len(all); i++ {
			if obj.Visible(all[i]) {
				return visibleCountBefore(obj, all, i, op.SideBefore), nil
			}
		}
		return len(visible), nil
	}
	for i := pos - 1; i >= 0; i-- {
		if obj.Visible(all[i]) {
			return visibleCountBefore(obj, all, i, op.SideAfter), nil
		}
	}
	return 0, nil
}

// visibleCountBefore counts how many visible elements precede all[pos],
// then adjusts by one more when side is After (landing just past it).
func visibleCountBefore(obj *opset.Object, all []identity.OpId, pos int, side op.CursorSide) int {
	count := 0
	for i := 0; i < pos; i++ {
		if obj.Visible(all[i]) {
			count++
		}
	}
	if side == op.SideAfter {
		count++
	}
	return count
}
