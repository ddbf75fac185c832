package opset

import "github.com/Polqt/crdtcore/op"

// ComputeCounter re-derives a counter's live value from an arbitrary
// (possibly filtered) set of ops competing for one element, independent of
// the live Element.CounterValue running field. Used by the diff/patch
// layer, which must recompute values against a historical view rather than
// the current store (spec §4.6).
func ComputeCounter(ops []op.Op) (int64, bool) {
	e := &Element{}
	for _, o := range ops {
		e.insertSorted(o)
	}
	winner, ok := e.Winner()
	if !ok || winner.Value.Type != op.TypeCounter {
		return 0, false
	}
	sum := winner.Value.Int
	for _, o := range ops {
		if o.Action != op.ActionIncrement {
			continue
		}
		for _, p := range o.Predecessors {
			if p == winner.ID {
				sum += o.Increment
				break
			}
		}
	}
	return sum, true
}
