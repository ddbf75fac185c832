package crdt

import (
	"errors"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/diffpatch"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
)

// Changes returns every change in doc's graph, in topological order (spec
// §6.2 "changes").
func (d *Document) Changes() []*change.Change {
	return d.state.Graph.TopoSort()
}

// ChangesSince returns the changes not reachable from heads, in
// topological order (spec §6.2 "changes_since(heads)").
func (d *Document) ChangesSince(heads []identity.Hash) []*change.Change {
	return d.state.Graph.ChangesAfter(heads)
}

// ApplyChanges installs a batch of externally-received changes, applying
// as many as it can and buffering the rest when their deps aren't present
// yet (spec §6.2 "apply_changes([change])", §7 "MissingDeps ... the change
// is buffered and the call succeeds"). Any non-MissingDeps error aborts
// immediately, per §7 "codec errors are surfaced to the caller".
func (d *Document) ApplyChanges(changes []*change.Change) error {
	for _, c := range changes {
		if err := d.state.Apply(c); err != nil {
			if errors.Is(err, merge.ErrMissingDeps) {
				d.state.Graph.Buffer(c)
				continue
			}
			if errors.Is(err, merge.ErrDuplicateChange) {
				continue
			}
			return err
		}
	}
	for _, c := range d.state.Graph.DrainReady() {
		if err := d.state.Apply(c); err != nil && !errors.Is(err, merge.ErrDuplicateChange) {
			return err
		}
	}
	return nil
}

// MissingDeps reports which of heads are not present in doc's graph (spec
// §6.2 "missing_deps(heads)").
func (d *Document) MissingDeps(heads []identity.Hash) []identity.Hash {
	var missing []identity.Hash
	for _, h := range heads {
		if !d.state.Graph.Has(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// LastLocalChange returns doc's most recently committed change authored by
// its current actor, if any (spec §6.2 "last_local_change").
func (d *Document) LastLocalChange() (*change.Change, bool) {
	var latest *change.Change
	for _, c := range d.state.Graph.TopoSort() {
		if c.Actor.Compare(d.actor) == 0 {
			if latest == nil || c.Seq > latest.Seq {
				latest = c
			}
		}
	}
	if latest == nil {
		return nil, false
	}
	return latest, true
}

// Diff computes the patches turning the document at beforeHeads into the
// document at afterHeads (spec §6.2 "diff(before, after)", §4.6).
func (d *Document) Diff(beforeHeads, afterHeads []identity.Hash) ([]diffpatch.Patch, bool) {
	return diffpatch.Diff(d.state, beforeHeads, afterHeads)
}
