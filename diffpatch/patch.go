package diffpatch

import "github.com/Polqt/crdtcore/op"

// PatchKind tags a Patch's shape (spec §4.6).
type PatchKind int

const (
	PatchPut PatchKind = iota
	PatchInsert
	PatchDel
	PatchSpliceText
	PatchInc
	PatchMark
	PatchUnmark
	PatchConflict
)

// Path addresses a location within the document: a sequence of map keys
// and/or sequence indices from ROOT.
type Path []PathStep

// PathStep is one segment of a Path.
type PathStep struct {
	IsKey bool
	Key   string
	Index int
}

// Patch describes one delta between two materialized views (spec §4.6).
// Only the fields relevant to Kind are meaningful.
type Patch struct {
	Kind PatchKind
	Path Path

	Value  op.Value   // PatchPut
	Values []op.Value // PatchInsert
	Index  int        // PatchInsert, PatchDel (-1 for a map key), PatchSpliceText
	Len    int        // PatchDel
	Text   string     // PatchSpliceText; the deleted key for a map PatchDel
	Delta  int64      // PatchInc
	Name   string     // PatchUnmark
	Start  int        // PatchUnmark
	End    int        // PatchUnmark
}

func keyPath(base Path, key string) Path {
	out := make(Path, len(base), len(base)+1)
	copy(out, base)
	return append(out, PathStep{IsKey: true, Key: key})
}
