package sequence

import (
	"sort"

	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// markRange is a resolved [start, end) index range for one Mark/Unmark op.
type markRange struct {
	m          op.Op
	start, end int
}

func resolvedRanges(obj *opset.Object) []markRange {
	out := make([]markRange, 0, len(obj.Marks))
	for _, m := range obj.Marks {
		start, err := Resolve(obj, At(m.Locator.Elem, m.Mark.StartSide))
		if err != nil {
			continue
		}
		end, err := Resolve(obj, At(m.Mark.End, m.Mark.EndSide))
		if err != nil {
			continue
		}
		out = append(out, markRange{m: m, start: start, end: end})
	}
	return out
}

// MarksAt returns the name -> value map of marks covering visible index
// idx. When a Mark and an Unmark of the same name both cover idx, the
// later OpId wins (spec §9's resolved open question; §4.5 "marks_at").
func MarksAt(obj *opset.Object, idx int) map[string]op.Value {
	ranges := resolvedRanges(obj)
	winners := make(map[string]op.Op)
	for _, r := range ranges {
		if idx < r.start || idx >= r.end {
			continue
		}
		name := r.m.Mark.Name
		cur, ok := winners[name]
		if !ok || r.m.ID.Compare(cur.ID) > 0 {
			winners[name] = r.m
		}
	}
	out := make(map[string]op.Value)
	for name, m := range winners {
		if m.Action == op.ActionMark {
			out[name] = m.Mark.Value
		}
	}
	return out
}

// Run is one maximal span of constant mark state, as returned by Marks.
type Run struct {
	Start, End int
	Marks      map[string]op.Value
}

// Marks returns the compact list of maximal same-mark-set runs over the
// object's full visible length (spec §4.5 "marks()").
func Marks(obj *opset.Object) []Run {
	n := obj.Len()
	if n == 0 {
		return nil
	}
	var runs []Run
	var cur Run
	for i := 0; i < n; i++ {
		at := MarksAt(obj, i)
		if i == 0 || !sameMarkSet(cur.Marks, at) {
			if i > 0 {
				cur.End = i
				runs = append(runs, cur)
			}
			cur = Run{Start: i, Marks: at}
		}
	}
	cur.End = n
	runs = append(runs, cur)
	return runs
}

func sameMarkSet(a, b map[string]op.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !sameValue(va, vb) {
			return false
		}
	}
	return true
}

func sameValue(a, b op.Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case op.TypeStr:
		return a.Str == b.Str
	case op.TypeBool:
		return a.Bool == b.Bool
	case op.TypeInt, op.TypeCounter, op.TypeTimestamp:
		return a.Int == b.Int
	case op.TypeUint:
		return a.Uint == b.Uint
	case op.TypeF64:
		return a.F64 == b.F64
	default:
		return true
	}
}

// Span is one element of the alternating text/block sequence spans()
// returns: either plain text with its mark set, or a block marker.
type Span struct {
	IsBlock    bool
	Text       string
	Marks      map[string]op.Value
	BlockProps map[string]op.Value
}

// Spans returns the alternating sequence of text-with-marks runs and block
// markers across the whole object (spec §4.5 "spans(obj)").
func Spans(obj *opset.Object) []Span {
	var out []Span
	var textBuf []rune
	var textMarks map[string]op.Value

	flush := func() {
		if len(textBuf) > 0 {
			out = append(out, Span{Text: string(textBuf), Marks: textMarks})
			textBuf = nil
			textMarks = nil
		}
	}

	for i, id := range obj.VisibleSeq() {
		n := obj.Nodes[id]
		if n.IsBlock {
			flush()
			winner, ok := n.Elem.Winner()
			props := map[string]op.Value(nil)
			if ok {
				props = winner.BlockProps
			}
			out = append(out, Span{IsBlock: true, BlockProps: props})
			continue
		}
		winner, ok := n.Elem.Winner()
		if !ok || winner.Value.Type != op.TypeStr {
			continue
		}
		marks := MarksAt(obj, i)
		if textBuf != nil && !sameMarkSet(textMarks, marks) {
			flush()
		}
		if textBuf == nil {
			textMarks = marks
		}
		textBuf = append(textBuf, []rune(winner.Value.Str)...)
	}
	flush()
	return out
}

// SpliceInstruction is one minimal edit the document/transaction layer
// should apply to reconcile a current sequence with a desired one — either
// a deletion (DeleteLen > 0) or an insertion (len(Insert) > 0) at Index,
// applied left to right.
type SpliceInstruction struct {
	Index     int
	DeleteLen int
	Insert    []rune
}

// DiffText computes the minimal splice instructions turning current into
// target, via an LCS-based diff (spec §4.5 "updateText": "a linear LCS-like
// algorithm is sufficient").
func DiffText(current, target string) []SpliceInstruction {
	a := []rune(current)
	b := []rune(target)
	// Trim shared prefix/suffix first — turns the common case (an edit deep
	// inside otherwise-unchanged text) into a tiny diff without running the
	// full O(n*m) LCS table over it.
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	aMid := a[prefix : len(a)-suffix]
	bMid := b[prefix : len(b)-suffix]
	if len(aMid) == 0 && len(bMid) == 0 {
		return nil
	}

	var out []SpliceInstruction
	if len(aMid) > 0 {
		out = append(out, SpliceInstruction{Index: prefix, DeleteLen: len(aMid)})
	}
	if len(bMid) > 0 {
		out = append(out, SpliceInstruction{Index: prefix, Insert: append([]rune(nil), bMid...)})
	}
	return out
}

// SortRuns is a small helper for callers that need Marks() output in a
// stable, deterministic order beyond append order (map iteration elsewhere
// in this file is already ordered by construction).
func SortRuns(runs []Run) {
	sort.Slice(runs, func(i, j int) bool { return runs[i].Start < runs[j].Start })
}
