// Package op defines the operation model shared by the opset, change,
// document, merge, sequence, and diff packages: the Action variants, scalar
// datatypes, and the Op struct itself (spec §3.2).
package op

import "github.com/Polqt/crdtcore/identity"

// Action tags what an Op does. Kept as a small integer enum (not an
// interface) so a single switch per call site stays exhaustive-checkable,
// per the "avoid inheritance" guidance for tagged variants.
type Action int

const (
	ActionMakeMap Action = iota
	ActionMakeList
	ActionMakeText
	ActionPut
	ActionInsert
	ActionDelete
	ActionIncrement
	ActionMark
	ActionUnmark
	ActionBlock
)

// String names an Action for logging and debug dumps.
func (a Action) String() string {
	switch a {
	case ActionMakeMap:
		return "makeMap"
	case ActionMakeList:
		return "makeList"
	case ActionMakeText:
		return "makeText"
	case ActionPut:
		return "put"
	case ActionInsert:
		return "insert"
	case ActionDelete:
		return "delete"
	case ActionIncrement:
		return "increment"
	case ActionMark:
		return "mark"
	case ActionUnmark:
		return "unmark"
	case ActionBlock:
		return "block"
	default:
		return "unknown"
	}
}

// ScalarType tags the datatype carried by a Put/Insert value (spec §3.2).
type ScalarType int

const (
	TypeNull ScalarType = iota
	TypeBool
	TypeStr
	TypeBytes
	TypeInt
	TypeUint
	TypeF64
	TypeCounter
	TypeTimestamp
)

// Value is a tagged scalar. Exactly one of the typed fields is meaningful,
// selected by Type.
type Value struct {
	Type  ScalarType
	Bool  bool
	Str   string
	Bytes []byte
	Int   int64   // also backs Counter and Timestamp
	Uint  uint64
	F64   float64
}

// Null is the canonical null value.
var Null = Value{Type: TypeNull}

// Locator addresses where within an object an op applies: a string map key,
// or the OpId of the sequence element it targets/anchors to. Exactly one is
// valid depending on the parent object's kind.
type Locator struct {
	IsMapKey bool
	Key      string
	Elem     identity.OpId // anchor (insert) or target element
}

// MapLocator builds a map-key locator.
func MapLocator(key string) Locator { return Locator{IsMapKey: true, Key: key} }

// ElemLocator builds a sequence-element locator.
func ElemLocator(id identity.OpId) Locator { return Locator{Elem: id} }

// MarkExpand controls whether a mark consumes characters inserted exactly at
// its boundary (spec §4.5).
type MarkExpand int

const (
	ExpandNone MarkExpand = iota
	ExpandBefore
	ExpandAfter
	ExpandBoth
)

// CursorSide picks which side of an anchoring element a cursor or mark
// boundary sits on (spec §4.5 "cursors").
type CursorSide int

const (
	SideAfter CursorSide = iota
	SideBefore
)

// MarkInfo carries the extra fields a Mark/Unmark op needs beyond the common
// Op fields. The mark's start cursor reuses the common Locator.Elem field
// (Mark/Unmark always target a sequence, never a map key); End/EndSide name
// the other boundary.
type MarkInfo struct {
	Name      string
	Value     Value
	Expand    MarkExpand
	StartSide CursorSide
	End       identity.OpId
	EndSide   CursorSide
}

// Op is one entry in the opset: an atomic, causally-linked edit (spec §3.2).
type Op struct {
	ID           identity.OpId
	Obj          identity.ObjId
	Locator      Locator
	Action       Action
	Value        Value
	Predecessors []identity.OpId
	Insert       bool // true for sequence Insert ops

	// Increment carries the signed delta for ActionIncrement.
	Increment int64

	// Mark carries the extra fields for ActionMark/ActionUnmark.
	Mark MarkInfo

	// BlockProps carries the inline property map for ActionBlock as a
	// free-form string->Value map; the change codec writes it as an entry
	// count followed by the key-sorted key/value entries.
	BlockProps map[string]Value
}

// IsObjectMaker reports whether this op creates a new object (spec §3.2).
func (o Op) IsObjectMaker() bool {
	switch o.Action {
	case ActionMakeMap, ActionMakeList, ActionMakeText:
		return true
	default:
		return false
	}
}

// ChildObjId returns the ObjId this op creates, valid only when
// IsObjectMaker is true.
func (o Op) ChildObjId() identity.ObjId {
	return identity.NewObjId(o.ID)
}
