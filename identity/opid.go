package identity

// OpId is the Lamport identifier of a single op: (counter, actor).
// counter is 1-based and strictly increases with every write a document
// observes (spec §3.1): counter = 1 + max(seenCounter).
type OpId struct {
	Counter uint64
	Actor   Actor
}

// Root is the sentinel ObjId naming the implicit root map.
var Root = ObjId{}

// ObjId addresses an object: either the sentinel Root, or the OpId of the
// MakeMap/MakeList/MakeText op that created it (spec §3.1).
type ObjId struct {
	id      OpId
	isRoot  bool
	nonRoot bool
}

// NewObjId wraps the OpId of a MakeObject op as an object address.
func NewObjId(id OpId) ObjId {
	return ObjId{id: id, nonRoot: true}
}

func init() {
	Root.isRoot = true
}

// IsRoot reports whether obj addresses the implicit root map.
func (o ObjId) IsRoot() bool { return !o.nonRoot }

// OpId returns the creating op's id. Calling this on Root is meaningless
// and returns the zero OpId.
func (o ObjId) OpId() OpId { return o.id }

// Compare orders two OpIds: by Counter first, then by the actor's byte
// order (spec §3.1). This is the universal tie-break used throughout the
// opset, the sequence engine, and the change graph.
func (a OpId) Compare(b OpId) int {
	switch {
	case a.Counter < b.Counter:
		return -1
	case a.Counter > b.Counter:
		return 1
	default:
		return a.Actor.Compare(b.Actor)
	}
}

// Less is a convenience wrapper around Compare for sort.Slice callers.
func (a OpId) Less(b OpId) bool { return a.Compare(b) < 0 }

// IsZero reports whether id is the unset OpId (used as a "no predecessor" /
// "insert at head" sentinel in the sequence engine).
func (a OpId) IsZero() bool {
	return a.Counter == 0 && a.Actor.IsZero()
}

// Compare orders ObjIds: Root sorts before any non-root object, otherwise
// by the creating op's OpId order. Used only for deterministic iteration,
// never for causal reasoning.
func (o ObjId) Compare(other ObjId) int {
	if o.IsRoot() && other.IsRoot() {
		return 0
	}
	if o.IsRoot() {
		return -1
	}
	if other.IsRoot() {
		return 1
	}
	return o.id.Compare(other.id)
}
