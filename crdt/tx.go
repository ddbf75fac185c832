package crdt

import (
	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
	"github.com/Polqt/crdtcore/sequence"
)

// Transaction stages a batch of ops against a Document's live store — each
// staged op is immediately visible to reads on the same handle — then
// bundles them into one hashed change on Commit, or unwinds every staged
// mutation on Rollback (spec §4.4, §5, §6.2 "Write (inside transaction)").
// Only one Transaction may be open on a Document at a time.
type Transaction struct {
	doc     *Document
	actor   identity.Actor
	startOp uint64
	deps    []identity.Hash
	ops     []op.Op
	undo    []func()
	done    bool
}

// Begin opens a new transaction on doc (spec §6.2 "commit, rollback" imply
// a prior begin). Fails with ErrNestedTransaction if one is already open,
// or ErrReadOnly if doc was obtained via View.
func Begin(doc *Document) (*Transaction, error) {
	if doc.readOnly {
		return nil, ErrReadOnly
	}
	if doc.tx != nil {
		return nil, ErrNestedTransaction
	}
	tx := &Transaction{
		doc:     doc,
		actor:   doc.actor,
		startOp: doc.state.Store.NextCounter(),
		deps:    doc.state.Graph.Heads(),
	}
	doc.tx = tx
	return tx, nil
}

// SetActor changes the actor id this transaction (and, on Commit, the
// document going forward) stamps its change with (spec §6.2 "set_actor").
func (tx *Transaction) SetActor(actor identity.Actor) {
	tx.actor = actor
}

// mintID allocates the next OpId for this transaction's actor and advances
// the store's Lamport clock so a subsequent mint within the same
// transaction never collides (spec §3.1: "counter = 1 + max(seenCounter)").
// Advancing the clock ahead of commit is safe even if the transaction is
// later rolled back: OpId counters only need to strictly increase, not
// stay contiguous across the whole document.
func (tx *Transaction) mintID() identity.OpId {
	id := identity.OpId{Counter: tx.doc.state.Store.NextCounter(), Actor: tx.actor}
	tx.doc.state.Store.Observe(id)
	return id
}

func (tx *Transaction) stage(o op.Op) error {
	undo, err := tx.doc.state.StageOp(o)
	if err != nil {
		return err
	}
	tx.ops = append(tx.ops, o)
	tx.undo = append(tx.undo, undo)
	return nil
}

// predsForKey collects the ids of every op (live or tombstoned) currently
// competing for obj/key, the causal-dependency record a Put/Delete/
// Increment at that key must carry (spec §3.5 "predecessors always point
// to ops already in the store").
func (tx *Transaction) predsForKey(obj identity.ObjId, key string) []identity.OpId {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return nil
	}
	e, ok := o.Keys[key]
	if !ok {
		return nil
	}
	ids := make([]identity.OpId, len(e.Ops))
	for i, entry := range e.Ops {
		ids[i] = entry.ID
	}
	return ids
}

// predsForElem is predsForKey's sequence-element counterpart.
func (tx *Transaction) predsForElem(obj identity.ObjId, elem identity.OpId) []identity.OpId {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return nil
	}
	n, ok := o.Nodes[elem]
	if !ok {
		return nil
	}
	ids := make([]identity.OpId, len(n.Elem.Ops))
	for i, entry := range n.Elem.Ops {
		ids[i] = entry.ID
	}
	return ids
}

// Put writes a scalar value at a map key (spec §6.2 "put").
func (tx *Transaction) Put(obj identity.ObjId, key string, v op.Value) (identity.OpId, error) {
	id := tx.mintID()
	o := op.Op{ID: id, Obj: obj, Locator: op.MapLocator(key), Action: op.ActionPut,
		Value: v, Predecessors: tx.predsForKey(obj, key)}
	if err := tx.stage(o); err != nil {
		return identity.OpId{}, err
	}
	return id, nil
}

// PutObject creates a nested map/list/text object at a map key and returns
// its new ObjId (spec §6.2 "put_object").
func (tx *Transaction) PutObject(obj identity.ObjId, key string, kind opset.ObjKind) (identity.ObjId, error) {
	action, err := actionForKind(kind)
	if err != nil {
		return identity.ObjId{}, err
	}
	id := tx.mintID()
	o := op.Op{ID: id, Obj: obj, Locator: op.MapLocator(key), Action: action,
		Predecessors: tx.predsForKey(obj, key)}
	if err := tx.stage(o); err != nil {
		return identity.ObjId{}, err
	}
	return o.ChildObjId(), nil
}

// Insert writes a scalar value into a list/text object at index (spec
// §6.2 "insert").
func (tx *Transaction) Insert(obj identity.ObjId, index int, v op.Value) (identity.OpId, error) {
	anchor, err := tx.anchorFor(obj, index)
	if err != nil {
		return identity.OpId{}, err
	}
	id := tx.mintID()
	o := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(anchor), Action: op.ActionPut, Value: v, Insert: true}
	if err := tx.stage(o); err != nil {
		return identity.OpId{}, err
	}
	return id, nil
}

// InsertObject inserts a nested map/list/text object into a list/text
// object at index and returns its new ObjId (spec §6.2 "insert_object").
func (tx *Transaction) InsertObject(obj identity.ObjId, index int, kind opset.ObjKind) (identity.ObjId, error) {
	action, err := actionForKind(kind)
	if err != nil {
		return identity.ObjId{}, err
	}
	anchor, err := tx.anchorFor(obj, index)
	if err != nil {
		return identity.ObjId{}, err
	}
	id := tx.mintID()
	o := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(anchor), Action: action, Insert: true}
	if err := tx.stage(o); err != nil {
		return identity.ObjId{}, err
	}
	return o.ChildObjId(), nil
}

func (tx *Transaction) anchorFor(obj identity.ObjId, index int) (identity.OpId, error) {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return identity.OpId{}, err
	}
	return sequence.AnchorForInsert(o, index)
}

// Splice deletes deleteCount elements at index then inserts values there,
// left to right (spec §6.2 "splice"; also the primitive behind the
// sequence package's DiffText-produced SpliceInstruction list).
func (tx *Transaction) Splice(obj identity.ObjId, index, deleteCount int, values []op.Value) error {
	for i := 0; i < deleteCount; i++ {
		if err := tx.Delete(obj, index); err != nil {
			return err
		}
	}
	for i, v := range values {
		if _, err := tx.Insert(obj, index+i, v); err != nil {
			return err
		}
	}
	return nil
}

// Delete tombstones a map key or, for a list/text object, the element
// currently at index (spec §6.2 "delete").
func (tx *Transaction) Delete(obj identity.ObjId, keyOrIndex any) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	id := tx.mintID()
	if o.Kind == opset.KindMap {
		key, ok := keyOrIndex.(string)
		if !ok {
			return opset.ErrWrongType
		}
		del := op.Op{ID: id, Obj: obj, Locator: op.MapLocator(key), Action: op.ActionDelete,
			Predecessors: tx.predsForKey(obj, key)}
		return tx.stage(del)
	}
	index, ok := keyOrIndex.(int)
	if !ok {
		return opset.ErrWrongType
	}
	elem, err := sequence.ElementAt(o, index)
	if err != nil {
		return err
	}
	del := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(elem), Action: op.ActionDelete,
		Predecessors: tx.predsForElem(obj, elem)}
	return tx.stage(del)
}

// Increment adds delta to a live counter at a map key or sequence index
// (spec §6.2 "increment", §3.2, §4.4).
func (tx *Transaction) Increment(obj identity.ObjId, keyOrIndex any, delta int64) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	id := tx.mintID()
	if o.Kind == opset.KindMap {
		key := keyOrIndex.(string)
		inc := op.Op{ID: id, Obj: obj, Locator: op.MapLocator(key), Action: op.ActionIncrement,
			Increment: delta, Predecessors: tx.predsForKey(obj, key)}
		return tx.stage(inc)
	}
	index := keyOrIndex.(int)
	elem, err := sequence.ElementAt(o, index)
	if err != nil {
		return err
	}
	inc := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(elem), Action: op.ActionIncrement,
		Increment: delta, Predecessors: tx.predsForElem(obj, elem)}
	return tx.stage(inc)
}

// boundary resolves a text index to the (elem, side) pair a mark boundary
// at that index anchors to: the zero OpId (resolved as "start" by cursor
// resolution) at index 0, the last visible element with SideAfter at the
// text's current length, otherwise the element at index with SideBefore.
func (tx *Transaction) boundary(obj *opset.Object, index int) (identity.OpId, op.CursorSide, error) {
	length := obj.Len()
	if index == 0 {
		return identity.OpId{}, op.SideBefore, nil
	}
	if index >= length {
		if length == 0 {
			return identity.OpId{}, op.SideBefore, nil
		}
		last, err := sequence.ElementAt(obj, length-1)
		if err != nil {
			return identity.OpId{}, 0, err
		}
		return last, op.SideAfter, nil
	}
	elem, err := sequence.ElementAt(obj, index)
	if err != nil {
		return identity.OpId{}, 0, err
	}
	return elem, op.SideBefore, nil
}

// Mark overlays a named attribute on [start, end) of a text object (spec
// §6.2 "mark", §4.5).
func (tx *Transaction) Mark(obj identity.ObjId, start, end int, name string, v op.Value, expand op.MarkExpand) error {
	return tx.markOp(obj, start, end, name, v, expand, op.ActionMark)
}

// Unmark removes a named attribute over [start, end) (spec §6.2 "unmark").
func (tx *Transaction) Unmark(obj identity.ObjId, start, end int, name string, expand op.MarkExpand) error {
	return tx.markOp(obj, start, end, name, op.Value{}, expand, op.ActionUnmark)
}

func (tx *Transaction) markOp(obj identity.ObjId, start, end int, name string, v op.Value, expand op.MarkExpand, action op.Action) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	startElem, startSide, err := tx.boundary(o, start)
	if err != nil {
		return err
	}
	endElem, endSide, err := tx.boundary(o, end)
	if err != nil {
		return err
	}
	id := tx.mintID()
	m := op.Op{
		ID: id, Obj: obj, Locator: op.ElemLocator(startElem), Action: action,
		Mark: op.MarkInfo{Name: name, Value: v, Expand: expand, StartSide: startSide, End: endElem, EndSide: endSide},
	}
	return tx.stage(m)
}

// UpdateSpans reconciles obj's current mark state to target, emitting the
// minimal Mark/Unmark ops needed (spec §6.2 "update_spans"). For each mark
// name, it walks target's per-index coverage against the current coverage
// (sequence.MarksAt) and emits one op per maximal run where they disagree
// — the same prefix/suffix-trim-style "only touch what changed" approach
// DiffText uses for text (spec §4.5 explicitly allows a linear algorithm
// here rather than a general patch/merge of mark trees).
func (tx *Transaction) UpdateSpans(obj identity.ObjId, target []sequence.Run) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	length := o.Len()
	wanted := make([]map[string]op.Value, length)
	for _, r := range target {
		for i := r.Start; i < r.End && i < length; i++ {
			wanted[i] = r.Marks
		}
	}

	names := map[string]bool{}
	for i := 0; i < length; i++ {
		for n := range wanted[i] {
			names[n] = true
		}
		for n := range sequence.MarksAt(o, i) {
			names[n] = true
		}
	}

	for name := range names {
		i := 0
		for i < length {
			if markMatches(o, i, name, wanted) {
				i++
				continue
			}
			start := i
			wantVal, becomesMark := wanted[i][name]
			for i < length {
				v, wantHas := wanted[i][name]
				if markMatches(o, i, name, wanted) || wantHas != becomesMark {
					break
				}
				if becomesMark && !sameOpValue(v, wantVal) {
					break
				}
				i++
			}
			if becomesMark {
				if err := tx.Mark(obj, start, i, name, wanted[start][name], op.ExpandNone); err != nil {
					return err
				}
			} else {
				if err := tx.Unmark(obj, start, i, name, op.ExpandNone); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// markMatches reports whether index idx's current mark state for name
// already agrees with wanted.
func markMatches(obj *opset.Object, idx int, name string, wanted []map[string]op.Value) bool {
	curVal, curOk := sequence.MarksAt(obj, idx)[name]
	wantVal, wantOk := wanted[idx][name]
	if curOk != wantOk {
		return false
	}
	if !curOk {
		return true
	}
	return sameOpValue(curVal, wantVal)
}

func sameOpValue(a, b op.Value) bool {
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
	case op.TypeBytes:
		if len(a.Bytes) != len(b.Bytes) {
			return false
		}
		for i := range a.Bytes {
			if a.Bytes[i] != b.Bytes[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// SplitBlock inserts a block marker carrying props at index (spec §6.2
// "split_block").
func (tx *Transaction) SplitBlock(obj identity.ObjId, index int, props map[string]op.Value) (identity.OpId, error) {
	anchor, err := tx.anchorFor(obj, index)
	if err != nil {
		return identity.OpId{}, err
	}
	id := tx.mintID()
	o := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(anchor), Action: op.ActionBlock,
		Insert: true, BlockProps: props}
	if err := tx.stage(o); err != nil {
		return identity.OpId{}, err
	}
	return id, nil
}

// JoinBlock removes the block marker at index, merging it into the
// surrounding text (spec §6.2 "join_block").
func (tx *Transaction) JoinBlock(obj identity.ObjId, index int) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	target, err := sequence.JoinBlockTarget(o, index)
	if err != nil {
		return err
	}
	id := tx.mintID()
	del := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(target), Action: op.ActionDelete,
		Predecessors: tx.predsForElem(obj, target)}
	return tx.stage(del)
}

// UpdateBlock rewrites the property map of the block marker at index
// (spec §6.2 "update_block"): a fresh Block op joins the same conflict set
// as the original, so ordinary winner semantics pick the latest props.
func (tx *Transaction) UpdateBlock(obj identity.ObjId, index int, props map[string]op.Value) error {
	o, err := tx.doc.state.Store.Object(obj)
	if err != nil {
		return err
	}
	target, err := sequence.UpdateBlockTarget(o, index)
	if err != nil {
		return err
	}
	id := tx.mintID()
	update := op.Op{ID: id, Obj: obj, Locator: op.ElemLocator(target), Action: op.ActionBlock,
		BlockProps: props, Predecessors: tx.predsForElem(obj, target)}
	return tx.stage(update)
}

func actionForKind(kind opset.ObjKind) (op.Action, error) {
	switch kind {
	case opset.KindMap:
		return op.ActionMakeMap, nil
	case opset.KindList:
		return op.ActionMakeList, nil
	case opset.KindText:
		return op.ActionMakeText, nil
	default:
		return 0, opset.ErrWrongType
	}
}

// Rollback undoes every op staged so far in this transaction, in reverse
// order, and closes the transaction without touching the change graph
// (spec §6.2 "rollback"; §7 "inside a transaction any error rolls back").
func (tx *Transaction) Rollback() {
	if tx.done {
		return
	}
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.done = true
	tx.doc.tx = nil
}

// Commit bundles every staged op into one hashed change, installs it into
// the change graph via Finalize (the ops are already live in the store
// from StageOp, so Finalize only records bookkeeping — it does not
// re-apply them), and updates doc's actor for subsequent transactions
// (spec §6.2 "commit"). An empty transaction (no ops staged) commits
// nothing and returns a nil change.
func (tx *Transaction) Commit() (*change.Change, error) {
	if tx.done {
		return nil, ErrNoTransaction
	}
	defer func() {
		tx.done = true
		tx.doc.tx = nil
	}()

	if len(tx.ops) == 0 {
		return nil, nil
	}

	c := &change.Change{
		Actor:   tx.actor,
		Seq:     tx.doc.state.LastSeq(tx.actor) + 1,
		StartOp: tx.startOp,
		Deps:    tx.deps,
		Ops:     tx.ops,
	}
	blob, err := change.Encode(c)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	decoded, err := change.Decode(blob)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	tx.doc.state.Finalize(decoded)
	tx.doc.actor = tx.actor
	return decoded, nil
}
