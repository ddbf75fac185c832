package crdt

import (
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
	"github.com/Polqt/crdtcore/sequence"
	"github.com/Polqt/crdtcore/value"
)

// object resolves obj against the live store, wrapping opset.ErrNotFound
// uniformly for every read accessor below (spec §7 "NotFound").
func (d *Document) object(obj identity.ObjId) (*opset.Object, error) {
	return d.state.Store.Object(obj)
}

// Get resolves a map key (spec §6.2 "get(obj, key) -> (tag, value) | null").
func (d *Document) Get(obj identity.ObjId, key string) (value.Result, bool, error) {
	o, err := d.object(obj)
	if err != nil {
		return value.Result{}, false, err
	}
	return value.Get(o, key)
}

// GetAll returns every currently-conflicting value at a map key (spec
// §6.2 "get_all(obj, key) -> conflicts").
func (d *Document) GetAll(obj identity.ObjId, key string) ([]value.Result, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return value.GetAll(o, key)
}

// GetIndex resolves a list/text element (spec §6.2's get, addressed by
// index rather than key for a sequence object).
func (d *Document) GetIndex(obj identity.ObjId, index int) (value.Result, error) {
	o, err := d.object(obj)
	if err != nil {
		return value.Result{}, err
	}
	return value.GetIndex(o, index)
}

// GetAllIndex is GetIndex's conflict-set counterpart.
func (d *Document) GetAllIndex(obj identity.ObjId, index int) ([]value.Result, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return value.GetAllIndex(o, index)
}

// CounterValue returns a live counter's current sum (spec §3.2, §4.4).
func (d *Document) CounterValue(obj identity.ObjId, key string) (int64, error) {
	o, err := d.object(obj)
	if err != nil {
		return 0, err
	}
	return value.CounterValue(o, key)
}

// Length returns a list/text object's visible element count (spec §6.2
// "length(obj)").
func (d *Document) Length(obj identity.ObjId) (int, error) {
	o, err := d.object(obj)
	if err != nil {
		return 0, err
	}
	return sequence.Length(o)
}

// Keys returns a map object's visible keys, sorted (spec §6.2 "keys(obj)").
func (d *Document) Keys(obj identity.ObjId) ([]string, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	if o.Kind != opset.KindMap {
		return nil, opset.ErrWrongType
	}
	return o.VisibleMapKeys(), nil
}

// Text materializes a text object's visible string content (spec §6.2
// "text(obj)").
func (d *Document) Text(obj identity.ObjId) (string, error) {
	o, err := d.object(obj)
	if err != nil {
		return "", err
	}
	return sequence.Text(o)
}

// Marks returns the compact list of maximal same-mark-set runs over a
// text object (spec §6.2 "marks(obj)").
func (d *Document) Marks(obj identity.ObjId) ([]sequence.Run, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return sequence.Marks(o), nil
}

// MarksAt returns the name->value map of marks covering a visible index
// (spec §6.2 "marks_at(obj, idx)").
func (d *Document) MarksAt(obj identity.ObjId, idx int) (map[string]op.Value, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return sequence.MarksAt(o, idx), nil
}

// Spans returns the alternating text/block span sequence of a text object
// (spec §6.2 "spans(obj)").
func (d *Document) Spans(obj identity.ObjId) ([]sequence.Span, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return sequence.Spans(o), nil
}

// Block returns the property map of the block marker at index (spec §6.2
// "block(obj, idx)").
func (d *Document) Block(obj identity.ObjId, index int) (map[string]op.Value, error) {
	o, err := d.object(obj)
	if err != nil {
		return nil, err
	}
	return sequence.BlockAt(o, index)
}

// Cursor creates a stable anchor into a list/text object at pos, on the
// given side (spec §6.2 "cursor(obj, pos, side) -> Cursor").
func (d *Document) Cursor(obj identity.ObjId, pos int, side op.CursorSide) (sequence.Cursor, error) {
	o, err := d.object(obj)
	if err != nil {
		return sequence.Cursor{}, err
	}
	length, err := sequence.Length(o)
	if err != nil {
		return sequence.Cursor{}, err
	}
	switch {
	case pos == 0:
		return sequence.Start(), nil
	case pos >= length:
		return sequence.End(), nil
	default:
		elem, err := sequence.ElementAt(o, pos)
		if err != nil {
			return sequence.Cursor{}, ErrCursorUnresolvable
		}
		return sequence.At(elem, side), nil
	}
}

// CursorPosition resolves a previously-created cursor back to its current
// index (spec §6.2 "cursor_position(obj, cursor) -> idx").
func (d *Document) CursorPosition(obj identity.ObjId, c sequence.Cursor) (int, error) {
	o, err := d.object(obj)
	if err != nil {
		return 0, err
	}
	return sequence.Resolve(o, c)
}

// Resolve walks a dotted/indexed Path from ROOT using the Document's
// cached Resolver, returning the object and final step ready for a Get/
// GetIndex call (the value package's bounded read-path cache, wired per
// SPEC_FULL.md's domain-stack table).
func (d *Document) Resolve(p value.Path) (*opset.Object, value.Step, error) {
	return d.resolver.Resolve(p)
}
