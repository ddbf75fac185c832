// Package sequence implements the list/text engine on top of opset: cursor
// resolution, block markers, marks/spans, and the updateText diff helper
// (spec §4.5).
package sequence

import (
	"errors"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// ErrOutOfRange is returned for an index outside [0, length].
var ErrOutOfRange = errors.New("sequence: index out of range")

// ErrWrongObjectKind is returned when called against a map object.
var ErrWrongObjectKind = errors.New("sequence: not a list or text object")

func checkKind(obj *opset.Object) error {
	if obj.Kind != opset.KindList && obj.Kind != opset.KindText {
		return ErrWrongObjectKind
	}
	return nil
}

// Length returns the number of visible elements.
func Length(obj *opset.Object) (int, error) {
	if err := checkKind(obj); err != nil {
		return 0, err
	}
	return obj.Len(), nil
}

// ElementAt returns the OpId of the visible element currently at index.
func ElementAt(obj *opset.Object, index int) (identity.OpId, error) {
	if err := checkKind(obj); err != nil {
		return identity.OpId{}, err
	}
	visible := obj.VisibleSeq()
	if index < 0 || index >= len(visible) {
		return identity.OpId{}, ErrOutOfRange
	}
	return visible[index], nil
}

// AnchorForInsert returns the anchor OpId a new Insert op at index should
// name: the element currently at index-1, or the zero "head" sentinel when
// index is 0 (spec §4.5).
func AnchorForInsert(obj *opset.Object, index int) (identity.OpId, error) {
	if err := checkKind(obj); err != nil {
		return identity.OpId{}, err
	}
	visible := obj.VisibleSeq()
	if index < 0 || index > len(visible) {
		return identity.OpId{}, ErrOutOfRange
	}
	if index == 0 {
		return identity.OpId{}, nil
	}
	return visible[index-1], nil
}

// ValueAt resolves the winning op's Value at a visible index.
func ValueAt(obj *opset.Object, index int) (op.Value, error) {
	id, err := ElementAt(obj, index)
	if err != nil {
		return op.Value{}, err
	}
	n := obj.Nodes[id]
	winner, ok := n.Elem.Winner()
	if !ok {
		return op.Value{}, ErrOutOfRange
	}
	return winner.Value, nil
}

// Text materializes a text object's current visible string content,
// skipping block-marker elements (which render separately, spec §4.5
// "Blocks").
func Text(obj *opset.Object) (string, error) {
	if obj.Kind != opset.KindText {
		return "", ErrWrongObjectKind
	}
	var out []rune
	for _, id := range obj.VisibleSeq() {
		n := obj.Nodes[id]
		if n.IsBlock {
			continue
		}
		winner, ok := n.Elem.Winner()
		if !ok || winner.Value.Type != op.TypeStr {
			continue
		}
		out = append(out, []rune(winner.Value.Str)...)
	}
	return string(out), nil
}
