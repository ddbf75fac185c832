package sequence

import (
	"errors"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// ErrNotABlock is returned when an index does not address a block element.
var ErrNotABlock = errors.New("sequence: element is not a block")

// BlockAt returns the property map of the block element currently at
// index, or ErrNotABlock if that position holds ordinary content.
func BlockAt(obj *opset.Object, index int) (map[string]op.Value, error) {
	id, err := ElementAt(obj, index)
	if err != nil {
		return nil, err
	}
	n := obj.Nodes[id]
	if !n.IsBlock {
		return nil, ErrNotABlock
	}
	winner, ok := n.Elem.Winner()
	if !ok {
		return nil, ErrNotABlock
	}
	return winner.BlockProps, nil
}

// SplitBlockAnchor resolves the anchor a splitBlock(idx, props) call should
// use when minting its Insert op: inserting a block behaves exactly like
// inserting any other sequence element, just tagged IsBlock (spec §4.5).
// The actual op construction and application stay with the document layer,
// which owns OpId minting and the merge engine.
func SplitBlockAnchor(obj *opset.Object, index int) (identity.OpId, error) {
	return AnchorForInsert(obj, index)
}

// JoinBlockTarget resolves the element a joinBlock(idx) Delete op should
// target, failing with ErrNotABlock if index isn't currently a block.
func JoinBlockTarget(obj *opset.Object, index int) (identity.OpId, error) {
	id, err := ElementAt(obj, index)
	if err != nil {
		return identity.OpId{}, err
	}
	if !obj.Nodes[id].IsBlock {
		return identity.OpId{}, ErrNotABlock
	}
	return id, nil
}

// UpdateBlockTarget resolves the element an updateBlock(idx, props) Block op
// should target (a rewrite joins the same conflict set as the original
// creation, so the greatest OpId's props win, per normal winner semantics).
func UpdateBlockTarget(obj *opset.Object, index int) (identity.OpId, error) {
	return JoinBlockTarget(obj, index)
}
