// Package merge implements the opset & merge engine: Apply(change)
// validates and commits a change's ops atomically against a Store and
// updates the change graph (spec §4.4).
package merge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/graph"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// ErrMissingDeps is returned when a change's deps are not all present in
// the graph yet; the caller should buffer it (spec §4.7 point 2, §7).
var ErrMissingDeps = errors.New("merge: missing deps")

// ErrSeqGap is returned when a change's seq is not exactly
// last_seq(actor)+1 (spec §3.3 invariant).
var ErrSeqGap = errors.New("merge: non-contiguous seq for actor")

// ErrDuplicateChange is returned by Apply when the change's hash is already
// present in the graph; callers may treat this as a no-op.
var ErrDuplicateChange = errors.New("merge: change already applied")

// State is one document's mutable merge state: the opset, the change
// graph, and per-actor seq tracking, all single-threaded per handle (spec
// §5).
type State struct {
	Store   *opset.Store
	Graph   *graph.Graph
	lastSeq map[string]uint64
	logger  *slog.Logger

	// opChange records which change hash introduced each OpId, so the
	// diff/patch layer can materialize a view restricted to the ops
	// reachable from an arbitrary historical heads set (spec §4.6).
	opChange map[identity.OpId]identity.Hash
}

// New creates an empty merge state. logger may be nil, in which case
// slog.Default() is used — but it is never reached for through a package
// singleton, only stored on this instance (spec §9 ambient logging note).
func New(logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	return &State{
		Store:    opset.New(),
		Graph:    graph.New(),
		lastSeq:  make(map[string]uint64),
		logger:   logger,
		opChange: make(map[identity.OpId]identity.Hash),
	}
}

// ChangeOf returns the hash of the change that introduced id, if known.
func (s *State) ChangeOf(id identity.OpId) (identity.Hash, bool) {
	h, ok := s.opChange[id]
	return h, ok
}

// LastSeq returns the highest seq applied so far for actor, or 0.
func (s *State) LastSeq(actor identity.Actor) uint64 {
	return s.lastSeq[actor.String()]
}

// Apply validates and commits c against the store, per spec §4.4:
//  1. seq contiguity, deps present, hash already checked by change.Decode.
//  2. every op resolves, every predecessor is already present.
//  3. atomic commit: all ops apply, or none (rolled back on first failure).
//  4. graph/heads/lastSeq update.
func (s *State) Apply(c *change.Change) error {
	if s.Graph.Has(c.Hash) {
		return ErrDuplicateChange
	}
	if err := c.Validate(); err != nil {
		return err
	}
	wantSeq := s.lastSeq[c.Actor.String()] + 1
	if c.Seq != wantSeq {
		return fmt.Errorf("%w: actor %s has seq %d, want %d", ErrSeqGap, c.Actor, c.Seq, wantSeq)
	}
	if missing := s.Graph.MissingDeps(c); len(missing) > 0 {
		return fmt.Errorf("%w: %d dep(s) absent", ErrMissingDeps, len(missing))
	}

	var undo []func()
	rollback := func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}

	for i, o := range c.Ops {
		fn, err := s.applyOp(o)
		if err != nil {
			s.logger.Warn("change rejected mid-apply, rolling back",
				"actor", c.Actor, "seq", c.Seq, "op_index", i, "err", err)
			rollback()
			return fmt.Errorf("%w: op %d: %v", change.ErrInvalidChange, i, err)
		}
		undo = append(undo, fn)
	}

	for _, o := range c.Ops {
		s.Store.Observe(o.ID)
		s.opChange[o.ID] = c.Hash
	}
	s.Graph.Insert(c)
	s.lastSeq[c.Actor.String()] = c.Seq
	s.logger.Debug("applied change", "actor", c.Actor, "seq", c.Seq, "ops", len(c.Ops), "hash", c.Hash)
	return nil
}

// StageOp applies a single op directly to the store with a rollback
// closure, without touching the change graph or per-actor seq bookkeeping.
// It is the mechanism a live transaction (crdt.Transaction) uses to make
// staged writes immediately visible to reads within the same handle before
// the surrounding change is hashed and committed (spec §5 "mutations stage
// ops... commit hashes and installs them; rollback discards them").
func (s *State) StageOp(o op.Op) (func(), error) {
	return s.applyOp(o)
}

// Finalize records the bookkeeping for a change whose ops have already
// been staged into the store via StageOp: the change graph, per-actor seq,
// and op->change-hash index. It does not re-apply c's ops.
func (s *State) Finalize(c *change.Change) {
	for _, o := range c.Ops {
		s.Store.Observe(o.ID)
		s.opChange[o.ID] = c.Hash
	}
	s.Graph.Insert(c)
	s.lastSeq[c.Actor.String()] = c.Seq
	s.logger.Debug("committed local change", "actor", c.Actor, "seq", c.Seq, "ops", len(c.Ops), "hash", c.Hash)
}

// applyOp resolves o's target object and locator, validates its
// predecessors, mutates the store, and returns the rollback closure for
// that single mutation.
func (s *State) applyOp(o op.Op) (func(), error) {
	obj, err := s.Store.Object(o.Obj)
	if err != nil {
		return nil, fmt.Errorf("target object: %w", err)
	}

	if o.Locator.IsMapKey {
		return s.applyMapOp(obj, o)
	}
	return s.applySeqOp(obj, o)
}

func (s *State) applyMapOp(obj *opset.Object, o op.Op) (func(), error) {
	switch o.Action {
	case op.ActionDelete:
		if !obj.ValidatePredecessors(o.Locator.Key, identity.OpId{}, true, o.Predecessors) {
			return nil, fmt.Errorf("delete: %w", errPredecessorsUnresolved)
		}
		return obj.DeleteMapKeyUndo(o.Locator.Key, o)
	case op.ActionIncrement:
		if !obj.ValidatePredecessors(o.Locator.Key, identity.OpId{}, true, o.Predecessors) {
			return nil, fmt.Errorf("increment: %w", errPredecessorsUnresolved)
		}
		return obj.PutMapUndo(o.Locator.Key, o)
	case op.ActionMakeMap, op.ActionMakeList, op.ActionMakeText, op.ActionPut:
		if !obj.ValidatePredecessors(o.Locator.Key, identity.OpId{}, true, o.Predecessors) {
			return nil, fmt.Errorf("put: %w", errPredecessorsUnresolved)
		}
		undoPut, err := obj.PutMapUndo(o.Locator.Key, o)
		if err != nil {
			return nil, err
		}
		if !o.IsObjectMaker() {
			return undoPut, nil
		}
		_, undoCreate := s.Store.CreateObjectUndo(o)
		return func() { undoCreate(); undoPut() }, nil
	default:
		return nil, fmt.Errorf("action %s not valid at a map locator", o.Action)
	}
}

func (s *State) applySeqOp(obj *opset.Object, o op.Op) (func(), error) {
	if o.Insert {
		undoInsert, err := obj.InsertSeqUndo(o.Locator.Elem, o)
		if err != nil {
			return nil, fmt.Errorf("insert: %w", err)
		}
		if !o.IsObjectMaker() {
			return undoInsert, nil
		}
		_, undoCreate := s.Store.CreateObjectUndo(o)
		return func() { undoCreate(); undoInsert() }, nil
	}

	switch o.Action {
	case op.ActionDelete:
		if !obj.ValidatePredecessors("", o.Locator.Elem, false, o.Predecessors) {
			return nil, fmt.Errorf("delete: %w", errPredecessorsUnresolved)
		}
		return obj.DeleteSeqUndo(o.Locator.Elem, o)
	case op.ActionIncrement:
		if !obj.ValidatePredecessors("", o.Locator.Elem, false, o.Predecessors) {
			return nil, fmt.Errorf("increment: %w", errPredecessorsUnresolved)
		}
		return obj.PutSeqUndo(o.Locator.Elem, o)
	case op.ActionMark, op.ActionUnmark:
		return obj.AppendMarkUndo(o), nil
	case op.ActionPut:
		if !obj.ValidatePredecessors("", o.Locator.Elem, false, o.Predecessors) {
			return nil, fmt.Errorf("put: %w", errPredecessorsUnresolved)
		}
		return obj.PutSeqUndo(o.Locator.Elem, o)
	default:
		return nil, fmt.Errorf("action %s not valid at a sequence locator", o.Action)
	}
}

var errPredecessorsUnresolved = errors.New("one or more predecessors are not present in the target element")
