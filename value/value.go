// Package value implements the read-side value layer: map/list get and
// get_all, scalar materialization, conflict sets, and dotted/indexed path
// resolution across nested objects (spec §4.4 "value layer", §6.2).
package value

import (
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/op"
	"github.com/Polqt/crdtcore/opset"
)

// ErrNotFound covers an absent map key, an out-of-range list index, or a
// deleted (invisible) element (spec §7).
var ErrNotFound = errors.New("value: not found")

// Tag classifies what Get returns: a scalar, or a reference to a nested
// object (spec §6.2 "get(obj, key) -> (tag, value)").
type Tag int

const (
	TagNull Tag = iota
	TagScalar
	TagObject
)

// Result is Get's return shape: either a scalar op.Value, or the ObjId of
// the nested object the winning op created.
type Result struct {
	Tag   Tag
	Value op.Value
	Obj   identity.ObjId
}

func fromWinner(o op.Op) Result {
	if o.IsObjectMaker() {
		return Result{Tag: TagObject, Obj: o.ChildObjId()}
	}
	if o.Value.Type == op.TypeNull {
		return Result{Tag: TagNull}
	}
	return Result{Tag: TagScalar, Value: o.Value}
}

// Get resolves a map key on obj, per spec §6.2.
func Get(obj *opset.Object, key string) (Result, bool, error) {
	if obj.Kind != opset.KindMap {
		return Result{}, false, opset.ErrWrongType
	}
	e, ok := obj.Keys[key]
	if !ok {
		return Result{}, false, nil
	}
	winner, ok := e.Winner()
	if !ok {
		return Result{}, false, nil
	}
	return fromWinner(winner), true, nil
}

// GetAll returns every currently-visible conflicting op at a map key — more
// than one result means a true write/write conflict (spec §6.2
// "get_all(obj, key) -> conflicts").
func GetAll(obj *opset.Object, key string) ([]Result, error) {
	if obj.Kind != opset.KindMap {
		return nil, opset.ErrWrongType
	}
	e, ok := obj.Keys[key]
	if !ok {
		return nil, nil
	}
	var out []Result
	for _, o := range e.Conflicts() {
		out = append(out, fromWinner(o))
	}
	return out, nil
}

// GetIndex resolves a sequence element at a visible index.
func GetIndex(obj *opset.Object, index int) (Result, error) {
	if obj.Kind != opset.KindList && obj.Kind != opset.KindText {
		return Result{}, opset.ErrWrongType
	}
	visible := obj.VisibleSeq()
	if index < 0 || index >= len(visible) {
		return Result{}, ErrNotFound
	}
	n := obj.Nodes[visible[index]]
	winner, ok := n.Elem.Winner()
	if !ok {
		return Result{}, ErrNotFound
	}
	return fromWinner(winner), nil
}

// GetAllIndex is GetAll's sequence counterpart.
func GetAllIndex(obj *opset.Object, index int) ([]Result, error) {
	if obj.Kind != opset.KindList && obj.Kind != opset.KindText {
		return nil, opset.ErrWrongType
	}
	visible := obj.VisibleSeq()
	if index < 0 || index >= len(visible) {
		return nil, ErrNotFound
	}
	n := obj.Nodes[visible[index]]
	var out []Result
	for _, o := range n.Elem.Conflicts() {
		out = append(out, fromWinner(o))
	}
	return out, nil
}

// CounterValue returns the current live sum of a counter at a map key, or
// ErrNotFound if the key isn't a live counter (spec §3.2, §4.4).
func CounterValue(obj *opset.Object, key string) (int64, error) {
	e, ok := obj.Keys[key]
	if !ok || !e.HasCounter {
		return 0, ErrNotFound
	}
	if _, ok := e.Winner(); !ok {
		return 0, ErrNotFound
	}
	return e.CounterValue, nil
}

// Step is one segment of a Path: a map key, or a sequence index.
type Step struct {
	IsKey bool
	Key   string
	Index int
}

// KeyStep builds a map-key path segment.
func KeyStep(k string) Step { return Step{IsKey: true, Key: k} }

// IndexStep builds a sequence-index path segment.
func IndexStep(i int) Step { return Step{Index: i} }

// Path addresses a value by walking nested objects from ROOT.
type Path []Step

// Resolver walks Paths against a Store, caching map-key/index -> ObjId
// lookups for repeated reads of nested structures (spec's domain-stack
// wiring: a bounded LRU read cache over the value layer, since a Document
// is read far more often than it is mutated).
type Resolver struct {
	store *opset.Store
	cache *lru.Cache[string, identity.ObjId]
}

// NewResolver wraps store with a bounded path-resolution cache of size n.
func NewResolver(store *opset.Store, n int) *Resolver {
	c, _ := lru.New[string, identity.ObjId](n)
	return &Resolver{store: store, cache: c}
}

// Resolve walks p from ROOT and returns the final object addressed by all
// but its last segment, plus the last segment itself, ready for a Get/
// GetIndex call. An empty path resolves to (ROOT, zero Step).
func (r *Resolver) Resolve(p Path) (*opset.Object, Step, error) {
	cur := identity.Root
	obj, err := r.store.Object(cur)
	if err != nil {
		return nil, Step{}, err
	}
	if len(p) == 0 {
		return obj, Step{}, nil
	}
	for _, s := range p[:len(p)-1] {
		next, err := r.stepInto(cur, obj, s)
		if err != nil {
			return nil, Step{}, err
		}
		cur = next
		obj, err = r.store.Object(cur)
		if err != nil {
			return nil, Step{}, err
		}
	}
	return obj, p[len(p)-1], nil
}

func (r *Resolver) stepInto(cur identity.ObjId, obj *opset.Object, s Step) (identity.ObjId, error) {
	id := cur.OpId()
	cacheKey := fmt.Sprintf("%d:%s/%s", id.Counter, id.Actor.String(), pathKey(s))
	if id, ok := r.cache.Get(cacheKey); ok {
		return id, nil
	}
	var res Result
	var found bool
	var err error
	if s.IsKey {
		res, found, err = Get(obj, s.Key)
	} else {
		res, err = GetIndex(obj, s.Index)
		found = err == nil
	}
	if err != nil {
		return identity.ObjId{}, err
	}
	if !found || res.Tag != TagObject {
		return identity.ObjId{}, ErrNotFound
	}
	r.cache.Add(cacheKey, res.Obj)
	return res.Obj, nil
}

func pathKey(s Step) string {
	if s.IsKey {
		return "k:" + s.Key
	}
	return fmt.Sprintf("i:%d", s.Index)
}
