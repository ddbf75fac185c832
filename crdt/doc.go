// Package crdt is the document-handle façade over opset/merge/graph/
// sequence/value/diffpatch/docfile/syncproto: the public surface listed in
// spec §6.2 (lifecycle, read, transactional write, history, sync), all
// single-threaded per handle (spec §5).
package crdt

import (
	"errors"
	"log/slog"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/docfile"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
	"github.com/Polqt/crdtcore/value"
)

// Error kinds named in spec §7, surfaced at the document-handle layer.
var (
	ErrNestedTransaction  = errors.New("crdt: a transaction is already open on this document")
	ErrNoTransaction      = errors.New("crdt: no transaction is open on this document")
	ErrReadOnly           = errors.New("crdt: document is read-only (opened via View)")
	ErrCursorUnresolvable = errors.New("crdt: cursor input is syntactically invalid")
)

// Document is one collaborative-editing handle: a merge state plus the
// actor identity that stamps its locally-authored changes. It is not safe
// for concurrent use from multiple goroutines (spec §5); the syncserver
// package supplies that layer when a host needs it.
type Document struct {
	state    *merge.State
	actor    identity.Actor
	resolver *value.Resolver
	logger   *slog.Logger
	readOnly bool
	tx       *Transaction
}

// resolverCacheSize bounds the Document's path-resolution LRU (spec's
// domain-stack wiring of hashicorp/golang-lru over the value layer's
// read path).
const resolverCacheSize = 1024

// New creates an empty document with a fresh random actor id (spec §6.2
// "create"). logger may be nil.
func New(logger *slog.Logger) *Document {
	return NewWithActor(identity.NewRandomActor(), logger)
}

// NewWithActor creates an empty document stamped by an explicit actor id.
func NewWithActor(actor identity.Actor, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	state := merge.New(logger)
	return &Document{
		state:    state,
		actor:    actor,
		resolver: value.NewResolver(state.Store, resolverCacheSize),
		logger:   logger,
	}
}

// Load reconstructs a document from a snapshot produced by Save/SaveSince
// (spec §6.2 "load(bytes) -> Doc"). The loaded document is assigned a
// fresh random actor, mirroring create()'s default — a snapshot carries no
// opinion about which actor should author the next local change.
func Load(data []byte, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	state, err := docfile.Load(data, logger)
	if err != nil {
		return nil, err
	}
	return &Document{
		state:    state,
		actor:    identity.NewRandomActor(),
		resolver: value.NewResolver(state.Store, resolverCacheSize),
		logger:   logger,
	}, nil
}

// Clone duplicates doc's full change history into an independent handle
// (spec §6.2 "clone(doc) -> Doc"), via the same save/replay path Load
// uses rather than a second hand-rolled deep-copy of the opset/graph —
// one history-reconstruction code path instead of two. The clone gets a
// fresh random actor: two live handles sharing one actor id would violate
// the per-actor contiguous-seq invariant (spec §3.3) the moment both
// start a transaction.
func Clone(doc *Document) (*Document, error) {
	blob, err := docfile.Save(doc.state, false)
	if err != nil {
		return nil, err
	}
	return Load(blob, doc.logger)
}

// View returns a read-only handle frozen at heads (spec §6.2 "view(doc,
// heads) -> Doc"). Rather than maintaining a second "live store + view
// mask" representation, the view is materialized by replaying only the
// changes reachable from heads through a fresh merge.State — the same
// mechanism docfile.Load already uses to reconstruct a document from
// scratch.
func View(doc *Document, heads []identity.Hash) (*Document, error) {
	if !headsKnown(doc, heads) {
		return nil, merge.ErrMissingDeps
	}
	reachable := doc.state.Graph.Reachable(heads)
	state := merge.New(doc.logger)
	for _, c := range doc.state.Graph.TopoSort() {
		if _, ok := reachable[c.Hash]; ok {
			if err := state.Apply(c); err != nil {
				return nil, err
			}
		}
	}
	return &Document{
		state:    state,
		actor:    doc.actor,
		resolver: value.NewResolver(state.Store, resolverCacheSize),
		logger:   doc.logger,
		readOnly: true,
	}, nil
}

// headsKnown reports whether every hash in heads is present in doc's
// change graph, the precondition View checks (docfile.SaveSince, behind
// SaveSince, makes the same check itself).
func headsKnown(doc *Document, heads []identity.Hash) bool {
	for _, h := range heads {
		if !doc.state.Graph.Has(h) {
			return false
		}
	}
	return true
}

// Save serializes doc's entire change history (spec §6.2 "save(doc) ->
// bytes"). compress selects optional zstd framing (spec §4.3).
func Save(doc *Document, compress bool) ([]byte, error) {
	return docfile.Save(doc.state, compress)
}

// SaveSince serializes only the changes not reachable from heads (spec
// §6.2 "save_since(doc, heads) -> bytes"). Returns merge.ErrMissingDeps if
// heads names a hash doc's graph does not contain (spec §9 resolved open
// question 3).
func SaveSince(doc *Document, heads []identity.Hash, compress bool) ([]byte, error) {
	return docfile.SaveSince(doc.state, heads, compress)
}

// Free is a deliberate no-op: Go has no manual memory management, so the
// explicit free(doc) spec §6.2 lists for a host with manual lifetimes has
// nothing to do here beyond letting the garbage collector reclaim doc once
// it is no longer referenced. Kept as a function so callers translating
// from the spec's operation list have somewhere to put the call.
func Free(doc *Document) {}

// Actor returns the actor id that stamps doc's next locally-authored
// change.
func (d *Document) Actor() identity.Actor { return d.actor }

// Heads returns doc's current change-graph frontier (spec §6.2 "heads").
func (d *Document) Heads() []identity.Hash { return d.state.Graph.Heads() }

// Root is the ObjId of the document's implicit root map.
func (d *Document) Root() identity.ObjId { return identity.Root }

// ApplyChange installs a single externally-received change, buffering it
// if its deps are not yet present (spec §4.7, §7). It is ApplyChanges with
// a one-element batch.
func (d *Document) ApplyChange(c *change.Change) error {
	return d.ApplyChanges([]*change.Change{c})
}
