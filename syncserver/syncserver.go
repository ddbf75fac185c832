// Package syncserver is a concurrency-safe host adapter over a single
// crdt.Document: a registry of documents, each shared by many peer
// goroutines driving the sync protocol (spec §4.7, §6.2 "Sync"). The core
// packages stay single-threaded per spec §5; this package is the one place
// that reintroduces locking, grounded directly on the teacher's
// session.Hub/session.Document pattern (_teacher_src's 03-crdt-collab-
// backend/session/session.go) rather than inventing a new concurrency
// story.
package syncserver

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Polqt/crdtcore/crdt"
	"github.com/Polqt/crdtcore/syncproto"
)

// ErrUnknownDocument is returned when a Hub method names a doc id that was
// never registered via Hub.Put or GetOrCreate.
var ErrUnknownDocument = errors.New("syncserver: unknown document")

// ErrUnknownPeer is returned when a Doc method names a peer id that was
// never registered via Doc.Peer.
var ErrUnknownPeer = errors.New("syncserver: unknown peer")

// Doc wraps one crdt.Document with the mutex and per-peer SyncState
// bookkeeping a multi-goroutine host needs (teacher: session.Document's
// mu sync.RWMutex guarding rga + sessions).
type Doc struct {
	mu     sync.RWMutex
	id     string
	doc    *crdt.Document
	peers  map[string]*syncproto.SyncState
	logger *slog.Logger
}

// NewDoc wraps an existing document under id for shared access.
func NewDoc(id string, doc *crdt.Document, logger *slog.Logger) *Doc {
	if logger == nil {
		logger = slog.Default()
	}
	return &Doc{id: id, doc: doc, peers: make(map[string]*syncproto.SyncState), logger: logger}
}

// ID returns the document's registry key.
func (d *Doc) ID() string { return d.id }

// Document exposes the wrapped handle for read/write access outside a
// sync round trip. Callers must not retain it across goroutine boundaries
// without their own synchronization — use the Doc's With helpers instead
// when concurrent access is possible.
func (d *Doc) Document() *crdt.Document { return d.doc }

// Lock and Unlock expose Doc's mutex directly to a caller that needs to
// run a transaction (crdt.Begin/Commit) exclusively against the wrapped
// document — mirroring how session.Document.Apply takes d.mu for the
// duration of a single RGA mutation.
func (d *Doc) Lock()    { d.mu.Lock() }
func (d *Doc) Unlock()  { d.mu.Unlock() }
func (d *Doc) RLock()   { d.mu.RLock() }
func (d *Doc) RUnlock() { d.mu.RUnlock() }

// Peer returns peerID's SyncState, creating fresh bookkeeping on first
// contact (spec §6.2 "sync_state_new" per remote).
func (d *Doc) Peer(peerID string) *syncproto.SyncState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.peers[peerID]
	if !ok {
		s = syncproto.NewState()
		d.peers[peerID] = s
	}
	return s
}

// DropPeer forgets a disconnected peer's sync bookkeeping.
func (d *Doc) DropPeer(peerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.peers, peerID)
}

// Generate computes the next outgoing sync message to peerID, taking a
// read lock on the document for the duration (Generate only reads the
// local graph; SyncState mutation is peer-local bookkeeping).
func (d *Doc) Generate(peerID string) (*syncproto.Message, bool, error) {
	state := d.Peer(peerID)
	d.mu.RLock()
	defer d.mu.RUnlock()
	msg, ok, err := crdt.GenerateSyncMessage(d.doc, state)
	if err != nil {
		d.logger.Warn("sync generate failed", "doc", d.id, "peer", peerID, "err", err)
	}
	return msg, ok, err
}

// Receive applies an incoming sync message from peerID under a write
// lock, since Receive may install new changes into the document.
func (d *Doc) Receive(peerID string, msg *syncproto.Message) error {
	state := d.Peer(peerID)
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := crdt.ReceiveSyncMessage(d.doc, state, msg); err != nil {
		d.logger.Warn("sync receive failed", "doc", d.id, "peer", peerID, "err", err)
		return err
	}
	return nil
}

// HasOurChanges reports whether peerID is believed to already have every
// change this document has.
func (d *Doc) HasOurChanges(peerID string) bool {
	state := d.Peer(peerID)
	d.mu.RLock()
	defer d.mu.RUnlock()
	return crdt.HasOurChanges(d.doc, state)
}

// Hub is the registry of all live documents a sync-capable host is
// serving (teacher: session.Hub's docs map[string]*Document).
type Hub struct {
	mu   sync.RWMutex
	docs map[string]*Doc
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{docs: make(map[string]*Doc)}
}

// GetOrCreate returns the Doc registered under id, creating an empty
// crdt.Document for it if this is the first request (teacher:
// Hub.GetOrCreate).
func (h *Hub) GetOrCreate(id string, logger *slog.Logger) *Doc {
	h.mu.Lock()
	defer h.mu.Unlock()
	if d, ok := h.docs[id]; ok {
		return d
	}
	d := NewDoc(id, crdt.New(logger), logger)
	h.docs[id] = d
	return d
}

// Put registers an already-constructed Doc (e.g. one loaded from a
// snapshot via crdt.Load), overwriting any existing entry under the same
// id.
func (h *Hub) Put(d *Doc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.docs[d.id] = d
}

// Get returns the Doc registered under id, or ErrUnknownDocument.
func (h *Hub) Get(id string) (*Doc, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.docs[id]
	if !ok {
		return nil, ErrUnknownDocument
	}
	return d, nil
}

// Drop removes a document from the registry entirely.
func (h *Hub) Drop(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.docs, id)
}

// NewPeerID mints a fresh random UUID string as the peer identifier for a
// newly-connected remote.
func NewPeerID() string {
	return uuid.NewString()
}
