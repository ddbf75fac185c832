package syncproto

import "github.com/Polqt/crdtcore/identity"

// Have is one entry in a sync message: a Bloom filter of hashes the sender
// believes it holds strictly after LastSync in its local graph (spec §4.7,
// glossary "Have").
type Have struct {
	LastSync []identity.Hash
	Filter   []byte // a marshaled bloomfilter.Filter
}

// Message is one sync exchange envelope (spec §4.7, §6.1 "Sync message").
type Message struct {
	Heads   []identity.Hash
	Needs   []identity.Hash
	Haves   []Have
	Changes [][]byte // canonical change.Encode blobs, already topo-ordered
}
