package crdt

import "github.com/Polqt/crdtcore/syncproto"

// SyncStateNew creates fresh per-peer sync bookkeeping (spec §6.2
// "sync_state_new").
func SyncStateNew() *syncproto.SyncState {
	return syncproto.NewState()
}

// SyncStateEncode serializes a SyncState for persistence (spec §6.2
// "sync_state_encode").
func SyncStateEncode(s *syncproto.SyncState) []byte {
	return syncproto.EncodeState(s)
}

// SyncStateDecode parses a blob produced by SyncStateEncode (spec §6.2
// "sync_state_decode").
func SyncStateDecode(data []byte) (*syncproto.SyncState, error) {
	return syncproto.DecodeState(data)
}

// GenerateSyncMessage computes doc's next outgoing sync message against
// sync, or (nil, false) if there is nothing new to say (spec §6.2
// "generate_sync_message").
func GenerateSyncMessage(doc *Document, sync *syncproto.SyncState) (*syncproto.Message, bool, error) {
	return syncproto.Generate(doc.state, sync)
}

// ReceiveSyncMessage applies an incoming sync message to doc, installing
// any changes doc doesn't yet have and updating sync's bookkeeping (spec
// §6.2 "receive_sync_message").
func ReceiveSyncMessage(doc *Document, sync *syncproto.SyncState, msg *syncproto.Message) error {
	return syncproto.Receive(doc.state, sync, msg)
}

// HasOurChanges reports whether the peer named by sync's shared-heads
// frontier already has every change doc has (spec §6.2 "has_our_changes").
func HasOurChanges(doc *Document, sync *syncproto.SyncState) bool {
	return syncproto.HasOurChanges(doc.state, sync)
}
