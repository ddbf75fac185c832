package syncproto

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/Polqt/crdtcore/identity"
)

// MessageTag identifies a sync message blob (spec §6.1 "0x42 tag").
const MessageTag = 0x42

// Version is the current sync wire-format version byte, shared by both the
// Message and SyncState encodings.
const Version = 1

// ErrMalformedMessage covers framing problems in a sync message or state
// blob (spec §7 "MalformedMessage").
var ErrMalformedMessage = errors.New("syncproto: malformed message")

// EncodeMessage serializes msg per spec §6.1: tag, version, heads, needs,
// haves, changes, all varint-counted.
func EncodeMessage(msg *Message) []byte {
	var buf bytes.Buffer
	buf.WriteByte(MessageTag)
	buf.WriteByte(Version)
	writeHashes(&buf, msg.Heads)
	writeHashes(&buf, msg.Needs)

	writeVarint(&buf, uint64(len(msg.Haves)))
	for _, h := range msg.Haves {
		writeHashes(&buf, h.LastSync)
		writeVarint(&buf, uint64(len(h.Filter)))
		buf.Write(h.Filter)
	}

	writeVarint(&buf, uint64(len(msg.Changes)))
	for _, blob := range msg.Changes {
		writeVarint(&buf, uint64(len(blob)))
		buf.Write(blob)
	}
	return buf.Bytes()
}

// DecodeMessage parses a blob produced by EncodeMessage.
func DecodeMessage(data []byte) (*Message, error) {
	if len(data) < 2 || data[0] != MessageTag || data[1] != Version {
		return nil, ErrMalformedMessage
	}
	r := bytes.NewReader(data[2:])

	heads, err := readHashes(r)
	if err != nil {
		return nil, err
	}
	needs, err := readHashes(r)
	if err != nil {
		return nil, err
	}

	haveCount, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	haves := make([]Have, 0, haveCount)
	for i := uint64(0); i < haveCount; i++ {
		lastSync, err := readHashes(r)
		if err != nil {
			return nil, err
		}
		flen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		filter := make([]byte, flen)
		if _, err := io.ReadFull(r, filter); err != nil {
			return nil, ErrMalformedMessage
		}
		haves = append(haves, Have{LastSync: lastSync, Filter: filter})
	}

	changeCount, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	changes := make([][]byte, 0, changeCount)
	for i := uint64(0); i < changeCount; i++ {
		blen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		blob := make([]byte, blen)
		if _, err := io.ReadFull(r, blob); err != nil {
			return nil, ErrMalformedMessage
		}
		changes = append(changes, blob)
	}

	return &Message{Heads: heads, Needs: needs, Haves: haves, Changes: changes}, nil
}

// EncodeState serializes a SyncState's durable fields (spec §6.1 "Sync
// state"). TheirNeed is included alongside the four named fields so a
// persisted-and-reloaded state doesn't forget outstanding requests (see
// DESIGN.md); theirBloom and InFlight are session-transient and not saved.
func EncodeState(s *SyncState) []byte {
	var buf bytes.Buffer
	buf.WriteByte(Version)
	writeHashes(&buf, s.SharedHeads)
	writeHashes(&buf, s.LastSentHeads)
	writeHashes(&buf, s.TheirHeads)
	writeHashes(&buf, s.TheirNeed)

	sent := make([]identity.Hash, 0, len(s.SentHashes))
	for h := range s.SentHashes {
		sent = append(sent, h)
	}
	writeHashes(&buf, identity.SortHashes(sent))
	return buf.Bytes()
}

// DecodeState parses a blob produced by EncodeState.
func DecodeState(data []byte) (*SyncState, error) {
	if len(data) < 1 || data[0] != Version {
		return nil, ErrMalformedMessage
	}
	r := bytes.NewReader(data[1:])

	shared, err := readHashes(r)
	if err != nil {
		return nil, err
	}
	lastSent, err := readHashes(r)
	if err != nil {
		return nil, err
	}
	theirHeads, err := readHashes(r)
	if err != nil {
		return nil, err
	}
	theirNeed, err := readHashes(r)
	if err != nil {
		return nil, err
	}
	sent, err := readHashes(r)
	if err != nil {
		return nil, err
	}

	sentSet := make(map[identity.Hash]struct{}, len(sent))
	for _, h := range sent {
		sentSet[h] = struct{}{}
	}

	return &SyncState{
		SharedHeads:   shared,
		LastSentHeads: lastSent,
		TheirHeads:    theirHeads,
		TheirNeed:     theirNeed,
		SentHashes:    sentSet,
	}, nil
}

func writeHashes(buf *bytes.Buffer, hs []identity.Hash) {
	writeVarint(buf, uint64(len(hs)))
	for _, h := range hs {
		buf.Write(h[:])
	}
}

func readHashes(r *bytes.Reader) ([]identity.Hash, error) {
	n, err := readVarint(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]identity.Hash, n)
	for i := range out {
		if _, err := io.ReadFull(r, out[i][:]); err != nil {
			return nil, ErrMalformedMessage
		}
	}
	return out, nil
}

func writeVarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

func readVarint(r *bytes.Reader) (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, ErrMalformedMessage
	}
	return v, nil
}
