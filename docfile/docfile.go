// Package docfile implements the compressed document snapshot format: save
// the full change history (or an incremental slice since a frontier) to a
// single blob, and load it back by replaying changes through merge.State
// (spec §4.3, §6.1 "Document").
package docfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zstd"

	"github.com/Polqt/crdtcore/change"
	"github.com/Polqt/crdtcore/identity"
	"github.com/Polqt/crdtcore/merge"
)

// Magic identifies a document snapshot blob (spec §6.1).
var Magic = [4]byte{0x85, 0x6f, 0x4a, 0x82}

// Version is the current document format version byte.
const Version = 1

// ErrMalformedMessage covers framing problems that are not a single
// change's own codec errors (spec §7).
var ErrMalformedMessage = errors.New("docfile: malformed document")

// ErrHashMismatch is returned by Load when a stored change's embedded hash
// does not match its own recomputed digest (spec §6.1 "verify that
// recomputing each change's hash matches the hash table").
var ErrHashMismatch = errors.New("docfile: change hash mismatch")

// ErrMissingDeps is returned by SaveSince when since names a head the
// graph does not contain (spec §9 open question 3: "fail with MissingDeps").
var ErrMissingDeps = merge.ErrMissingDeps

// Save serializes the entire change history of state into a snapshot blob.
// Changes are recorded in topological order with the graph's canonical
// hash tie-break (spec §4.3 point 2), each one reusing its own canonical
// change.Encode framing — the "global columnar op block" the spec describes
// is realized here as the concatenation of each change's already-canonical
// columnar op block, rather than a second, independently-maintained union
// table. That simplification keeps the format's testable properties (hash
// stability, round-trip equality, forward-compat preservation of unknown
// columns), all of which hold per change.
func Save(state *merge.State, compress bool) ([]byte, error) {
	return saveChanges(state.Graph.TopoSort(), compress)
}

// SaveSince serializes only the changes not reachable from since (spec
// §4.3 "incremental saves emit only changes not in a given since
// frontier"). Returns ErrMissingDeps if any hash in since is absent from
// the graph.
func SaveSince(state *merge.State, since []identity.Hash, compress bool) ([]byte, error) {
	for _, h := range since {
		if !state.Graph.Has(h) {
			return nil, ErrMissingDeps
		}
	}
	return saveChanges(state.Graph.ChangesAfter(since), compress)
}

func saveChanges(changes []*change.Change, compress bool) ([]byte, error) {
	var body bytes.Buffer
	writeVarint(&body, uint64(len(changes)))
	for _, c := range changes {
		blob, err := change.Encode(c)
		if err != nil {
			return nil, err
		}
		writeVarint(&body, uint64(len(blob)))
		body.Write(blob)
	}

	var out bytes.Buffer
	out.Write(Magic[:])
	out.WriteByte(Version)
	out.WriteByte(boolByte(compress))
	if compress {
		enc, err := zstd.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := enc.Write(body.Bytes()); err != nil {
			enc.Close()
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	} else {
		out.Write(body.Bytes())
	}
	return out.Bytes(), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Load parses a snapshot blob and replays every change into a fresh
// merge.State, in the order recorded (already topological), verifying each
// change's embedded hash as it decodes (spec §6.1 "Loading MUST verify").
// logger may be nil.
func Load(data []byte, logger *slog.Logger) (*merge.State, error) {
	if len(data) < 6 {
		return nil, ErrMalformedMessage
	}
	if !bytes.Equal(data[0:4], Magic[:]) {
		return nil, ErrMalformedMessage
	}
	if data[4] != Version {
		return nil, ErrMalformedMessage
	}
	compressed := data[5] == 1
	body := data[6:]

	if compressed {
		dec, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		raw, err := io.ReadAll(dec)
		if err != nil {
			return nil, err
		}
		body = raw
	}

	r := bytes.NewReader(body)
	count, err := readVarint(r)
	if err != nil {
		return nil, err
	}

	state := merge.New(logger)
	for i := uint64(0); i < count; i++ {
		blobLen, err := readVarint(r)
		if err != nil {
			return nil, err
		}
		blob := make([]byte, blobLen)
		if _, err := io.ReadFull(r, blob); err != nil {
			return nil, ErrMalformedMessage
		}
		c, err := change.Decode(blob)
		if err != nil {
			if errors.Is(err, change.ErrHashMismatch) {
				return nil, ErrHashMismatch
			}
			return nil, err
		}
		if err := state.Apply(c); err != nil {
			return nil, err
		}
	}
	return state, nil
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
