package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/Polqt/crdtcore/crdt"
	"github.com/Polqt/crdtcore/identity"
)

func loadDoc(path string) (*crdt.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := crdt.Load(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return doc, nil
}

func writeBlob(path string, blob []byte) error {
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// parseHeads splits a comma-separated list of hex-encoded hashes, as
// produced by identity.Hash.String, returning nil for an empty string.
func parseHeads(csv string) ([]identity.Hash, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	heads := make([]identity.Hash, len(parts))
	for i, p := range parts {
		h, err := identity.HashFromHex(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("parsing head %q: %w", p, err)
		}
		heads[i] = h
	}
	return heads, nil
}

func formatHeads(heads []identity.Hash) string {
	if len(heads) == 0 {
		return "(none)"
	}
	parts := make([]string, len(heads))
	for i, h := range heads {
		parts[i] = h.String()
	}
	return strings.Join(parts, ",")
}
