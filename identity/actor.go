// Package identity implements the actor, op, and hash identities that
// every other package in crdtcore builds on: Actor, OpId, ObjId, and Hash.
package identity

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
)

// ErrActorTooLong is returned when an actor identifier exceeds the 32-byte
// limit fixed by the data model (spec §3.1).
var ErrActorTooLong = errors.New("identity: actor id exceeds 32 bytes")

// ErrActorEmpty is returned for a zero-length actor id.
var ErrActorEmpty = errors.New("identity: actor id is empty")

// Actor is an opaque 1-32 byte writer identity.
type Actor struct {
	b [32]byte
	n int
}

// NewActor validates and wraps raw bytes as an Actor.
func NewActor(b []byte) (Actor, error) {
	var a Actor
	if len(b) == 0 {
		return a, ErrActorEmpty
	}
	if len(b) > 32 {
		return a, ErrActorTooLong
	}
	copy(a.b[:], b)
	a.n = len(b)
	return a, nil
}

// NewRandomActor generates a fresh 16-byte actor id from a random UUID.
// This is the default used when a document is created without an explicit
// actor (§6.2 create).
func NewRandomActor() Actor {
	id := uuid.New()
	a, _ := NewActor(id[:])
	return a
}

// Bytes returns the actor's raw identifier.
func (a Actor) Bytes() []byte {
	return append([]byte(nil), a.b[:a.n]...)
}

// String renders the actor as lowercase hex, the conventional debug form.
func (a Actor) String() string {
	return hex.EncodeToString(a.b[:a.n])
}

// Compare implements the actor total order used to break OpId ties:
// lexicographic on the raw bytes.
func (a Actor) Compare(other Actor) int {
	return bytes.Compare(a.b[:a.n], other.b[:other.n])
}

// IsZero reports whether a is the unset actor value.
func (a Actor) IsZero() bool {
	return a.n == 0
}

// ActorFromHex parses a hex-encoded actor id, as produced by String.
func ActorFromHex(s string) (Actor, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Actor{}, err
	}
	return NewActor(b)
}
