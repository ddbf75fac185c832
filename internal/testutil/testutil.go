// Package testutil holds small fixtures shared by this module's _test.go
// files — just the single-byte actor-id constructor every package's test
// suite needed its own copy of before this existed.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Polqt/crdtcore/identity"
)

// Actor builds a deterministic, single-byte actor id for tests that need
// stable, comparable actor identities rather than NewRandomActor's output.
func Actor(t *testing.T, b byte) identity.Actor {
	t.Helper()
	a, err := identity.NewActor([]byte{b})
	require.NoError(t, err)
	return a
}
