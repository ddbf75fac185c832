package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// runCLI executes rootCmd with args and returns its combined stdout/stderr.
func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	require.NoError(t, err)
	return buf.String()
}

func TestInitThenLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.bin")

	runCLI(t, "init", path)
	out := runCLI(t, "load", path)

	require.Contains(t, out, "actor:")
	require.Contains(t, out, "root keys (0)")
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.bin")
	out := filepath.Join(dir, "copy.bin")

	runCLI(t, "init", path)
	runCLI(t, "save", path, out, "--compress")
	_ = runCLI(t, "load", out)
}

func TestChangesListsNothingForEmptyDoc(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.bin")

	runCLI(t, "init", path)
	out := runCLI(t, "changes", path)

	require.Contains(t, out, "0 change(s)")
}

func TestDiffAgainstSelfIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.bin")

	runCLI(t, "init", path)
	out := runCLI(t, "diff", path)

	require.Contains(t, out, "0 patch(es)")
}

func TestParseHeadsRejectsMalformedHex(t *testing.T) {
	_, err := parseHeads("not-hex")
	require.Error(t, err)
}

func TestParseHeadsEmptyIsNil(t *testing.T) {
	heads, err := parseHeads("  ")
	require.NoError(t, err)
	require.Nil(t, heads)
}

func TestFormatHeadsJoinsHex(t *testing.T) {
	heads, err := parseHeads(strings.Repeat("0", 64) + "," + strings.Repeat("1", 64))
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("0", 64)+","+strings.Repeat("1", 64), formatHeads(heads))
}
