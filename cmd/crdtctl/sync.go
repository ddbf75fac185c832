package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Polqt/crdtcore/crdt"
	"github.com/Polqt/crdtcore/syncproto"
)

var syncGenerateCmd = &cobra.Command{
	Use:   "sync-generate <doc> <state> <out-msg>",
	Short: "Compute the next outgoing sync message for a peer",
	Long: `sync-generate loads a document and its per-peer sync bookkeeping
(creating fresh bookkeeping if <state> doesn't exist yet), computes the next
message to send that peer, writes the encoded message to <out-msg>, and
rewrites <state> with the updated bookkeeping.`,
	Args: cobra.ExactArgs(3),
	RunE: runSyncGenerate,
}

var syncReceiveCmd = &cobra.Command{
	Use:   "sync-receive <doc> <state> <msg>",
	Short: "Apply an incoming sync message from a peer",
	Long: `sync-receive loads a document and its per-peer sync bookkeeping,
applies the message at <msg> (installing any changes not already present,
buffering those whose deps are still missing), then rewrites both <doc> and
<state> with the result.`,
	Args: cobra.ExactArgs(3),
	RunE: runSyncReceive,
}

func init() {
	rootCmd.AddCommand(syncGenerateCmd)
	rootCmd.AddCommand(syncReceiveCmd)
}

func loadOrNewSyncState(path string) (*syncproto.SyncState, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return syncproto.NewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return syncproto.DecodeState(data)
}

func runSyncGenerate(cmd *cobra.Command, args []string) error {
	docPath, statePath, outPath := args[0], args[1], args[2]

	doc, err := loadDoc(docPath)
	if err != nil {
		return err
	}
	state, err := loadOrNewSyncState(statePath)
	if err != nil {
		return fmt.Errorf("loading sync state: %w", err)
	}

	msg, ok, err := crdt.GenerateSyncMessage(doc, state)
	if err != nil {
		return fmt.Errorf("generating sync message: %w", err)
	}
	if err := writeBlob(statePath, crdt.SyncStateEncode(state)); err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing new to send")
		return nil
	}
	if err := writeBlob(outPath, syncproto.EncodeMessage(msg)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote sync message with %d change(s) to %s\n", len(msg.Changes), outPath)
	return nil
}

func runSyncReceive(cmd *cobra.Command, args []string) error {
	docPath, statePath, msgPath := args[0], args[1], args[2]

	doc, err := loadDoc(docPath)
	if err != nil {
		return err
	}
	state, err := loadOrNewSyncState(statePath)
	if err != nil {
		return fmt.Errorf("loading sync state: %w", err)
	}
	msgBytes, err := os.ReadFile(msgPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", msgPath, err)
	}
	msg, err := syncproto.DecodeMessage(msgBytes)
	if err != nil {
		return fmt.Errorf("decoding sync message: %w", err)
	}

	if err := crdt.ReceiveSyncMessage(doc, state, msg); err != nil {
		return fmt.Errorf("receiving sync message: %w", err)
	}

	blob, err := crdt.Save(doc, false)
	if err != nil {
		return fmt.Errorf("saving updated document: %w", err)
	}
	if err := writeBlob(docPath, blob); err != nil {
		return err
	}
	if err := writeBlob(statePath, crdt.SyncStateEncode(state)); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d change(s); heads now %s\n", len(msg.Changes), formatHeads(doc.Heads()))
	return nil
}
