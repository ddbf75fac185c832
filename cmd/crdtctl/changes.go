package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Polqt/crdtcore/change"
)

var changesSinceFlag string

var changesCmd = &cobra.Command{
	Use:   "changes <path>",
	Short: "List the changes in a document's graph, in topological order",
	Args:  cobra.ExactArgs(1),
	RunE:  runChanges,
}

func init() {
	changesCmd.Flags().StringVar(&changesSinceFlag, "since", "", "comma-separated hex heads; only list changes not reachable from them")
	rootCmd.AddCommand(changesCmd)
}

func runChanges(cmd *cobra.Command, args []string) error {
	doc, err := loadDoc(args[0])
	if err != nil {
		return err
	}

	heads, err := parseHeads(changesSinceFlag)
	if err != nil {
		return err
	}

	var list []*change.Change
	if heads == nil {
		list = doc.Changes()
	} else {
		list = doc.ChangesSince(heads)
	}

	out := cmd.OutOrStdout()
	for _, c := range list {
		fmt.Fprintf(out, "%s actor=%s seq=%d startOp=%d ops=%d deps=%s time=%s\n",
			c.Hash, c.Actor, c.Seq, c.StartOp, len(c.Ops), formatHeads(c.Deps),
			time.UnixMilli(c.Time).UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(out, "%d change(s)\n", len(list))
	return nil
}
