package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Polqt/crdtcore/crdt"
)

var initCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Create an empty document snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	doc := crdt.New(nil)
	blob, err := crdt.Save(doc, false)
	if err != nil {
		return fmt.Errorf("saving empty document: %w", err)
	}
	if err := writeBlob(args[0], blob); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created empty document at %s (actor %s)\n", args[0], doc.Actor())
	return nil
}
