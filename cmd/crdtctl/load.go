package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load <path>",
	Short: "Print a summary of a document snapshot",
	Args:  cobra.ExactArgs(1),
	RunE:  runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	doc, err := loadDoc(args[0])
	if err != nil {
		return err
	}
	keys, err := doc.Keys(doc.Root())
	if err != nil {
		return fmt.Errorf("listing root keys: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "actor:  %s\n", doc.Actor())
	fmt.Fprintf(out, "heads:  %s\n", formatHeads(doc.Heads()))
	fmt.Fprintf(out, "root keys (%d): %v\n", len(keys), keys)
	return nil
}
