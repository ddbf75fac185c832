package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Polqt/crdtcore/crdt"
)

var (
	saveSinceFlag    string
	saveCompressFlag bool
)

var saveCmd = &cobra.Command{
	Use:   "save <path> <out>",
	Short: "Re-save a document, optionally only the changes since given heads",
	Args:  cobra.ExactArgs(2),
	RunE:  runSave,
}

func init() {
	saveCmd.Flags().StringVar(&saveSinceFlag, "since", "", "comma-separated hex heads; omit changes reachable from them")
	saveCmd.Flags().BoolVar(&saveCompressFlag, "compress", false, "apply zstd framing to the output")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	doc, err := loadDoc(args[0])
	if err != nil {
		return err
	}

	heads, err := parseHeads(saveSinceFlag)
	if err != nil {
		return err
	}

	var blob []byte
	if heads == nil {
		blob, err = crdt.Save(doc, saveCompressFlag)
	} else {
		blob, err = crdt.SaveSince(doc, heads, saveCompressFlag)
	}
	if err != nil {
		return fmt.Errorf("saving: %w", err)
	}

	if err := writeBlob(args[1], blob); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(blob), args[1])
	return nil
}
