// Command crdtctl is a small operator CLI over the crdt package's public
// API (spec's "typed proxy layer... external collaborator" note explicitly
// leaves higher-level consumers out of core scope; this binary is the one
// allowed consumer, grounded on the go-mizu-mizu kanban blueprint's
// cobra layout: one root.go plus one file per subcommand, each
// registering itself via init()).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crdtctl",
	Short: "Inspect and exchange crdtcore document snapshots",
	Long: `crdtctl operates on crdtcore document snapshot files (the byte
format produced by Save/SaveSince) without running a server:

  crdtctl init doc.bin                 Create an empty document
  crdtctl load doc.bin                 Print a summary of a snapshot
  crdtctl save doc.bin out.bin         Re-save (optionally since heads)
  crdtctl changes doc.bin              List changes in the graph
  crdtctl sync-generate ...            Compute a sync message for a peer
  crdtctl sync-receive ...             Apply an incoming sync message
  crdtctl diff doc.bin --before --after  Print patches between two heads`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
