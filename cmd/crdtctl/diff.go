package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Polqt/crdtcore/diffpatch"
)

var (
	diffBeforeFlag string
	diffAfterFlag  string
)

var diffCmd = &cobra.Command{
	Use:   "diff <path>",
	Short: "Print the patches turning one set of heads into another",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().StringVar(&diffBeforeFlag, "before", "", "comma-separated hex heads (empty document if omitted)")
	diffCmd.Flags().StringVar(&diffAfterFlag, "after", "", "comma-separated hex heads (defaults to the document's current heads)")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	doc, err := loadDoc(args[0])
	if err != nil {
		return err
	}

	before, err := parseHeads(diffBeforeFlag)
	if err != nil {
		return err
	}
	after, err := parseHeads(diffAfterFlag)
	if err != nil {
		return err
	}
	if diffAfterFlag == "" {
		after = doc.Heads()
	}

	patches, ok := doc.Diff(before, after)
	if !ok {
		return fmt.Errorf("one of --before/--after names heads not present in %s", args[0])
	}

	out := cmd.OutOrStdout()
	for _, p := range patches {
		fmt.Fprintf(out, "%s %s\n", patchKindName(p.Kind), formatPath(p.Path))
	}
	fmt.Fprintf(out, "%d patch(es)\n", len(patches))
	return nil
}

func patchKindName(k diffpatch.PatchKind) string {
	switch k {
	case diffpatch.PatchPut:
		return "put"
	case diffpatch.PatchInsert:
		return "insert"
	case diffpatch.PatchDel:
		return "del"
	case diffpatch.PatchSpliceText:
		return "splice-text"
	case diffpatch.PatchInc:
		return "inc"
	case diffpatch.PatchMark:
		return "mark"
	case diffpatch.PatchUnmark:
		return "unmark"
	case diffpatch.PatchConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

func formatPath(p diffpatch.Path) string {
	var b strings.Builder
	b.WriteString("ROOT")
	for _, step := range p {
		if step.IsKey {
			b.WriteString(".")
			b.WriteString(step.Key)
		} else {
			fmt.Fprintf(&b, "[%d]", step.Index)
		}
	}
	return b.String()
}
