package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// newExportCmd writes the family tree as a version-1 interchange document.
func newExportCmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export the family tree to a JSON document",
		Long: `Write the current family tree as a portable JSON document. The
document can be re-imported on any machine with "kintree import". With
no argument, or with "-", the document goes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			ed, _, err := openEditor(ctx, *dataDir, logger)
			if err != nil {
				return err
			}
			data, err := ed.ExportGraph()
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			out, err := openOutput(path)
			if err != nil {
				return err
			}
			defer out.Close()
			if _, err := out.Write(data); err != nil {
				return err
			}

			if path != "-" {
				printSuccess("exported %d people", ed.Graph().Count())
				printFile(path)
			}
			return nil
		},
	}
	return cmd
}

// newImportCmd replaces the family tree with a previously exported document.
func newImportCmd(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a family tree from a JSON document",
		Long: `Replace the current family tree with the contents of a JSON
document produced by "kintree export". The previous tree is snapshotted
before it is overwritten.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			ed, _, err := openEditor(ctx, *dataDir, logger)
			if err != nil {
				return err
			}
			if err := ed.ImportGraph(data); err != nil {
				printError("import failed: %v", err)
				return err
			}
			ed.Flush()

			printSuccess("imported %d people", ed.Graph().Count())
			printNextStep("browse the tree", "kintree tui")
			return nil
		},
	}
	return cmd
}
