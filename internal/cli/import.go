package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgienger/eisen/internal/transfer"
)

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import projects and tasks from a JSON export",
		Long: `Import reads a file written by export and stores every record in it.
Records whose id already exists are overwritten. The file is validated
before anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	doc, err := transfer.Decode(f)
	if err != nil {
		return err
	}

	sess, err := openSession(cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.Import(doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects and %d tasks\n", len(doc.Projects), len(doc.Tasks))
	return nil
}
