package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tgienger/eisen/internal/transfer"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export projects and tasks to a JSON file",
		Long: `Export writes the projects and the tasks of the last opened project, the
same set the matrix shows. Use --all for every project and task, archived
ones included.

The file defaults to eisen-export-YYYY-MM-DD.json; "-" writes to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runExport,
	}
	cmd.Flags().Bool("all", false, "Export every project and task, archived ones included")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")

	sess, err := openSession(cmd.ErrOrStderr(), nil)
	if err != nil {
		return err
	}
	defer sess.Close()

	path := transfer.FileName(time.Now())
	if len(args) == 1 {
		path = args[0]
	}

	var w io.Writer = cmd.OutOrStdout()
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if all {
		err = exportAll(sess, w)
	} else {
		err = exportVisible(sess, w)
	}
	if err != nil {
		return err
	}

	if path != "-" {
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
	}
	return nil
}

func exportVisible(sess *session, w io.Writer) error {
	if err := sess.store.LoadProjects(); err != nil {
		return err
	}
	return sess.store.Export(w)
}

func exportAll(sess *session, w io.Writer) error {
	projects, err := sess.db.GetAllProjects()
	if err != nil {
		return err
	}
	archived, err := sess.db.GetArchivedProjects()
	if err != nil {
		return err
	}
	tasks, err := sess.db.AllTasks()
	if err != nil {
		return err
	}
	return transfer.Export(w, append(projects, archived...), tasks, time.Now())
}
