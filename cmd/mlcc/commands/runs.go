package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect saved configuration runs",
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsClearCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list [project-dir]",
		Short: "List saved runs for a project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			app, err := newAppContext()
			if err != nil {
				return err
			}

			store := openRunStore(cmd, app)
			if store == nil {
				return fmt.Errorf("run history database is not available")
			}
			defer store.Close()

			records, err := store.ListRuns(cmd.Context(), absDir, limit, 0)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintf(out, "no saved runs for %s\n", absDir)
				return nil
			}
			for _, r := range records {
				fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Parameters)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list")
	return cmd
}

func newRunsClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear [project-dir]",
		Short: "Delete saved runs for a project directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			absDir, err := filepath.Abs(dir)
			if err != nil {
				return err
			}

			app, err := newAppContext()
			if err != nil {
				return err
			}

			store := openRunStore(cmd, app)
			if store == nil {
				return fmt.Errorf("run history database is not available")
			}
			defer store.Close()

			deleted, err := store.DeleteRuns(cmd.Context(), absDir)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d run(s) for %s\n", deleted, absDir)
			return nil
		},
	}
}
