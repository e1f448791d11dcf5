package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newBlobsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobs",
		Short: "Inspect stored document files",
	}

	var prune bool
	orphans := &cobra.Command{
		Use:   "orphans",
		Short: "List files no document refers to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			ctx := cmd.Context()
			w := cmd.OutOrStdout()

			if !prune {
				paths, err := app.Library().Orphans(ctx)
				if err != nil {
					return err
				}
				for _, p := range paths {
					fmt.Fprintln(w, p)
				}
				return nil
			}

			cs, err := app.Library().PruneOrphans(ctx)
			if err != nil {
				return err
			}
			app.reportCleanups(cs)
			removed := 0
			for _, c := range cs {
				if !c.Failed() {
					fmt.Fprintf(w, "removed %s\n", c.BlobPath)
					removed++
				}
			}
			fmt.Fprintf(w, "%d orphaned files removed\n", removed)
			return nil
		},
	}
	orphans.Flags().BoolVar(&prune, "prune", false, "delete the orphaned files")

	cmd.AddCommand(orphans)
	return cmd
}

func newStatusCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			st, err := app.Library().Status(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Library:     %s\n", app.meta.Path())
			fmt.Fprintf(w, "Folders:     %d\n", st.Folders)
			fmt.Fprintf(w, "Documents:   %d (%s)\n", st.Documents, humanize.Bytes(uint64(st.TotalBytes)))
			fmt.Fprintf(w, "Notes:       %d\n", st.Notes)
			fmt.Fprintf(w, "Last export: %s\n", ago(st.LastExportAt))
			fmt.Fprintf(w, "Last import: %s\n", ago(st.LastImportAt))
			return nil
		},
	}
}
