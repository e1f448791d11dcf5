package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/booknook/internal/filex"
	"github.com/dmitrijs2005/booknook/internal/library"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newDocCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"docs", "d"},
		Short:   "Manage documents",
	}

	cmd.AddCommand(
		newDocImportCommand(rt),
		&cobra.Command{
			Use:     "ls <folder-id>",
			Aliases: []string{"list"},
			Short:   "List the documents of a folder",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ds, err := rt.App().Library().ListDocuments(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tSIZE\tPOSITION")
				for _, d := range ds {
					pos := d.LastLocation
					if pos == "" {
						pos = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Title, d.Type, humanize.Bytes(uint64(d.Size)), pos)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show document details",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := rt.App().Library().GetDocument(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printDocument(cmd, d)
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a document and its notes",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app := rt.App()
				ok, err := app.confirm(fmt.Sprintf("Delete document %s and its notes?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
				c, err := app.Library().DeleteDocument(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				app.reportCleanups([]library.Cleanup{c})
				fmt.Fprintf(cmd.OutOrStdout(), "deleted document %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "export <id> <destination>",
			Short: "Write the document file to a path or into a directory",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, data, err := rt.App().Library().ReadDocumentFile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dest := args[1]
				if fi, err := os.Stat(dest); err == nil && fi.IsDir() {
					dest = filepath.Join(dest, exportName(d))
				}
				if err := filex.EnsureParent(dest); err != nil {
					return err
				}
				if err := atomic.WriteFile(dest, bytes.NewReader(data)); err != nil {
					return fmt.Errorf("failed to write %s: %w", dest, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", dest, humanize.Bytes(uint64(len(data))))
				return nil
			},
		},
	)

	return cmd
}

func newDocImportCommand(rt *runtime) *cobra.Command {
	var typ, mime string

	cmd := &cobra.Command{
		Use:   "import <folder-id> <file>...",
		Short: "Import PDF or EPUB files into a folder",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := rt.App().Library()
			for _, p := range args[1:] {
				data, err := os.ReadFile(p)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", p, err)
				}
				d, err := lib.ImportDocument(cmd.Context(), library.ImportRequest{
					FolderID: args[0],
					FileName: filepath.Base(p),
					Type:     models.DocumentType(typ),
					MIME:     mime,
					Data:     data,
				})
				if err != nil {
					return fmt.Errorf("%s: %w", p, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n", d.ID, d.Title, d.Type, humanize.Bytes(uint64(d.Size)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "document type (pdf or epub); detected from the file when empty")
	cmd.Flags().StringVar(&mime, "mime", "", "MIME type to record")

	return cmd
}

func printDocument(cmd *cobra.Command, d *models.Document) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:        %s\n", d.ID)
	fmt.Fprintf(w, "Folder:    %s\n", d.FolderID)
	fmt.Fprintf(w, "Title:     %s\n", d.Title)
	fmt.Fprintf(w, "Type:      %s (%s)\n", d.Type, d.MIME)
	fmt.Fprintf(w, "Size:      %s\n", humanize.Bytes(uint64(d.Size)))
	if d.LastLocation != "" {
		fmt.Fprintf(w, "Position:  %s\n", d.LastLocation)
	}
	fmt.Fprintf(w, "Imported:  %s\n", ago(d.CreatedAt))
	fmt.Fprintf(w, "Updated:   %s\n", ago(d.UpdatedAt))
}

// exportName derives a file name from the title; titles restored from a
// backup may contain path separators.
func exportName(d *models.Document) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(d.Title, `\`, "/")))
	if name == "/" || name == "." || name == "" {
		name = d.ID
	}
	return name + "." + string(d.Type)
}
