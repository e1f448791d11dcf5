package cli

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newFolderCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "folder",
		Aliases: []string{"folders", "f"},
		Short:   "Manage folders",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <title>",
			Short: "Create a folder",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := rt.App().Library().CreateFolder(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.ID, f.Title)
				return nil
			},
		},
		&cobra.Command{
			Use:     "ls",
			Aliases: []string{"list"},
			Short:   "List folders, most recently changed first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				fs, err := rt.App().Library().ListFolders(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tCOVER\tUPDATED")
				for _, f := range fs {
					cover := "-"
					switch {
					case f.CoverDocumentID != "":
						cover = f.CoverDocumentID
					case f.CoverImage != "":
						cover = "image"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID, f.Title, cover, ago(f.UpdatedAt))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "rename <id> <title>",
			Short: "Rename a folder",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := rt.App().Library().RenameFolder(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.ID, f.Title)
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm <id>",
			Aliases: []string{"delete"},
			Short:   "Delete a folder with its documents and notes",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app := rt.App()
				ok, err := app.confirm(fmt.Sprintf("Delete folder %s with all its documents and notes?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return errAborted
				}
				cs, err := app.Library().DeleteFolder(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				app.reportCleanups(cs)
				fmt.Fprintf(cmd.OutOrStdout(), "deleted folder %s (%d documents)\n", args[0], len(cs))
				return nil
			},
		},
		newFolderCoverCommand(rt),
	)

	return cmd
}

func newFolderCoverCommand(rt *runtime) *cobra.Command {
	var image string
	var clearCover bool

	cmd := &cobra.Command{
		Use:   "cover <folder-id> [document-id]",
		Short: "Set the folder cover to one of its documents or to an image",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib := rt.App().Library()
			ctx := cmd.Context()

			switch {
			case clearCover:
				if _, err := lib.SetFolderCoverDocument(ctx, args[0], ""); err != nil {
					return err
				}
				_, err := lib.SetFolderCoverImage(ctx, args[0], "")
				return err
			case image != "":
				uri, err := imageDataURI(image)
				if err != nil {
					return err
				}
				_, err = lib.SetFolderCoverImage(ctx, args[0], uri)
				return err
			case len(args) == 2:
				_, err := lib.SetFolderCoverDocument(ctx, args[0], args[1])
				return err
			}
			return fmt.Errorf("give a document id, --image or --clear")
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "image file to use as the cover")
	cmd.Flags().BoolVar(&clearCover, "clear", false, "remove the cover")

	return cmd
}

// imageDataURI reads an image file into a data: URI.
func imageDataURI(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return "data:" + http.DetectContentType(data) + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func ago(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.Time(t)
}
