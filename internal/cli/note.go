package cli

import (
	"bufio"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/spf13/cobra"
)

func newNoteCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes", "n"},
		Short:   "Manage notes",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:     "ls <document-id>",
			Aliases: []string{"list"},
			Short:   "List the notes of a document, newest first",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ns, err := rt.App().Library().ListNotes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tANCHOR\tTITLE\tUPDATED")
				for _, n := range ns {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.ID, n.Anchor, n.Title, ago(n.UpdatedAt))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Print a note",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := rt.App().Library().GetNote(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printNote(cmd, n)
				return nil
			},
		},
		newNoteSaveCommand(rt),
	)

	return cmd
}

func newNoteSaveCommand(rt *runtime) *cobra.Command {
	var title, html, file string

	cmd := &cobra.Command{
		Use:   "save <document-id> <anchor>",
		Short: "Create or replace the note at an anchor (doc, pdf:N or epub:TOKEN)",
		Long: `Create or replace the note at an anchor.

The body comes from --html, from --file, or from standard input when
neither is given. A blank title falls back to the anchor's default.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := anchor.Parse(args[1])
			if err != nil {
				return err
			}

			body := html
			switch {
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				body = string(data)
			case !cmd.Flags().Changed("html"):
				body, err = GetMultiline(bufio.NewReader(cmd.InOrStdin()), "Note body (HTML)", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			n, err := rt.App().Library().SaveNote(cmd.Context(), args[0], a, title, body)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", n.ID, n.Anchor, n.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "note title")
	cmd.Flags().StringVar(&html, "html", "", "note body")
	cmd.Flags().StringVar(&file, "file", "", "read the note body from a file")

	return cmd
}

func printNote(cmd *cobra.Command, n *models.Note) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "# %s\n", n.Title)
	fmt.Fprintf(w, "document %s at %s, updated %s\n\n", n.DocumentID, n.Anchor, ago(n.UpdatedAt))
	fmt.Fprintln(w, n.HTML)
}
