package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/session"
	"github.com/dustin/go-humanize"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

// lineReader is the part of *liner.State the reading shell uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	ReadHistory(r io.Reader) (int, error)
	WriteHistory(w io.Writer) (int, error)
	Close() error
}

var shellCommands = []string{
	"page", "loc", "select", "title", "write", "save",
	"notes", "show", "info", "help", "exit", "quit",
}

// newLineReader is a test seam; tests replace it with a scripted reader.
var newLineReader = func() lineReader {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	l.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range shellCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	})
	return l
}

func newReadCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "read <document-id>",
		Short: "Open a document in the reading shell",
		Long: `Open a document in the reading shell.

The shell stands in for a renderer: "page N" and "loc TOKEN" report the
position a PDF or EPUB viewer would, and the note editor follows the
current anchor. Type "help" inside the shell for the command list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			ctx := cmd.Context()

			s, err := session.Open(ctx, app.Library(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if a := s.ResumeAnchor(); !a.IsDocument() {
				if err := s.Select(ctx, a); err != nil {
					return err
				}
			}

			lr := newLineReader()
			defer lr.Close()

			hist := ""
			if !app.ephemeral {
				hist = filepath.Join(app.config.DataDir, ".nook_history")
			}
			if hist != "" {
				if f, err := os.Open(hist); err == nil {
					_, _ = lr.ReadHistory(f)
					f.Close()
				}
			}

			err = runShell(ctx, s, lr, cmd.OutOrStdout())

			if hist != "" {
				if f, err := os.Create(hist); err == nil {
					_, _ = lr.WriteHistory(f)
					f.Close()
				}
			}
			return err
		},
	}
}

func shellPrompt(s *session.Session) string {
	dirty := ""
	if s.Draft().Dirty {
		dirty = "*"
	}
	return fmt.Sprintf("nook %s%s> ", s.Active(), dirty)
}

// runShell reads commands until exit, EOF or Ctrl-C. Command errors are
// printed and the loop continues.
func runShell(ctx context.Context, s *session.Session, lr lineReader, w io.Writer) error {
	d := s.Document()
	fmt.Fprintf(w, "%s (%s, %s)\n", d.Title, d.Type, humanize.Bytes(uint64(d.Size)))
	fmt.Fprintln(w, "Type 'help' for available commands.")

	for {
		line, err := lr.Prompt(shellPrompt(s))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(w, "Bye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lr.AppendHistory(line)

		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch strings.ToLower(cmd) {
		case "exit", "quit", "q":
			if s.Draft().Dirty {
				fmt.Fprintln(w, "Unsaved draft discarded.")
			}
			fmt.Fprintln(w, "Bye!")
			return nil

		case "help", "?":
			printShellHelp(w)

		case "page":
			n, err := strconv.Atoi(rest)
			if err != nil {
				fmt.Fprintln(w, "Usage: page <number>")
				continue
			}
			report(w, s.PageChanged(ctx, n))

		case "loc":
			if rest == "" {
				fmt.Fprintln(w, "Usage: loc <token>")
				continue
			}
			report(w, s.Relocated(ctx, rest))

		case "select":
			a, err := anchor.Parse(rest)
			if err != nil {
				fmt.Fprintln(w, "Usage: select <doc|pdf:N|epub:TOKEN>")
				continue
			}
			report(w, s.Select(ctx, a))

		case "title":
			s.Edit(rest, s.Draft().HTML)

		case "write":
			html, err := readBody(lr)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			s.Edit(s.Draft().Title, html)

		case "save":
			n, err := s.Save(ctx)
			if report(w, err) {
				fmt.Fprintf(w, "saved %q at %s\n", n.Title, n.Anchor)
			}

		case "notes":
			notes := s.Notes()
			if len(notes) == 0 {
				fmt.Fprintln(w, "No notes yet.")
			}
			for _, n := range notes {
				fmt.Fprintf(w, "  %-16s %s (%s)\n", n.Anchor, n.Title, ago(n.UpdatedAt))
			}

		case "show":
			printDraft(w, s)

		case "info":
			d := s.Document()
			fmt.Fprintf(w, "%s\n  id: %s\n  type: %s\n  size: %s\n  position: %s\n",
				d.Title, d.ID, d.Type, humanize.Bytes(uint64(d.Size)), orDash(d.LastLocation))

		default:
			fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

// readBody collects lines until a single ".".
func readBody(lr lineReader) (string, error) {
	var lines []string
	for {
		line, err := lr.Prompt("... ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return "", err
		}
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func report(w io.Writer, err error) bool {
	if err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
		return false
	}
	return true
}

func printDraft(w io.Writer, s *session.Session) {
	fmt.Fprintf(w, "anchor: %s\n", s.Active())
	if n := s.Note(); n != nil {
		fmt.Fprintf(w, "saved:  %s (%s)\n", n.ID, ago(n.UpdatedAt))
	} else {
		fmt.Fprintln(w, "saved:  no")
	}
	dr := s.Draft()
	fmt.Fprintf(w, "title:  %s\n", dr.Title)
	if dr.HTML != "" {
		fmt.Fprintln(w, dr.HTML)
	}
}

func printShellHelp(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  page <n>                 Go to page n (PDF)")
	fmt.Fprintln(w, "  loc <token>              Go to a location (EPUB)")
	fmt.Fprintln(w, "  select <anchor>          Switch to doc, pdf:N or epub:TOKEN without moving")
	fmt.Fprintln(w, "  title <text>             Set the draft title")
	fmt.Fprintln(w, "  write                    Enter the draft body, end with a line '.'")
	fmt.Fprintln(w, "  save                     Save the draft at the current anchor")
	fmt.Fprintln(w, "  notes                    List notes of this document")
	fmt.Fprintln(w, "  show                     Show the current anchor and draft")
	fmt.Fprintln(w, "  info                     Show document details")
	fmt.Fprintln(w, "  help                     Show this help")
	fmt.Fprintln(w, "  exit / quit / q          Leave the shell")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
