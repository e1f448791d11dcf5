package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dmitrijs2005/booknook/internal/backup"
	"github.com/dmitrijs2005/booknook/internal/filex"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func newBackupCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import library metadata (files are not included)",
	}

	cmd.AddCommand(newBackupExportCommand(rt), newBackupImportCommand(rt))

	return cmd
}

// backupFormat resolves the format: --format wins, then the file
// extension, then backup_format from the configuration.
func backupFormat(cmd *cobra.Command, app *App, path string) (backup.Format, error) {
	if cmd.Flags().Changed("format") {
		s, _ := cmd.Flags().GetString("format")
		return backup.ParseFormat(s)
	}
	def := app.config.Format()
	if path == "" || path == "-" {
		return def, nil
	}
	return backup.FormatForPath(path, def), nil
}

func newBackupExportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write a backup to a file, or to stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			f, err := backupFormat(cmd, app, path)
			if err != nil {
				return err
			}

			if path == "" || path == "-" {
				_, err := app.Library().ExportBackupTo(cmd.Context(), cmd.OutOrStdout(), f)
				return err
			}

			// the previous backup at path is replaced only by a complete one
			var buf bytes.Buffer
			p, err := app.Library().ExportBackupTo(cmd.Context(), &buf, f)
			if err != nil {
				return err
			}
			if err := filex.EnsureParent(path); err != nil {
				return err
			}
			if err := atomic.WriteFile(path, &buf); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d folders, %d documents, %d notes to %s\n",
				len(p.Folders), len(p.Documents), len(p.Notes), path)
			return nil
		},
	}

	cmd.Flags().String("format", "", "backup format (json or cbor)")

	return cmd
}

func newBackupImportCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a backup into the library; records with the same id are replaced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := rt.App()
			path := args[0]
			f, err := backupFormat(cmd, app, path)
			if err != nil {
				return err
			}

			r := cmd.InOrStdin()
			if path != "-" {
				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", path, err)
				}
				defer file.Close()
				r = file
			}

			st, err := app.Library().RestoreBackup(cmd.Context(), r, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d folders, %d documents, %d notes\n", st.Folders, st.Documents, st.Notes)
			return nil
		},
	}

	cmd.Flags().String("format", "", "backup format (json or cbor); detected from the extension when omitted")

	return cmd
}
