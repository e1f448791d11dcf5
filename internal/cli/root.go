package cli

import (
	"fmt"

	"github.com/dmitrijs2005/booknook/internal/buildinfo"
	"github.com/dmitrijs2005/booknook/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// skipApp marks commands that run without opening the library.
const skipApp = "skip-app"

// runtime carries the App built by the root command's pre-run hook to the
// subcommands.
type runtime struct {
	app  *App
	opts []AppOption
}

func (r *runtime) App() *App {
	return r.app
}

// NewRootCommand builds the nook command tree. opts are applied to every
// App the tree builds, after the command's own streams.
func NewRootCommand(opts ...AppOption) *cobra.Command {
	var path string
	v := viper.New()
	rt := &runtime{opts: opts}

	cmd := &cobra.Command{
		Use:           "nook",
		Short:         "BookNook offline e-book library",
		Long:          "Keep PDF and EPUB files in folders, remember where you stopped reading and attach notes to pages and locations. Everything stays on this machine.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipApp] != "" {
				return nil
			}
			if rt.app != nil {
				// left open by a previous run that failed
				_ = rt.app.Close(cmd.Context())
				rt.app = nil
			}
			cfg, err := config.Load(v, path)
			if err != nil {
				return err
			}

			yes, _ := cmd.Flags().GetBool("yes")
			ephemeral, _ := cmd.Flags().GetBool("ephemeral")

			all := []AppOption{
				WithIO(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
				WithAssumeYes(yes),
			}
			if ephemeral {
				all = append(all, WithEphemeral())
			}
			all = append(all, rt.opts...)

			app, err := NewApp(cfg, all...)
			if err != nil {
				return err
			}
			rt.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if rt.app == nil {
				return nil
			}
			err := rt.app.Close(cmd.Context())
			rt.app = nil
			return err
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&path, "config", "", "config file (default is ./config.yaml or <data-dir>/config.yaml)")
	pf.String("data-dir", "", "library directory (default ~/.booknook)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.Bool("log-json", false, "write logs as JSON")
	pf.String("log-file", "", "also write logs to this file, rotated")
	pf.BoolP("yes", "y", false, "do not ask for confirmation")
	pf.Bool("ephemeral", false, "use a throwaway in-memory library")

	_ = v.BindPFlag("data_dir", pf.Lookup("data-dir"))
	_ = v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = v.BindPFlag("log.json", pf.Lookup("log-json"))
	_ = v.BindPFlag("log.file", pf.Lookup("log-file"))

	cmd.Version = fmt.Sprintf("%s (%s)", buildinfo.Version, buildinfo.Commit)

	cmd.AddCommand(
		newFolderCommand(rt),
		newDocCommand(rt),
		newNoteCommand(rt),
		newBackupCommand(rt),
		newBlobsCommand(rt),
		newStatusCommand(rt),
		newReadCommand(rt),
		newConfigCommand(),
		newVersionCommand(),
	)

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			buildinfo.PrintBuildData(cmd.OutOrStdout())
			return nil
		},
	}
}
