package commands

import (
	"io"

	"github.com/simonhull/firebird-suite/quill"
	"github.com/simonhull/firebird-suite/quill/internal/config"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/spf13/cobra"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	verbose    bool
}

// RootCmd creates and returns the root command for the quill CLI
func RootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   "quill",
		Short: "Evergreen GraphQL schemas for Firebird resources",
		Long: `Quill keeps GraphQL schema files in step with your Firebird resource
schemas.

New types and fields are appended to the existing files. Everything you
edit by hand stays exactly as you left it, and a field quill has proposed
once is never proposed again, even after you delete it.

Learn more: https://github.com/simonhull/firebird-suite`,
		Version:       quill.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			output.SetVerbose(g.verbose)
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default ./quill.yml)")
	cmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable verbose output for debugging")

	cmd.AddCommand(syncCmd(g))
	cmd.AddCommand(historyCmd(g))

	return cmd
}

// load resolves configuration for cmd, binding its local flags.
func (g *globals) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		output.Verbose("Using config " + cfg.File)
	}
	return cfg, nil
}

// newLogger builds the diagnostic logger. --verbose forces debug level.
func (g *globals) newLogger(cmd *cobra.Command, cfg *config.Config) (logger.Logger, io.Closer, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if g.verbose {
		level = logger.LevelDebug
	}
	if cfg.Log.File != "" {
		log, closer := logger.NewFileLogger(level, cfg.Log.File, logger.FileOptions{})
		return log, closer, nil
	}
	return logger.NewLogger(level, cmd.ErrOrStderr()), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
