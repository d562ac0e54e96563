package commands

import (
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/quill/internal/config"
	"github.com/simonhull/firebird-suite/quill/internal/ledger"
	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// historyCmd lists what the ledger has recorded
func historyCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [object]",
		Short: "Show the fields quill has already proposed",
		Long: `List the history ledger: every object and field quill has appended at
least once, and the files it created. Recorded fields are never added again,
even when they are deleted from the schema files.

Examples:
  quill history          # Every recorded object
  quill history Post     # Fields recorded for Post`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			object := ""
			if len(args) == 1 {
				object = args[0]
			}
			return showHistory(afero.NewOsFs(), cfg, object)
		},
	}

	cmd.Flags().StringP("output", "o", config.DefaultOutput, "Directory of the GraphQL schema files")

	return cmd
}

func showHistory(fsys afero.Fs, cfg *config.Config, object string) error {
	led, err := ledger.Load(storage.NewDir(fsys, cfg.Output), cfg.HistoryPath())
	if err != nil {
		return err
	}

	if object != "" {
		fields := led.Fields(object)
		if len(fields) == 0 {
			return fmt.Errorf("no history recorded for %s", object)
		}
		output.Info(fmt.Sprintf("%s (%d fields)", object, len(fields)))
		for _, f := range fields {
			output.Step(f)
		}
		return nil
	}

	if led.Len() == 0 {
		output.Info("History is empty, nothing has been synchronized yet")
		return nil
	}

	for _, obj := range led.Objects() {
		output.Step(fmt.Sprintf("%s: %s", obj, strings.Join(led.Fields(obj), ", ")))
	}
	if files := led.Files(); len(files) > 0 {
		output.Step("files: " + strings.Join(files, ", "))
	}
	output.Info(fmt.Sprintf("%d objects recorded", len(led.Objects())))
	return nil
}
