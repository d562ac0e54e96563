package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/simonhull/firebird-suite/quill/internal/config"
	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/diff"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/output"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/storage"
	"github.com/simonhull/firebird-suite/quill/internal/synchronizer"
	"github.com/simonhull/firebird-suite/quill/internal/watch"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type syncFlags struct {
	dryRun bool
	diff   bool
	watch  bool
}

// syncCmd appends new types and fields to the GraphQL schema files
func syncCmd(g *globals) *cobra.Command {
	var f syncFlags

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Append new GraphQL types and fields from resource schemas",
		Long: `Read every *.firebird.yml resource schema and append the GraphQL types and
fields that have never been proposed before.

Existing definitions, comments and hand edits are left untouched. Fields
recorded in the history ledger are never added again.

Examples:
  quill sync                    # Update graph/schema from internal/schemas
  quill sync --dry-run --diff   # Show what would change
  quill sync --watch            # Re-run whenever a schema changes
  quill sync --output api/gql   # Write somewhere else`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			log, closer, err := g.newLogger(cmd, cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			run := func(ctx context.Context) error {
				report, err := runSync(ctx, afero.NewOsFs(), cfg, f.dryRun, log)
				printReport(cfg, report, f.diff)
				return err
			}

			if !f.watch {
				return run(ctx)
			}

			// In watch mode failures are reported and the next change retries.
			reported := func(ctx context.Context) error {
				err := run(ctx)
				if err != nil && ctx.Err() == nil {
					output.Error(err.Error())
				}
				return err
			}
			_ = reported(ctx)
			return watchSchemas(ctx, cfg, log, reported)
		},
	}

	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Compute changes without writing files or the ledger")
	cmd.Flags().BoolVar(&f.diff, "diff", false, "Print a unified diff of every changed file")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Keep running and synchronize on every schema change")
	cmd.Flags().String("schemas", config.DefaultSchemas, "Directory of *.firebird.yml resource schemas")
	cmd.Flags().StringP("output", "o", config.DefaultOutput, "Directory of the GraphQL schema files")
	cmd.Flags().String("formatter", "builtin", "Formatter applied to written files (builtin, gqlparser)")
	cmd.Flags().Int("workers", 0, "Files processed in parallel (0 uses every CPU)")
	cmd.Flags().String("log-level", "warn", "Diagnostic log level (debug, info, warn, error, silent)")

	return cmd
}

// runSync discovers resources under cfg.Schemas in fsys and synchronizes
// cfg.Output. The report is non-nil whenever discovery succeeded.
func runSync(ctx context.Context, fsys afero.Fs, cfg *config.Config, dryRun bool, log logger.Logger) (*synchronizer.Report, error) {
	resources, err := schema.Discover(fsys, cfg.Schemas)
	if err != nil {
		return nil, err
	}
	output.Verbose(fmt.Sprintf("Discovered %d resource schemas in %s", len(resources), cfg.Schemas))

	formatter, err := graphql.FormatterByName(cfg.Formatter)
	if err != nil {
		return nil, err
	}

	syncer := synchronizer.New(storage.NewDir(fsys, cfg.Output), synchronizer.Options{
		LedgerPath: cfg.HistoryPath(),
		Formatter:  formatter,
		Descriptors: descriptor.Options{
			Extension:  cfg.Extension,
			Operations: cfg.Operations,
		},
		Workers: cfg.Workers,
		DryRun:  dryRun,
		Logger:  log,
	})
	return syncer.Synchronize(ctx, resources)
}

func watchSchemas(ctx context.Context, cfg *config.Config, log logger.Logger, run func(context.Context) error) error {
	w, err := watch.New(cfg.Schemas, watch.Options{Logger: log})
	if err != nil {
		return err
	}
	defer w.Close()

	output.Info(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", cfg.Schemas))
	return w.Run(ctx, run)
}

// printReport summarizes a run on the output writer.
func printReport(cfg *config.Config, report *synchronizer.Report, showDiff bool) {
	if report == nil {
		return
	}
	if report.NoOp() {
		output.Success("GraphQL schema is up to date")
		return
	}

	for _, f := range report.Files {
		path := filepath.Join(cfg.Output, f.Name)
		switch {
		case f.Err != nil:
			// Returned to the caller as part of the joined error.
		case f.Skipped:
			output.Warn(fmt.Sprintf("Skipped %s (deleted after it was generated)", path))
		case f.Changed():
			verb := "Updated"
			if f.Created {
				verb = "Created"
			}
			if report.DryRun {
				verb = "Would update"
				if f.Created {
					verb = "Would create"
				}
			}
			output.Step(fmt.Sprintf("%s %s (%s)", verb, path, summarizeChanges(f)))
			if showDiff {
				output.Raw(diff.Unified(path, f.Old, f.New, diff.Options{Color: true}))
			}
		}
	}

	changed := len(report.Changed())
	switch {
	case report.DryRun:
		output.Info(fmt.Sprintf("Dry run: %d files would change, nothing was written", changed))
	case len(report.Failed()) > 0:
		output.Warn(fmt.Sprintf("Synchronized %d files, %d failed", changed, len(report.Failed())))
	default:
		output.Success(fmt.Sprintf("Synchronized %d files (%d new fields)", changed, report.AddedFields()))
	}
}

func summarizeChanges(f synchronizer.FileReport) string {
	var created, fields int
	for _, c := range f.Changes {
		if c.Created {
			created++
		}
		fields += len(c.Added)
	}
	return fmt.Sprintf("%d new types, %d new fields", created, fields)
}
