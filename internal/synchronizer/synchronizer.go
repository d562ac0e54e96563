// Package synchronizer keeps evergreen GraphQL files in step with the
// resource schemas.
//
// A run derives the desired fields, drops every (object, field) pair the
// history ledger has seen, merges what is left into the target files and
// records it. Files are written before the ledger is saved, and the ledger
// only records fields of files that were written, so a failed run never
// marks unwritten fields as handled. A second run with unchanged schemas
// touches nothing.
package synchronizer

import (
	"context"
	"errors"

	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/simonhull/firebird-suite/quill/internal/ledger"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/schema"
	"github.com/simonhull/firebird-suite/quill/internal/storage"
)

// Options configures a Synchronizer. Zero values select defaults.
type Options struct {
	LedgerPath  string            // default ledger.DefaultPath
	Formatter   graphql.Formatter // default graphql.Builtin
	Descriptors descriptor.Options
	Workers     int  // default runtime.NumCPU()
	DryRun      bool // compute everything, write nothing
	Logger      logger.Logger
}

// Synchronizer applies resource schemas to the files of one storage root.
type Synchronizer struct {
	fs   storage.Fs
	opts Options
	log  logger.Logger
}

// New creates a Synchronizer writing through fs.
func New(fs storage.Fs, opts Options) *Synchronizer {
	if opts.LedgerPath == "" {
		opts.LedgerPath = ledger.DefaultPath
	}
	if opts.Formatter == nil {
		opts.Formatter = graphql.Builtin{}
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	return &Synchronizer{fs: fs, opts: opts, log: opts.Logger}
}

// Synchronize derives the desired fields of resources and applies them.
func (s *Synchronizer) Synchronize(ctx context.Context, resources []*schema.Definition) (*Report, error) {
	return s.Apply(ctx, descriptor.DeriveAll(resources, s.opts.Descriptors))
}

// Apply synchronizes an explicit descriptor list.
//
// A corrupt ledger, a failed commit, a failed ledger save and cancellation
// are fatal and leave the ledger untouched. Per-file failures (unreadable
// or unparsable files) are joined into the returned error while every other
// file still completes.
func (s *Synchronizer) Apply(ctx context.Context, desired []descriptor.Field) (*Report, error) {
	report := &Report{DryRun: s.opts.DryRun}

	led, err := ledger.Load(s.fs, s.opts.LedgerPath)
	if err != nil {
		return report, err
	}

	var pending []descriptor.Field
	for _, f := range desired {
		if !led.HasBeenInserted(f.ObjectName, f.FieldName) {
			pending = append(pending, f)
		}
	}
	report.Pending = len(pending)
	if len(pending) == 0 {
		s.log.Info("Nothing to synchronize", logger.F("fields", len(desired)))
		return report, nil
	}

	jobs := groupByFile(pending)
	for _, job := range jobs {
		job.emitted = led.HasFile(job.name)
	}
	s.log.Info("Synchronizing",
		logger.F("pending", len(pending)),
		logger.F("files", len(jobs)),
		logger.F("dry_run", s.opts.DryRun))

	results := s.runPool(ctx, jobs)
	if err := ctx.Err(); err != nil {
		return report, err
	}

	var fileErrs []error
	tx := storage.NewTransaction(s.fs)
	for _, r := range results {
		report.Files = append(report.Files, *r)
		switch {
		case r.Err != nil:
			s.log.Warn("Failed to synchronize file", logger.F("file", r.Name), logger.F("error", r.Err))
			fileErrs = append(fileErrs, r.Err)
		case r.Changed():
			tx.Stage(r.Name, r.New)
		}
	}

	if !s.opts.DryRun && tx.Len() > 0 {
		if err := tx.Commit(); err != nil {
			s.log.Error("Commit failed, restored previous files", logger.F("error", err))
			return report, errors.Join(append(fileErrs, err)...)
		}
	}

	for i, r := range results {
		if r.Err != nil {
			continue
		}
		for _, f := range jobs[i].keys {
			if led.RecordInsertion(f.ObjectName, f.FieldName) {
				report.Recorded++
			}
		}
		if r.Changed() && r.Created {
			led.RecordFile(r.Name)
		}
	}

	if !s.opts.DryRun {
		if err := led.Save(s.fs, s.opts.LedgerPath); err != nil {
			return report, err
		}
	}

	s.log.Info("Synchronization complete",
		logger.F("written", len(report.Changed())),
		logger.F("recorded", report.Recorded),
		logger.F("failed", len(fileErrs)))
	return report, errors.Join(fileErrs...)
}
