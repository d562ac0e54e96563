package synchronizer

import (
	"github.com/simonhull/firebird-suite/quill/internal/merge"
)

// Report describes one synchronization run.
type Report struct {
	DryRun   bool
	Pending  int // descriptors not yet in the ledger
	Recorded int // ledger entries added (or that would be, on a dry run)
	Files    []FileReport
}

// FileReport is the outcome for one target file.
type FileReport struct {
	Name    string
	Created bool // the file did not exist before
	Skipped bool // the file was emitted before and has since been deleted
	Old     []byte
	New     []byte
	Changes []merge.ObjectChange
	Err     error
}

// Changed reports whether the file content differs after the run.
func (f FileReport) Changed() bool {
	return f.Err == nil && !f.Skipped && string(f.Old) != string(f.New)
}

// NoOp reports whether the run found nothing new to synchronize.
func (r *Report) NoOp() bool {
	return r.Pending == 0
}

// Changed returns the files whose content changed (or would change).
func (r *Report) Changed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Changed() {
			out = append(out, f)
		}
	}
	return out
}

// Failed returns the files that could not be synchronized.
func (r *Report) Failed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// AddedFields counts the fields appended across all files.
func (r *Report) AddedFields() int {
	n := 0
	for _, f := range r.Files {
		if f.Err != nil {
			continue
		}
		for _, c := range f.Changes {
			n += len(c.Added)
		}
	}
	return n
}
