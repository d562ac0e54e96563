package synchronizer

import (
	"context"
	"runtime"
	"sync"

	"github.com/simonhull/firebird-suite/quill/internal/descriptor"
	"github.com/simonhull/firebird-suite/quill/internal/graphql"
	"github.com/simonhull/firebird-suite/quill/internal/logger"
	"github.com/simonhull/firebird-suite/quill/internal/merge"
)

// fileJob is the pending work for one target file.
type fileJob struct {
	index  int
	name   string
	order  []string
	fields map[string][]descriptor.Field
	keys   []descriptor.Field // every pending descriptor, in order

	// emitted marks a file the ledger says was written before.
	emitted bool
}

type fileResult struct {
	index  int
	report FileReport
}

// groupByFile groups descriptors by target file, keeping first-appearance
// order of files and of objects within each file.
func groupByFile(fields []descriptor.Field) []*fileJob {
	var jobs []*fileJob
	byName := make(map[string]*fileJob)
	for _, f := range fields {
		job, ok := byName[f.File]
		if !ok {
			job = &fileJob{index: len(jobs), name: f.File, fields: make(map[string][]descriptor.Field)}
			byName[f.File] = job
			jobs = append(jobs, job)
		}
		if _, seen := job.fields[f.ObjectName]; !seen {
			job.order = append(job.order, f.ObjectName)
		}
		job.fields[f.ObjectName] = append(job.fields[f.ObjectName], f)
		job.keys = append(job.keys, f)
	}
	return jobs
}

// runPool processes jobs on a bounded worker pool. Results come back in job
// order. Jobs not started before ctx is cancelled are left without a result.
func (s *Synchronizer) runPool(ctx context.Context, jobs []*fileJob) []*FileReport {
	numWorkers := s.opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	jobCh := make(chan *fileJob, len(jobs))
	results := make(chan fileResult, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go s.fileWorker(ctx, jobCh, results, &wg)
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case <-ctx.Done():
				return
			case jobCh <- job:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	reports := make([]*FileReport, len(jobs))
	for r := range results {
		report := r.report
		reports[r.index] = &report
	}
	return reports
}

func (s *Synchronizer) fileWorker(ctx context.Context, jobs <-chan *fileJob, results chan<- fileResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- fileResult{index: job.index, report: s.processFile(job)}
	}
}

// processFile loads, parses, merges, prints and formats one file. It never
// writes; the caller stages the result.
func (s *Synchronizer) processFile(job *fileJob) FileReport {
	log := s.log.WithFields(logger.F("file", job.name))
	report := FileReport{Name: job.name}

	old, exists, err := s.fs.Load(job.name)
	if err != nil {
		report.Err = err
		return report
	}
	report.Old = old
	report.Created = !exists

	if !exists && job.emitted {
		report.Skipped = true
		log.Warn("File was deleted after it was generated, not recreating it")
		return report
	}

	doc, err := graphql.Parse(job.name, old)
	if err != nil {
		report.Err = err
		return report
	}

	res := merge.MergeOrdered(doc, job.order, job.fields)
	report.Changes = res.Objects
	if !res.Changed() {
		report.New = old
		log.Debug("All pending fields already present")
		return report
	}

	out, err := s.opts.Formatter.Format(job.name, []byte(graphql.Print(res.Document)))
	if err != nil {
		report.Err = err
		return report
	}
	report.New = out

	log.Debug("Merged file",
		logger.F("added", res.AddedCount()),
		logger.F("created", report.Created))
	return report
}
