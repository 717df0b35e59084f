package planner

import (
	"context"
	"fmt"

	"github.com/yuya-takeyama/strict-dedup/internal/worker"
	"github.com/yuya-takeyama/strict-dedup/pkg/checksum"
	"github.com/yuya-takeyama/strict-dedup/pkg/logger"
)

// DuplicatePlanner implements Planner with the two-phase grouping
// algorithm: partition by size first, then by streaming content digest,
// so only files that have a size twin are ever read.
type DuplicatePlanner struct {
	hashFile worker.HashFunc
}

// NewDuplicatePlanner creates a planner that digests files with the
// given algorithm.
func NewDuplicatePlanner(algo checksum.Algorithm) *DuplicatePlanner {
	return &DuplicatePlanner{
		hashFile: func(path string) (string, error) {
			return checksum.File(algo, path)
		},
	}
}

// Plan groups the records and derives the ordered operations. The
// strategy is validated up front so a bad name fails before any file is
// read. Files that cannot be digested are dropped from their size class
// and reported as warnings; they never abort the run.
func (p *DuplicatePlanner) Plan(ctx context.Context, records []FileRecord, opts Options) (*Plan, error) {
	if _, err := ParseStrategy(string(opts.Strategy)); err != nil {
		return nil, err
	}

	lg := opts.Logger
	if lg == nil {
		lg = &logger.NullLogger{}
	}

	lg.PhaseStart("size", len(records))
	classes := PhaseSizePartition(records)
	lg.PhaseComplete("size", len(classes))

	digests, warnings, stats, err := p.phaseHashFiles(ctx, classes, opts.Parallelism, lg)
	if err != nil {
		return nil, err
	}

	groups := PhaseHashPartition(classes, digests)

	items, err := GeneratePlan(groups, opts.Strategy)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Groups:      groups,
		Items:       items,
		Warnings:    warnings,
		HashedFiles: stats.Hashed,
		HashedBytes: stats.HashedBytes,
	}, nil
}

// phaseHashFiles digests every size-class member through the worker
// pool and maps path to digest. Per-file failures become warnings.
func (p *DuplicatePlanner) phaseHashFiles(ctx context.Context, classes []SizeClass, parallelism int, lg logger.Logger) (map[string]string, []Warning, worker.Stats, error) {
	var stats worker.Stats

	jobs := []worker.Job{}
	for _, class := range classes {
		for _, m := range class.Members {
			jobs = append(jobs, worker.Job{Path: m.Path, Size: m.Size})
		}
	}

	lg.PhaseStart("hash", len(jobs))

	pool := worker.NewPool(p.hashFile, parallelism)
	results, err := pool.Execute(ctx, jobs)
	if err != nil {
		return nil, nil, stats, fmt.Errorf("hash files: %w", err)
	}

	worker.UpdateStats(&stats, results)

	digests := make(map[string]string, len(results))
	var warnings []Warning
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, Warning{Path: r.Path, Err: r.Err})
			lg.ItemProcessed("hash", r.Path, "error")
			continue
		}
		digests[r.Path] = r.Digest
	}

	lg.PhaseComplete("hash", len(digests))

	return digests, warnings, stats, nil
}
