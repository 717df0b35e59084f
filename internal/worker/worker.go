package worker

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// HashFunc computes the content digest of a file
type HashFunc func(path string) (string, error)

// Job is a single file to digest
type Job struct {
	Path string
	Size int64
}

// Result represents the outcome of one hash job
type Result struct {
	Path   string
	Size   int64
	Digest string
	Err    error
}

// Pool manages concurrent hash workers
type Pool struct {
	hashFile    HashFunc
	concurrency int
}

// NewPool creates a new worker pool
func NewPool(hashFile HashFunc, concurrency int) *Pool {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		hashFile:    hashFile,
		concurrency: concurrency,
	}
}

// Concurrency returns the effective worker count.
func (p *Pool) Concurrency() int {
	return p.concurrency
}

// Execute digests every job and returns one result per job, in job
// order. Per-file failures land in the result's Err and never stop the
// pool; only context cancellation is returned as an error, with the
// unprocessed jobs marked cancelled in their results.
func (p *Pool) Execute(ctx context.Context, jobs []Job) ([]Result, error) {
	results := make([]Result, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency)

	for i, job := range jobs {
		i, job := i, job // per-iteration copies; required under go <1.22
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: job.Path, Size: job.Size, Err: err}
				return nil
			}

			digest, err := p.hashFile(job.Path)
			results[i] = Result{
				Path:   job.Path,
				Size:   job.Size,
				Digest: digest,
				Err:    err,
			}
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Stats tracks hashing statistics
type Stats struct {
	Hashed      int64
	HashedBytes int64
	Errors      int64
}

// UpdateStats updates statistics from results
func UpdateStats(stats *Stats, results []Result) {
	for _, result := range results {
		if result.Err != nil {
			atomic.AddInt64(&stats.Errors, 1)
			continue
		}

		atomic.AddInt64(&stats.Hashed, 1)
		atomic.AddInt64(&stats.HashedBytes, result.Size)
	}
}
