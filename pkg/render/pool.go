package render

import (
	"fmt"
	"sync"

	"github.com/mglow/go-tile-pathtracer/pkg/work"
)

// Pool runs per-job phases across a fixed set of workers. Worker w is bound
// to jobs w, w+N, w+2N, ... so job-to-worker assignment is static; there is
// no work stealing. Load evenness comes from the balancer, not the pool.
type Pool struct {
	workers int
	jobs    []work.TraceJob
}

// NewPool builds a pool. The job count must divide evenly among workers so
// every worker owns the same number of jobs.
func NewPool(workers int, jobs []work.TraceJob) (*Pool, error) {
	if workers <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", workers)
	}
	if len(jobs)%workers != 0 {
		return nil, fmt.Errorf("%d jobs do not divide evenly among %d workers", len(jobs), workers)
	}
	return &Pool{workers: workers, jobs: jobs}, nil
}

// Workers returns the pool size
func (p *Pool) Workers() int { return p.workers }

// RunPhase invokes fn once per job across all workers and blocks until every
// job completes. fn receives the worker index alongside the job so phases
// can use per-worker scratch state.
func (p *Pool) RunPhase(fn func(worker int, job work.TraceJob)) {
	var wg sync.WaitGroup
	wg.Add(p.workers)
	for w := 0; w < p.workers; w++ {
		go func(w int) {
			defer wg.Done()
			for j := w; j < len(p.jobs); j += p.workers {
				fn(w, p.jobs[j])
			}
		}(w)
	}
	wg.Wait()
}
