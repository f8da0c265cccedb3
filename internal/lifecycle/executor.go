package lifecycle

import (
	"sync"

	"github.com/glxcee/storm-tape/internal/model"
	"github.com/glxcee/storm-tape/internal/probe"
)

// probeResult holds the two facts the transition table needs for one
// file, each with its own error: a non-nil error means the filesystem
// failed to answer the question at all (path gone, permission denied).
type probeResult struct {
	inProgress    bool
	inProgressErr error
	stub          bool
	stubErr       error
}

func probeFile(prober probe.Prober, f model.File) probeResult {
	status := probe.NewStatus(prober, f.PhysicalPath)
	var r probeResult
	r.inProgress, r.inProgressErr = status.IsInProgress()
	if r.inProgressErr == nil && !r.inProgress {
		r.stub, r.stubErr = status.IsStub()
	}
	return r
}

// Executor probes every file of a batch and returns one probeResult per
// file, index-aligned with the input slice.
type Executor interface {
	Probe(files []model.File, prober probe.Prober) []probeResult
}

// SequentialExecutor probes one file at a time. It is the reference
// executor: simplest to reason about, used whenever concurrency is not
// configured.
type SequentialExecutor struct{}

func (SequentialExecutor) Probe(files []model.File, prober probe.Prober) []probeResult {
	results := make([]probeResult, len(files))
	for i, f := range files {
		results[i] = probeFile(prober, f)
	}
	return results
}

// ParallelExecutor probes the files of one Stage across a bounded worker
// pool. It must be observationally identical to SequentialExecutor: same
// results, same index alignment, just faster for large stages.
type ParallelExecutor struct {
	Workers int
}

func (p ParallelExecutor) Probe(files []model.File, prober probe.Prober) []probeResult {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}
	if workers <= 1 {
		return SequentialExecutor{}.Probe(files, prober)
	}

	results := make([]probeResult, len(files))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = probeFile(prober, files[i])
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
