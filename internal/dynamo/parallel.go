package dynamo

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Job runs the i-th member of a sweep. It must build its own Simulator.
type Job func(ctx context.Context, i int) (*Result, error)

// Sweep runs n independent jobs with at most workers in flight
// (GOMAXPROCS when workers < 1). Results keep job order. The first
// failing job cancels the context handed to the others.
func Sweep(ctx context.Context, n, workers int, job Job) ([]*Result, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			r, err := job(ctx, i)
			if err != nil {
				return fmt.Errorf("sweep job %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ParallelFor splits [0, n) into contiguous chunks of at least minChunk
// and runs fn on each concurrently.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if minChunk < 1 {
		minChunk = 1
	}
	workers := runtime.GOMAXPROCS(0)
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(start, end)
		}()
	}
	wg.Wait()
}
