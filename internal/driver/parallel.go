package driver

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BuildAll compiles independent inputs concurrently. Each compile keeps its
// own backend module and stays sequential inside; only whole compiles
// overlap. Results are indexed like reqs.
func BuildAll(ctx context.Context, reqs []CompileRequest, jobs int) ([]CompileResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(reqs) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Indexes are unique per goroutine, no mutex needed.
	results := make([]CompileResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(reqs)))

	for i := range reqs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			res, err := Compile(gctx, &reqs[i])
			results[i] = res
			if err != nil {
				return fmt.Errorf("%s: %w", reqs[i].InputPath, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
