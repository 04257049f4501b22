package partition

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ReadFunc reads one partition source into a result of type T.
type ReadFunc[T any] func(ctx context.Context, src Source) (T, error)

// ReadAll runs read over every source with at most concurrency reads in flight
// and returns the results indexed by source position, whatever order reads
// complete in. The first failure cancels the context handed to in-flight reads;
// every result that was produced is then passed to release and the first error
// is returned.
func ReadAll[T any](ctx context.Context, sources []Source, concurrency int, read ReadFunc[T], release func(T)) ([]T, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]T, len(sources))
	done := make([]bool, len(sources))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(concurrency))

	for i, src := range sources {
		if err := sem.Acquire(gctx, 1); err != nil {
			// A read already failed or the caller gave up
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			res, err := read(gctx, src)
			if err != nil {
				return err
			}

			mu.Lock()
			results[i] = res
			done[i] = true
			mu.Unlock()
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		if release != nil {
			for i := range results {
				if done[i] {
					release(results[i])
				}
			}
		}
		return nil, err
	}

	return results, nil
}
