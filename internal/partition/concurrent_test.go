package partition

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sourcesN(n int) []Source {
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("p/%03d.arrow", i)
	}
	return Ordered(paths)
}

// TestProperty_ReadAllPreservesOrder checks that results line up with
// enumeration order independent of completion order.
func TestProperty_ReadAllPreservesOrder(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("results are indexed by source position", prop.ForAll(
		func(delays []int, concurrency int) bool {
			sources := sourcesN(len(delays))
			results, err := ReadAll(context.Background(), sources, concurrency,
				func(ctx context.Context, src Source) (string, error) {
					time.Sleep(time.Duration(delays[src.Ordinal]) * time.Microsecond)
					return src.Path, nil
				}, nil)
			if err != nil || len(results) != len(sources) {
				return false
			}
			for i, r := range results {
				if r != sources[i].Path {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 500)),
		gen.IntRange(1, 8),
	))

	properties.TestingRun(t)
}

func TestReadAll_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	_, err := ReadAll(context.Background(), sourcesN(20), 3,
		func(ctx context.Context, src Source) (int, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return src.Ordinal, nil
		}, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))
}

func TestReadAll_FailFastReleasesResults(t *testing.T) {
	boom := errors.New("truncated stream")
	var released int32
	var produced int32

	results, err := ReadAll(context.Background(), sourcesN(10), 4,
		func(ctx context.Context, src Source) (int, error) {
			if src.Ordinal == 5 {
				return 0, boom
			}
			if src.Ordinal > 5 {
				// Later reads observe cancellation
				select {
				case <-ctx.Done():
					return 0, ctx.Err()
				case <-time.After(50 * time.Millisecond):
				}
			}
			atomic.AddInt32(&produced, 1)
			return src.Ordinal, nil
		},
		func(int) { atomic.AddInt32(&released, 1) })

	require.ErrorIs(t, err, boom)
	assert.Nil(t, results)
	assert.Equal(t, atomic.LoadInt32(&produced), atomic.LoadInt32(&released),
		"every produced result must be released on failure")
}

func TestReadAll_Empty(t *testing.T) {
	results, err := ReadAll(context.Background(), nil, 4,
		func(ctx context.Context, src Source) (int, error) { return 0, nil }, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestReadAll_CallerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadAll(ctx, sourcesN(3), 1,
		func(ctx context.Context, src Source) (int, error) { return 1, nil }, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
