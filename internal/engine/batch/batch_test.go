package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_ProcessConcurrent(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f"}

	t.Run("BoundsConcurrency", func(t *testing.T) {
		p := NewProcessorWithDefaults[string]()
		var inFlight, peak int32
		var seen sync.Map

		err := p.ProcessConcurrent(context.Background(), items, func(_ context.Context, batch []string, _ int) error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			seen.Store(batch[0], true)
			return nil
		}, 2)
		require.NoError(t, err)
		assert.LessOrEqual(t, peak, int32(2))
		for _, it := range items {
			_, ok := seen.Load(it)
			assert.True(t, ok, it)
		}
	})

	t.Run("FailuresDoNotStopOthers", func(t *testing.T) {
		boom := errors.New("boom")
		var last ProgressSnapshot
		p := NewProcessorWithDefaults[string]().WithProgressCallback(func(s ProgressSnapshot) {
			last = s
		})

		var calls int32
		err := p.ProcessConcurrent(context.Background(), items, func(_ context.Context, batch []string, _ int) error {
			atomic.AddInt32(&calls, 1)
			if batch[0] == "b" || batch[0] == "e" {
				return boom
			}
			return nil
		}, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int32(len(items)), calls)
		assert.Equal(t, 4, last.ProcessedItems)
		assert.Equal(t, 2, last.FailedItems)
		assert.Equal(t, len(items), last.CompletedBatches)
		assert.InDelta(t, 100.0, last.PercentComplete, 0.001)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		p := NewProcessorWithDefaults[string]()
		err := p.ProcessConcurrent(ctx, items, func(context.Context, []string, int) error {
			return nil
		}, 1)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestProgress(t *testing.T) {
	p := NewProgress(10, 5, 2)
	assert.False(t, p.IsComplete())

	p.AddProcessed(2)
	p.AddFailed(2)
	snap := p.Snapshot()
	assert.Equal(t, 2, snap.ProcessedItems)
	assert.Equal(t, 2, snap.FailedItems)
	assert.Equal(t, 2, snap.CompletedBatches)
	assert.InDelta(t, 40.0, snap.PercentComplete, 0.001)

	p.AddProcessed(6)
	assert.True(t, p.IsComplete())
}

func TestProcessor_CalculateBatches(t *testing.T) {
	p := &Processor[int]{batchSize: 10}
	batches := p.CalculateBatches(25)
	require.Len(t, batches, 3)
	assert.Equal(t, [2]int{0, 10}, batches[0])
	assert.Equal(t, [2]int{10, 20}, batches[1])
	assert.Equal(t, [2]int{20, 25}, batches[2])
	assert.Empty(t, p.CalculateBatches(0))

	assert.Len(t, NewProcessorWithDefaults[int]().CalculateBatches(4), 4, "one item per batch by default")
}
