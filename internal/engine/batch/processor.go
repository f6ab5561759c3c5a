package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Default processing configuration.
const (
	// DefaultBatchSize is the number of items handed to each callback.
	DefaultBatchSize = 1

	// DefaultConcurrency bounds parallel callbacks when the caller passes < 1.
	DefaultConcurrency = 4
)

// Common batch processing errors.
var (
	ErrNilCallback = errors.New("batch callback cannot be nil")
	ErrEmptyItems  = errors.New("items slice cannot be empty")
)

// BatchCallback processes one batch. batchIndex is 0-based.
//
//nolint:revive // BatchCallback is the canonical name for this exported type.
type BatchCallback[T any] func(ctx context.Context, batch []T, batchIndex int) error

// ProgressCallback is invoked after each batch finishes, successfully or not.
type ProgressCallback func(snapshot ProgressSnapshot)

// Processor splits items into fixed-size batches and runs a callback over each.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback

	// mu serializes progress callbacks so observers see monotonic counts.
	mu sync.Mutex
}

// NewProcessorWithDefaults creates a processor that hands one item per callback.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets a progress callback for the processor.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// ProcessConcurrent runs up to maxConcurrency batches at once.
// A failing batch does not stop the others; all failures are joined into the
// returned error. Batches not yet started when ctx is cancelled are skipped
// and ctx.Err() is included in the result.
func (p *Processor[T]) ProcessConcurrent(
	ctx context.Context,
	items []T,
	callback BatchCallback[T],
	maxConcurrency int,
) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if callback == nil {
		return ErrNilCallback
	}
	if maxConcurrency < 1 {
		maxConcurrency = DefaultConcurrency
	}

	bounds := p.CalculateBatches(len(items))
	progress := NewProgress(len(items), len(bounds), p.batchSize)

	sem := make(chan struct{}, maxConcurrency)
	errs := make([]error, len(bounds))
	var wg sync.WaitGroup

	var cancelled error
dispatch:
	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		select {
		case <-ctx.Done():
			cancelled = ctx.Err()
			break dispatch
		case sem <- struct{}{}:
		}

		batch := items[b[0]:b[1]]
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := callback(ctx, batch, idx); err != nil {
				errs[idx] = fmt.Errorf("batch %d failed: %w", idx, err)
				progress.AddFailed(len(batch))
			} else {
				progress.AddProcessed(len(batch))
			}
			p.notify(progress)
		}(i)
	}
	wg.Wait()

	return errors.Join(append(errs, cancelled)...)
}

func (p *Processor[T]) notify(progress *Progress) {
	if p.onProgress == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onProgress(progress.Snapshot())
}

// CalculateBatches returns the [start, end) bounds of every batch.
func (p *Processor[T]) CalculateBatches(totalItems int) [][2]int {
	n := (totalItems + p.batchSize - 1) / p.batchSize
	batches := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		batches[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return batches
}
