package batch

import (
	"sync"
	"time"
)

// percentMultiplier converts a ratio to a percentage.
const percentMultiplier = 100

// Progress tracks a batch run. It is safe for concurrent use.
type Progress struct {
	mu sync.RWMutex

	totalItems       int
	processedItems   int
	failedItems      int
	totalBatches     int
	completedBatches int
	batchSize        int
	startTime        time.Time
	lastUpdateTime   time.Time
}

// NewProgress creates a progress tracker.
func NewProgress(totalItems, totalBatches, batchSize int) *Progress {
	now := time.Now()
	return &Progress{
		totalItems:     totalItems,
		totalBatches:   totalBatches,
		batchSize:      batchSize,
		startTime:      now,
		lastUpdateTime: now,
	}
}

// AddProcessed records a successful batch of n items.
func (p *Progress) AddProcessed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processedItems += n
	p.completedBatches++
	p.lastUpdateTime = time.Now()
}

// AddFailed records a failed batch of n items.
func (p *Progress) AddFailed(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failedItems += n
	p.completedBatches++
	p.lastUpdateTime = time.Now()
}

// IsComplete reports whether every item has been processed or has failed.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processedItems+p.failedItems >= p.totalItems
}

// Snapshot returns a consistent copy of the current counters.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	done := p.processedItems + p.failedItems
	var pct float64
	if p.totalItems > 0 {
		pct = float64(done) / float64(p.totalItems) * percentMultiplier
	}
	return ProgressSnapshot{
		TotalItems:       p.totalItems,
		ProcessedItems:   p.processedItems,
		FailedItems:      p.failedItems,
		TotalBatches:     p.totalBatches,
		CompletedBatches: p.completedBatches,
		BatchSize:        p.batchSize,
		PercentComplete:  pct,
		Elapsed:          p.lastUpdateTime.Sub(p.startTime),
	}
}

// ProgressSnapshot is an immutable view of Progress.
type ProgressSnapshot struct {
	TotalItems       int
	ProcessedItems   int
	FailedItems      int
	TotalBatches     int
	CompletedBatches int
	BatchSize        int
	PercentComplete  float64
	Elapsed          time.Duration
}
