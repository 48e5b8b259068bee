package worker

import (
	"context"
)

// ProcessFunc handles one item of an ordered batch
type ProcessFunc[T, R any] func(ctx context.Context, index int, item T) (R, error)

// ItemJob processes one indexed batch item
type ItemJob[T, R any] struct {
	Index int
	Item  T
	Fn    ProcessFunc[T, R]
}

// Execute runs the process function for the item
func (j *ItemJob[T, R]) Execute(ctx context.Context) Result {
	value, err := j.Fn(ctx, j.Index, j.Item)
	return &ItemResult[R]{
		Index: j.Index,
		Value: value,
		Error: err,
	}
}

// ItemResult is the outcome of one batch item
type ItemResult[R any] struct {
	Index int
	Value R
	Error error
}

// GetError returns the error from processing the item
func (r *ItemResult[R]) GetError() error {
	return r.Error
}

// BatchProcessor processes a slice of items concurrently and reassembles
// the results in input order
type BatchProcessor[T, R any] struct {
	fn          ProcessFunc[T, R]
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor[T, R any](fn ProcessFunc[T, R], concurrency int) *BatchProcessor[T, R] {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchProcessor[T, R]{
		fn:          fn,
		concurrency: concurrency,
	}
}

// Process runs the batch. The returned slice is indexed like items; an entry
// is nil when the item was never processed because ctx was cancelled first.
func (b *BatchProcessor[T, R]) Process(ctx context.Context, items []T) []*ItemResult[R] {
	out := make([]*ItemResult[R], len(items))
	if len(items) == 0 {
		return out
	}

	pool := NewPool(ctx, b.concurrency)
	defer pool.Shutdown()
	pool.Start()

	go func() {
		defer pool.Close()
		for i, item := range items {
			if !pool.Submit(&ItemJob[T, R]{Index: i, Item: item, Fn: b.fn}) {
				return
			}
		}
	}()

	for result := range pool.Results() {
		res := result.(*ItemResult[R])
		out[res.Index] = res
	}

	return out
}
