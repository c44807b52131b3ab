package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// BlockRange is an inclusive block span.
type BlockRange struct {
	From uint64
	To   uint64
}

// SplitRange slices [from, to] into chunks of at most chunkSize blocks.
func SplitRange(from, to, chunkSize uint64) []BlockRange {
	if to < from {
		return nil
	}
	if chunkSize == 0 {
		return []BlockRange{{From: from, To: to}}
	}

	var chunks []BlockRange
	for start := from; start <= to; start += chunkSize {
		end := start + chunkSize - 1
		if end > to {
			end = to
		}
		chunks = append(chunks, BlockRange{From: start, To: end})
	}
	return chunks
}

// RangeFunc scans one inclusive block range.
type RangeFunc[T any] func(ctx context.Context, from, to uint64) ([]T, error)

type rangeJob[T any] struct {
	chunk BlockRange
	fn    RangeFunc[T]
}

type rangeResult[T any] struct {
	chunk BlockRange
	items []T
	err   error
}

func (j *rangeJob[T]) Execute(ctx context.Context) Result {
	items, err := j.fn(ctx, j.chunk.From, j.chunk.To)
	if err != nil {
		err = fmt.Errorf("blocks %d-%d: %w", j.chunk.From, j.chunk.To, err)
	}
	return &rangeResult[T]{chunk: j.chunk, items: items, err: err}
}

func (r *rangeResult[T]) GetError() error { return r.err }

// ScanChunks fans a block range out over the pool in fixed-size chunks
// and merges the per-chunk results back into block order. Chunk failures
// are joined into a single error; partial results are not returned.
func ScanChunks[T any](ctx context.Context, from, to, chunkSize uint64, workers int, fn RangeFunc[T]) ([]T, error) {
	if to < from {
		return nil, fmt.Errorf("invalid range: from %d > to %d", from, to)
	}

	chunks := SplitRange(from, to, chunkSize)
	if len(chunks) == 1 {
		return fn(ctx, chunks[0].From, chunks[0].To)
	}

	pool := NewPool(workers)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, chunk := range chunks {
		pool.Submit(&rangeJob[T]{chunk: chunk, fn: fn})
	}
	results := pool.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	typed := make([]*rangeResult[T], 0, len(results))
	var errs []error
	for _, r := range results {
		res := r.(*rangeResult[T])
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}
		typed = append(typed, res)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(typed, func(i, j int) bool {
		return typed[i].chunk.From < typed[j].chunk.From
	})

	var merged []T
	for _, res := range typed {
		merged = append(merged, res.items...)
	}
	return merged, nil
}
