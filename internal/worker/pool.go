package worker

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Task pairs one input with its outcome.
type Task[T any, R any] struct {
	Input  T
	Result R
	Err    error
	// Skipped is set when the context was cancelled before the input was processed.
	Skipped bool
}

// ProcessFunc processes a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs a ProcessFunc over a slice of inputs with bounded concurrency.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
	onDone  func()
}

// NewPool creates a pool with the given number of workers (at least one).
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{
		workers: workers,
		process: fn,
	}
}

// OnDone registers a callback invoked after each processed input. It may be called
// from several goroutines at once.
func (p *Pool[T, R]) OnDone(fn func()) *Pool[T, R] {
	p.onDone = fn
	return p
}

// Execute processes all inputs and returns one Task per input, in input order.
// Inputs not reached before ctx is cancelled are marked Skipped.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Task[T, R] {
	results := make([]Task[T, R], len(inputs))
	for i := range inputs {
		results[i] = Task[T, R]{Input: inputs[i], Skipped: true}
	}

	inputCh := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range inputCh {
				result, err := p.process(ctx, inputs[idx])
				results[idx] = Task[T, R]{
					Input:  inputs[idx],
					Result: result,
					Err:    err,
				}
				if err != nil {
					log.Debug().Err(err).Int("worker", workerID).Int("index", idx).Msg("Task failed")
				}
				if p.onDone != nil {
					p.onDone()
				}
			}
		}(w)
	}

feed:
	for i := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case inputCh <- i:
		}
	}
	close(inputCh)

	wg.Wait()
	return results
}
