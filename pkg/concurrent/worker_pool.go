package concurrent

import (
	"context"
	"sync"
)

type JobFunc[T any, G any] func(ctx context.Context, job T) (G, error)

type Job[T any] struct {
	Index int
	Input T
}

type Result[G any] struct {
	Index int
	Value G
	Err   error
}

// WorkerPool runs JobFunc over queued jobs with a fixed number of goroutines.
// Results arrive in completion order; Job.Index ties them back to the input.
type WorkerPool[T any, G any] struct {
	numWorkers int
	jobQueue   chan Job[T]
	results    chan Result[G]
	wg         sync.WaitGroup
}

func NewWorkerPool[T any, G any](numWorkers, jobQueueSize int) *WorkerPool[T, G] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkerPool[T, G]{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job[T], jobQueueSize),
		results:    make(chan Result[G], jobQueueSize),
	}
}

func (wp *WorkerPool[T, G]) worker(ctx context.Context, jobFunc JobFunc[T, G]) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		if err := ctx.Err(); err != nil {
			wp.results <- Result[G]{Index: job.Index, Err: err}
			continue
		}
		val, err := jobFunc(ctx, job.Input)
		wp.results <- Result[G]{Index: job.Index, Value: val, Err: err}
	}
}

func (wp *WorkerPool[T, G]) Start(ctx context.Context, jobFunc JobFunc[T, G]) {
	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, jobFunc)
	}
}

// Wait blocks until every worker exited, then closes the results channel.
// Call Close first.
func (wp *WorkerPool[T, G]) Wait() {
	wp.wg.Wait()
	close(wp.results)
}

func (wp *WorkerPool[T, G]) AddJob(index int, input T) {
	wp.jobQueue <- Job[T]{Index: index, Input: input}
}

func (wp *WorkerPool[T, G]) CollectResults() <-chan Result[G] {
	return wp.results
}

func (wp *WorkerPool[T, G]) Close() {
	close(wp.jobQueue)
}

// Map applies jobFunc to every input with at most numWorkers running at once
// and returns the results in input order.
func Map[T any, G any](ctx context.Context, numWorkers int, inputs []T, jobFunc JobFunc[T, G]) []Result[G] {
	wp := NewWorkerPool[T, G](numWorkers, len(inputs))
	wp.Start(ctx, jobFunc)
	for i, in := range inputs {
		wp.AddJob(i, in)
	}
	wp.Close()
	wp.Wait()

	out := make([]Result[G], len(inputs))
	for res := range wp.CollectResults() {
		out[res.Index] = res
	}
	return out
}
