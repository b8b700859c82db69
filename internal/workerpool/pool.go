// Package workerpool runs independent tasks on a bounded number of goroutines
// and collects one Result per task.
//
// A failing task never cancels its siblings: the error is recorded in its
// Result and the batch keeps going until every task has run.
package workerpool

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of a single task
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// OK reports whether the task succeeded
func (r Result[R]) OK() bool {
	return r.Err == nil
}

// DefaultWorkers returns the number of workers used when none is configured
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Run applies fn to every input using at most workers goroutines and blocks
// until all of them are done. Results are indexed like inputs.
//
// workers <= 0 selects DefaultWorkers. With workers == 1 the tasks run
// sequentially on the calling goroutine.
func Run[T, R any](ctx context.Context, workers int, inputs []T, fn func(ctx context.Context, in T) (R, error)) []Result[R] {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	results := make([]Result[R], len(inputs))

	if workers == 1 {
		for i, in := range inputs {
			results[i] = call(ctx, i, in, fn)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, in := range inputs {
		g.Go(func() error {
			// each task owns results[i]
			results[i] = call(ctx, i, in, fn)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func call[T, R any](ctx context.Context, i int, in T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	res.Index = i
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	defer func() {
		if p := recover(); p != nil {
			res.Err = errors.Errorf("task panicked: %v", p)
		}
	}()

	res.Value, res.Err = fn(ctx, in)
	return res
}

// Succeeded returns the values of all successful results in input order
func Succeeded[R any](results []Result[R]) []R {
	values := make([]R, 0, len(results))
	for _, r := range results {
		if r.OK() {
			values = append(values, r.Value)
		}
	}
	return values
}

// Failed returns the failed results in input order
func Failed[R any](results []Result[R]) []Result[R] {
	var failed []Result[R]
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
