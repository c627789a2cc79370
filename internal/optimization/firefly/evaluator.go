package firefly

import (
	"sync"
)

// task is one unit of per-firefly work scheduled on the pool
type task struct {
	idx     int
	run     func(idx int) error
	results chan<- taskResult
}

type taskResult struct {
	idx int
	err error
}

// evaluator is a fixed-size worker pool. One pool is started per
// optimization run and reused for the seeding evaluations and for every
// generation of that run.
type evaluator struct {
	tasks chan task
	wg    sync.WaitGroup
}

// newEvaluator starts workers goroutines ready to accept tasks
func newEvaluator(workers int) *evaluator {
	e := &evaluator{
		tasks: make(chan task),
	}
	e.wg.Add(workers)
	for w := 0; w < workers; w++ {
		go e.worker()
	}
	return e
}

func (e *evaluator) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		t.results <- taskResult{idx: t.idx, err: t.run(t.idx)}
	}
}

// mapN runs fn for every index in [0, n) across the pool and waits for all
// of them to finish: a full barrier. If any invocation fails the first
// error is returned, after the barrier.
func (e *evaluator) mapN(n int, fn func(idx int) error) error {
	results := make(chan taskResult, n)
	for i := 0; i < n; i++ {
		e.tasks <- task{idx: i, run: fn, results: results}
	}

	var first error
	for i := 0; i < n; i++ {
		if res := <-results; res.err != nil && first == nil {
			first = res.err
		}
	}
	return first
}

// close shuts the workers down once in-flight tasks have drained
func (e *evaluator) close() {
	close(e.tasks)
	e.wg.Wait()
}
