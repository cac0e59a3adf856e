package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/stackvm/vm"
)

// ErrPoolStopped is returned by Do once Stop has been called.
var ErrPoolStopped = errors.New("worker pool stopped")

// job is a unit of work to be executed on a worker goroutine.
type job struct {
	fn   func(*vm.Interpreter) any
	done chan jobResult
}

// jobResult holds the return value from a job.
type jobResult struct {
	value any
	err   error
}

// WorkerPool runs interpreter jobs on a fixed set of goroutines. Each
// goroutine owns one Interpreter, which is not safe for concurrent use, and
// Execute resets it on every call so no state leaks between requests.
type WorkerPool struct {
	jobs chan job
	quit chan struct{}
}

// NewWorkerPool starts size worker goroutines. Options are applied to every
// interpreter.
func NewWorkerPool(size int, opts ...vm.Option) *WorkerPool {
	if size < 1 {
		size = 1
	}
	p := &WorkerPool{
		jobs: make(chan job, 64),
		quit: make(chan struct{}),
	}
	for i := 0; i < size; i++ {
		go p.loop(vm.New(opts...))
	}
	return p
}

// loop processes jobs sequentially on one goroutine.
func (p *WorkerPool) loop(in *vm.Interpreter) {
	for {
		select {
		case j := <-p.jobs:
			j.done <- run(in, j.fn)
		case <-p.quit:
			return
		}
	}
}

// run calls fn, recovering from panics.
func run(in *vm.Interpreter, fn func(*vm.Interpreter) any) (result jobResult) {
	defer func() {
		if r := recover(); r != nil {
			result.err = fmt.Errorf("%v", r)
		}
	}()
	result.value = fn(in)
	return result
}

// Do submits fn and blocks until it completes or ctx is done. A job already
// picked up by a worker runs to completion even if ctx is cancelled.
func (p *WorkerPool) Do(ctx context.Context, fn func(*vm.Interpreter) any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	select {
	case <-p.quit:
		return nil, ErrPoolStopped
	default:
	}

	j := job{fn: fn, done: make(chan jobResult, 1)}
	select {
	case p.jobs <- j:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, ErrPoolStopped
	}

	// A queued job is never picked up once the pool stops.
	select {
	case r := <-j.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.quit:
		return nil, ErrPoolStopped
	}
}

// Stop shuts down the worker goroutines.
func (p *WorkerPool) Stop() {
	close(p.quit)
}
