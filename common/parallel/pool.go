// Copyright 2024 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parallel

import (
	"context"
	"runtime"
	"sync"

	"github.com/gorse-io/gridsearch/base"
	"github.com/juju/errors"
	"go.uber.org/atomic"
)

// ErrPoolClosed is returned when a job is submitted to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

type Pool interface {
	Run(runner func())
	Wait()
}

type SequentialPool struct{}

func (p *SequentialPool) Run(runner func()) {
	runner()
}

func (p *SequentialPool) Wait() {}

// DefaultWorkers leaves one core to the caller.
func DefaultWorkers() int {
	return max(runtime.NumCPU()-1, 1)
}

// WorkerPool runs submitted jobs on a fixed number of goroutines. It lives until Close is called.
type WorkerPool struct {
	size    int
	jobs    chan func()
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup
	pending sync.WaitGroup
	running *atomic.Int64
}

// NewWorkerPool starts a pool with size workers. A non-positive size means DefaultWorkers.
func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = DefaultWorkers()
	}
	p := &WorkerPool{
		size:    size,
		jobs:    make(chan func()),
		running: atomic.NewInt64(0),
	}
	for i := 0; i < size; i++ {
		p.workers.Go(func() {
			for job := range p.jobs {
				p.execute(job)
			}
		})
	}
	return p
}

func (p *WorkerPool) execute(job func()) {
	defer p.pending.Done()
	defer base.CheckPanic()
	p.running.Inc()
	defer p.running.Dec()
	job()
}

// Size returns the number of workers.
func (p *WorkerPool) Size() int {
	return p.size
}

// Running returns the number of jobs being executed.
func (p *WorkerPool) Running() int {
	return int(p.running.Load())
}

// Submit blocks until a worker accepts the job or ctx is done.
func (p *WorkerPool) Submit(ctx context.Context, job func()) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolClosed
	}
	p.pending.Add(1)
	select {
	case p.jobs <- job:
		return nil
	case <-ctx.Done():
		p.pending.Done()
		return errors.Trace(ctx.Err())
	}
}

// Run implements Pool. Jobs submitted after Close run on the calling goroutine.
func (p *WorkerPool) Run(runner func()) {
	if err := p.Submit(context.Background(), runner); err != nil {
		runner()
	}
}

// Wait blocks until every accepted job has finished.
func (p *WorkerPool) Wait() {
	p.pending.Wait()
}

// Close stops accepting jobs and waits for the workers to exit. It is safe to call Close more than once.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.workers.Wait()
}
