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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSequentialPool(t *testing.T) {
	pool := &SequentialPool{}
	count := 0
	for i := 0; i < 100; i++ {
		pool.Run(func() {
			count++
		})
	}
	pool.Wait()
	assert.Equal(t, 100, count)
}

func TestWorkerPool(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()
	assert.Equal(t, 4, pool.Size())
	var count atomic.Int64
	for i := 0; i < 1000; i++ {
		err := pool.Submit(context.Background(), func() {
			count.Add(1)
		})
		assert.NoError(t, err)
	}
	pool.Wait()
	assert.Equal(t, int64(1000), count.Load())
	assert.Zero(t, pool.Running())
}

func TestWorkerPool_Bounded(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()
	var running, peak atomic.Int64
	for i := 0; i < 20; i++ {
		pool.Run(func() {
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		})
	}
	pool.Wait()
	assert.LessOrEqual(t, peak.Load(), int64(2))
}

func TestWorkerPool_Panic(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	var count atomic.Int64
	pool.Run(func() {
		panic("foo")
	})
	pool.Run(func() {
		count.Add(1)
	})
	pool.Wait()
	assert.Equal(t, int64(1), count.Load())
}

func TestWorkerPool_Close(t *testing.T) {
	pool := NewWorkerPool(0)
	assert.Equal(t, DefaultWorkers(), pool.Size())
	pool.Close()
	pool.Close()
	err := pool.Submit(context.Background(), func() {})
	assert.ErrorIs(t, err, ErrPoolClosed)
	// runs inline after close
	executed := false
	pool.Run(func() {
		executed = true
	})
	assert.True(t, executed)
}

func TestWorkerPool_SubmitCancel(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()
	block := make(chan struct{})
	pool.Run(func() {
		<-block
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := pool.Submit(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(block)
	pool.Wait()
}
