// Copyright 2025 gorse Project Authors
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


package search

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/common/parallel"
	"github.com/gorse-io/gridsearch/storage/artifact"
	"go.uber.org/zap"
)

// ExecutionContext owns the resources of an analysis session: the worker pool evaluating
// configurations and the artifact cache. It must be closed when the session ends.
type ExecutionContext struct {
	Session string
	Pool    *parallel.WorkerPool
	Cache   *artifact.Cache

	closeOnce sync.Once
}

// NewExecutionContext starts a session with the given number of workers. A non-positive number means
// one less than the number of CPUs.
func NewExecutionContext(workers int, cache *artifact.Cache) *ExecutionContext {
	ec := &ExecutionContext{
		Session: uuid.NewString(),
		Pool:    parallel.NewWorkerPool(workers),
		Cache:   cache,
	}
	ec.Logger().Info("start session", zap.Int("workers", ec.Pool.Size()))
	return ec
}

func (ec *ExecutionContext) Logger() *zap.Logger {
	return log.SessionLogger(ec.Session)
}

// Close stops the worker pool after running jobs finish and releases the cache.
func (ec *ExecutionContext) Close() {
	ec.closeOnce.Do(func() {
		ec.Pool.Close()
		if ec.Cache != nil {
			ec.Cache.Close()
		}
		ec.Logger().Info("close session")
	})
}
