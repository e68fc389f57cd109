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
	"context"
	"time"

	"github.com/gorse-io/gridsearch/base/progress"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/model/baseline"
	"github.com/gorse-io/gridsearch/model/knn"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Engine runs grid searches within an execution context.
type Engine struct {
	ec           *ExecutionContext
	recommenders map[model.Method]model.Recommender
	timeout      time.Duration
}

type Option func(*Engine)

// WithRecommender replaces the recommender training a method.
func WithRecommender(method model.Method, recommender model.Recommender) Option {
	return func(e *Engine) {
		e.recommenders[method] = recommender
	}
}

// WithTimeout bounds every configuration. Configurations running longer become failed rows.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) {
		e.timeout = timeout
	}
}

func NewEngine(ec *ExecutionContext, opts ...Option) *Engine {
	e := &Engine{
		ec: ec,
		recommenders: map[model.Method]model.Recommender{
			model.UserBased: knn.Recommender{},
			model.ItemBased: knn.Recommender{},
			model.Baseline:  baseline.Recommender{},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) recommender(method model.Method) (model.Recommender, error) {
	recommender, ok := e.recommenders[method]
	if !ok {
		return nil, errors.NotSupportedf("method %q", method)
	}
	return recommender, nil
}

// Run evaluates every configuration of the grid and returns the successful rows in grid order. With
// useCache, a table persisted for the same grid is returned without evaluating anything. The finished
// table is always persisted.
func (e *Engine) Run(ctx context.Context, train *dataset.Dataset, eval dataset.EvalSplit, method model.Method,
	specs AxisSpecs, useCache bool) (*ResultTable, error) {
	recommender, err := e.recommender(method)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if train.Count() == 0 {
		return nil, errors.NotValidf("empty training set")
	}
	if len(eval.Unknown) == 0 {
		return nil, errors.NotValidf("empty evaluation set")
	}
	configs, err := specs.Expand(method)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger := e.ec.Logger().With(zap.String("method", string(method)))
	name := CacheName(method, specs)

	if useCache {
		var table ResultTable
		found, err := e.ec.Cache.Load(ctx, name, &table)
		if err != nil {
			logger.Warn("failed to load cached results", zap.String("name", name), zap.Error(err))
		} else if found {
			CacheHitsTotal.WithLabelValues(string(method)).Inc()
			logger.Info("load cached results", zap.String("name", name), zap.Int("n_rows", table.Len()))
			return &table, nil
		}
	}

	logger.Info("start grid search",
		zap.Int("n_configs", len(configs)),
		zap.Int("n_train", train.Count()),
		zap.Int("n_known", len(eval.Known)),
		zap.Int("n_unknown", len(eval.Unknown)))
	start := time.Now()
	ctx, span := progress.Start(ctx, "GridSearch."+string(method), len(configs))
	evaluator := &Evaluator{Recommender: recommender, Timeout: e.timeout}
	type indexedRow struct {
		index int
		row   ResultRow
	}
	results := make(chan indexedRow, len(configs))
	for i, params := range configs {
		if err = e.ec.Pool.Submit(ctx, func() {
			results <- indexedRow{index: i, row: evaluator.Evaluate(ctx, params, train, eval)}
		}); err != nil {
			// drain accepted jobs before giving up
			for range i {
				<-results
			}
			span.Fail(err)
			return nil, errors.Trace(err)
		}
	}
	rows := make([]ResultRow, len(configs))
	for range configs {
		result := <-results
		rows[result.index] = result.row
		if result.row.Failed() {
			logger.Warn("configuration failed",
				zap.String("params", result.row.Params),
				zap.String("error", result.row.Error))
		} else {
			logger.Debug("configuration evaluated",
				zap.String("params", result.row.Params),
				zap.Float64("rmse", result.row.RMSE),
				zap.Float64("mae", result.row.MAE))
		}
		span.Add(1)
	}
	if err = ctx.Err(); err != nil {
		span.Fail(err)
		return nil, errors.Trace(err)
	}
	span.End()

	table := &ResultTable{
		Method: method,
		Grid:   GridKey(method, specs),
		Rows:   lo.Filter(rows, func(row ResultRow, _ int) bool { return !row.Failed() }),
	}
	if err = e.ec.Cache.Save(ctx, name, table); err != nil {
		logger.Error("failed to save results", zap.String("name", name), zap.Error(err))
	}
	fields := []zap.Field{
		zap.Int("n_configs", len(configs)),
		zap.Int("n_failed", len(configs)-table.Len()),
		zap.Duration("elapsed", time.Since(start)),
	}
	if best, ok := table.Best(); ok {
		fields = append(fields, zap.String("best", best.Params), zap.Float64("rmse", best.RMSE))
	}
	logger.Info("complete grid search", fields...)
	return table, nil
}

// find returns the configuration of a grid with the given key.
func (e *Engine) find(method model.Method, specs AxisSpecs, key string) (model.Params, error) {
	configs, err := specs.Expand(method)
	if err != nil {
		return nil, errors.Trace(err)
	}
	params, ok := lo.Find(configs, func(p model.Params) bool { return model.Key(p) == key })
	if !ok {
		return nil, errors.NotFoundf("configuration %s in grid %s", key, GridKey(method, specs))
	}
	return params, nil
}

// SaveBest refits the best configuration of a table on the training set and persists the trained model.
func (e *Engine) SaveBest(ctx context.Context, train *dataset.Dataset, table *ResultTable, specs AxisSpecs) (ResultRow, error) {
	best, ok := table.Best()
	if !ok {
		return ResultRow{}, errors.NotFoundf("successful configuration of %s", table.Method)
	}
	recommender, err := e.recommender(table.Method)
	if err != nil {
		return ResultRow{}, errors.Trace(err)
	}
	params, err := e.find(table.Method, specs, best.Key)
	if err != nil {
		return ResultRow{}, errors.Trace(err)
	}
	predictor, err := recommender.Train(ctx, train, params)
	if err != nil {
		return ResultRow{}, errors.Annotatef(err, "failed to refit %s", best.Params)
	}
	name := BestModelName(table.Method, specs)
	if err = e.ec.Cache.Save(ctx, name, predictor); err != nil {
		return ResultRow{}, errors.Trace(err)
	}
	e.ec.Logger().Info("save best model",
		zap.String("name", name),
		zap.String("params", best.Params),
		zap.Float64("rmse", best.RMSE))
	return best, nil
}

// LoadBest decodes the best model of a grid into ptr, which must point to the concrete predictor type
// of the method, e.g. *knn.Model or *baseline.Predictor.
func (e *Engine) LoadBest(ctx context.Context, method model.Method, specs AxisSpecs, ptr any) (bool, error) {
	found, err := e.ec.Cache.Load(ctx, BestModelName(method, specs), ptr)
	return found, errors.Trace(err)
}
