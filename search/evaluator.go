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
	"math"
	"time"

	"github.com/gorse-io/gridsearch/base"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
)

// Evaluator trains one configuration and scores it on held-out ratings.
type Evaluator struct {
	Recommender model.Recommender
	// Timeout bounds a single configuration. Zero means no limit.
	Timeout time.Duration
}

type outcome struct {
	score    model.Score
	fitTime  time.Duration
	evalTime time.Duration
	err      error
}

// Evaluate never fails: errors, panics and timeouts of the configuration are reported through the Error
// field of the row, whose metrics are then NaN.
func (e *Evaluator) Evaluate(ctx context.Context, params model.Params, train *dataset.Dataset, eval dataset.EvalSplit) ResultRow {
	row := ResultRow{
		Method:  params.Method(),
		Params:  model.String(params.Serialize()),
		Key:     model.Key(params),
		RMSE:    math.NaN(),
		MAE:     math.NaN(),
		Columns: params.Columns(),
	}
	start := time.Now()
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}
	// a hung configuration keeps its goroutine but no longer holds the caller
	result := make(chan outcome, 1)
	go func() {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o.err = base.RecoverError(r)
			}
			result <- o
		}()
		o = e.evaluate(ctx, params, train, eval)
	}()
	var o outcome
	select {
	case o = <-result:
	case <-ctx.Done():
		o.err = ctx.Err()
	}
	if errors.Is(o.err, context.DeadlineExceeded) && e.Timeout > 0 {
		o.err = errors.NewTimeout(o.err, "configuration exceeded "+e.Timeout.String())
	}
	row.FitTime, row.EvalTime = o.fitTime, o.evalTime
	EvaluationSeconds.WithLabelValues(string(row.Method)).Observe(time.Since(start).Seconds())
	if o.err != nil {
		status := StatusFailure
		if errors.Is(o.err, errors.Timeout) {
			status = StatusTimeout
		}
		EvaluationsTotal.WithLabelValues(string(row.Method), status).Inc()
		row.Error = o.err.Error()
		return row
	}
	EvaluationsTotal.WithLabelValues(string(row.Method), StatusSuccess).Inc()
	row.RMSE, row.MAE = o.score.RMSE, o.score.MAE
	return row
}

func (e *Evaluator) evaluate(ctx context.Context, params model.Params, train *dataset.Dataset, eval dataset.EvalSplit) outcome {
	var o outcome
	start := time.Now()
	predictor, err := e.Recommender.Train(ctx, train, params)
	o.fitTime = time.Since(start)
	if err != nil {
		o.err = errors.Annotate(err, "failed to train")
		return o
	}
	start = time.Now()
	predictions, err := predictor.Predict(ctx, eval.Known, eval.Unknown)
	if err != nil {
		o.evalTime = time.Since(start)
		o.err = errors.Annotate(err, "failed to predict")
		return o
	}
	o.score, o.err = model.Evaluate(predictions, eval.Unknown)
	o.evalTime = time.Since(start)
	return o
}
