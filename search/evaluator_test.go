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
	"testing"
	"time"

	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/model/baseline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationData(t *testing.T) (*dataset.Dataset, dataset.EvalSplit) {
	train, err := dataset.NewDataset([]dataset.Rating{
		{"u1", "i1", 4}, {"u1", "i2", 2},
		{"u2", "i1", 5}, {"u2", "i2", 3},
	}, dataset.Scale{Min: 1, Max: 5})
	require.NoError(t, err)
	return train, dataset.EvalSplit{
		Known:   []dataset.Rating{{"u1", "i1", 4}},
		Unknown: []dataset.Rating{{"u1", "i2", 2}, {"u2", "i1", 5}},
	}
}

type recommenderFunc func(ctx context.Context, train *dataset.Dataset, params model.Params) (model.Predictor, error)

func (f recommenderFunc) Train(ctx context.Context, train *dataset.Dataset, params model.Params) (model.Predictor, error) {
	return f(ctx, train, params)
}

type predictorFunc func(ctx context.Context, known, targets []dataset.Rating) ([]float64, error)

func (f predictorFunc) Predict(ctx context.Context, known, targets []dataset.Rating) ([]float64, error) {
	return f(ctx, known, targets)
}

func TestEvaluator(t *testing.T) {
	train, eval := evaluationData(t)
	params := model.BaselineParams{LambdaUser: 0, LambdaItem: 0, MaxIter: 100, Tolerance: 1e-9}
	evaluator := &Evaluator{Recommender: baseline.Recommender{}}
	row := evaluator.Evaluate(context.Background(), params, train, eval)
	assert.False(t, row.Failed())
	assert.Empty(t, row.Error)
	assert.Equal(t, model.Baseline, row.Method)
	assert.Equal(t, model.Key(params), row.Key)
	assert.Equal(t, "lambda_user=0, lambda_item=0, max_iter=100, tolerance=0.000000001", row.Params)
	assert.Equal(t, params.Columns(), row.Columns)
	// additive ratings are reproduced
	assert.InDelta(t, 0, row.RMSE, 1e-6)
	assert.InDelta(t, 0, row.MAE, 1e-6)
}

func TestEvaluator_Failures(t *testing.T) {
	train, eval := evaluationData(t)
	params := model.BaselineParams{MaxIter: 1}
	for name, recommender := range map[string]model.Recommender{
		"train error": recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			return nil, assert.AnError
		}),
		"train panic": recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			panic("boom")
		}),
		"predict panic": recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			return predictorFunc(func(context.Context, []dataset.Rating, []dataset.Rating) ([]float64, error) {
				var predictions []float64
				return predictions[:1], nil
			}), nil
		}),
		"length mismatch": recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			return predictorFunc(func(context.Context, []dataset.Rating, []dataset.Rating) ([]float64, error) {
				return []float64{3}, nil
			}), nil
		}),
		"not a number": recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			return predictorFunc(func(context.Context, []dataset.Rating, []dataset.Rating) ([]float64, error) {
				return []float64{3, math.NaN()}, nil
			}), nil
		}),
	} {
		t.Run(name, func(t *testing.T) {
			row := (&Evaluator{Recommender: recommender}).Evaluate(context.Background(), params, train, eval)
			assert.True(t, row.Failed())
			assert.NotEmpty(t, row.Error)
			assert.True(t, math.IsNaN(row.RMSE))
			assert.True(t, math.IsNaN(row.MAE))
			assert.Equal(t, params.Columns(), row.Columns)
		})
	}
}

func TestEvaluator_Timeout(t *testing.T) {
	train, eval := evaluationData(t)
	release := make(chan struct{})
	defer close(release)
	evaluator := &Evaluator{
		Recommender: recommenderFunc(func(context.Context, *dataset.Dataset, model.Params) (model.Predictor, error) {
			// ignores cancellation
			<-release
			return nil, nil
		}),
		Timeout: 50 * time.Millisecond,
	}
	start := time.Now()
	row := evaluator.Evaluate(context.Background(), model.BaselineParams{MaxIter: 1}, train, eval)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, row.Failed())
	assert.Contains(t, row.Error, "exceeded 50ms")
}
