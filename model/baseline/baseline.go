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

// Package baseline estimates per-user and per-item rating biases by alternating regularized least
// squares. A rating is modeled as
//
//	r(u, i) = μ + b(u) + b(i)
//
// where μ is the global mean. Each pass first refits every user bias given the item biases, then every
// item bias given the just updated user biases:
//
//	b(u) = Σ (r - μ - b(i)) / (n(u) + λu)
//	b(i) = Σ (r - μ - b(u)) / (n(i) + λi)
package baseline

import (
	"context"
	"math"

	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// DefaultParams returns the default regularization and stopping rule.
func DefaultParams() model.BaselineParams {
	return model.BaselineParams{
		LambdaUser: 5,
		LambdaItem: 5,
		MaxIter:    100,
		Tolerance:  1e-6,
	}
}

// Model is a fitted bias model. It is not modified after Fit returns.
type Model struct {
	GlobalMean    float64
	UserBias      map[string]float64
	ItemBias      map[string]float64
	LambdaUser    float64
	LambdaItem    float64
	IterationsRun int
	Converged     bool
	Scale         dataset.Scale
}

// Fit estimates biases on train. It stops when the RMS change of both bias vectors in a pass falls below
// the tolerance, or after MaxIter passes.
func Fit(ctx context.Context, train *dataset.Dataset, params model.BaselineParams) (*Model, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if train == nil || train.Count() == 0 {
		return nil, errors.NotValidf("empty training set")
	}
	mean := train.Mean()
	userBias := make([]float64, train.CountUsers())
	itemBias := make([]float64, train.CountItems())
	prevUser := make([]float64, len(userBias))
	prevItem := make([]float64, len(itemBias))
	m := &Model{
		GlobalMean: mean,
		LambdaUser: params.LambdaUser,
		LambdaItem: params.LambdaItem,
		Scale:      train.Scale(),
	}
	for iter := 1; iter <= params.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		copy(prevUser, userBias)
		copy(prevItem, itemBias)
		for u := range userBias {
			positions := train.UserRatings(int32(u))
			sum := 0.0
			for _, p := range positions {
				_, i, r := train.Get(int(p))
				sum += r - mean - itemBias[i]
			}
			userBias[u] = sum / (float64(len(positions)) + params.LambdaUser)
		}
		for i := range itemBias {
			positions := train.ItemRatings(int32(i))
			sum := 0.0
			for _, p := range positions {
				u, _, r := train.Get(int(p))
				sum += r - mean - userBias[u]
			}
			itemBias[i] = sum / (float64(len(positions)) + params.LambdaItem)
		}
		m.IterationsRun = iter
		userDelta, itemDelta := rmsChange(prevUser, userBias), rmsChange(prevItem, itemBias)
		log.Logger().Debug("fit baseline",
			zap.Int("iteration", iter),
			zap.Float64("user_delta", userDelta),
			zap.Float64("item_delta", itemDelta))
		if userDelta < params.Tolerance && itemDelta < params.Tolerance {
			m.Converged = true
			break
		}
	}
	m.UserBias = make(map[string]float64, len(userBias))
	for u, id := range train.GetUserDict().Strings() {
		m.UserBias[id] = userBias[u]
	}
	m.ItemBias = make(map[string]float64, len(itemBias))
	for i, id := range train.GetItemDict().Strings() {
		m.ItemBias[id] = itemBias[i]
	}
	return m, nil
}

func rmsChange(prev, next []float64) float64 {
	if len(next) == 0 {
		return 0
	}
	sum := 0.0
	for i := range next {
		d := next[i] - prev[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(next)))
}

// Predict estimates the rating of a (user, item) pair. An unseen user or item contributes no bias. The
// estimate is clamped to the rating scale.
func (m *Model) Predict(userId, itemId string) float64 {
	return m.Scale.Clamp(m.GlobalMean + m.UserBias[userId] + m.ItemBias[itemId])
}

// PredictPairs estimates the ratings of several pairs. The rating field of pairs is ignored.
func (m *Model) PredictPairs(pairs []dataset.Rating) []float64 {
	predictions := make([]float64, len(pairs))
	for i, pair := range pairs {
		predictions[i] = m.Predict(pair.UserId, pair.ItemId)
	}
	return predictions
}

// Offset returns μ plus the bias of the user (row) or of the item (column).
func (m *Model) Offset(axis model.Axis, userId, itemId string) float64 {
	if axis == model.Column {
		return m.GlobalMean + m.ItemBias[itemId]
	}
	return m.GlobalMean + m.UserBias[userId]
}
