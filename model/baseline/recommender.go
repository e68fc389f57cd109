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

package baseline

import (
	"context"

	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
)

// Recommender trains bias models for the baseline family.
type Recommender struct{}

func (Recommender) Train(ctx context.Context, train *dataset.Dataset, params model.Params) (model.Predictor, error) {
	p, ok := params.(model.BaselineParams)
	if !ok {
		return nil, errors.NotSupportedf("%v params for baseline", params.Method())
	}
	m, err := Fit(ctx, train, p)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return Predictor{Model: m}, nil
}

// Predictor adapts a fitted model to model.Predictor. Known ratings are ignored since biases are
// fixed after training.
type Predictor struct {
	*Model
}

func (p Predictor) Predict(ctx context.Context, _ []dataset.Rating, targets []dataset.Rating) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return p.PredictPairs(targets), nil
}
