// Copyright 2020 gorse Project Authors
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

package model

import (
	"context"

	"github.com/gorse-io/gridsearch/dataset"
)

// Recommender trains rating models of one or more families.
type Recommender interface {
	Train(ctx context.Context, train *dataset.Dataset, params Params) (Predictor, error)
}

// Predictor estimates ratings. known holds ratings revealed for evaluation users, targets holds the
// (user, item) pairs to estimate; the rating field of targets is ignored. The result is aligned with targets.
type Predictor interface {
	Predict(ctx context.Context, known []dataset.Rating, targets []dataset.Rating) ([]float64, error)
}
