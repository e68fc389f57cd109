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
	"math"

	"github.com/gorse-io/gridsearch/dataset"
	"github.com/juju/errors"
)

// Score holds error metrics of a model on held-out ratings. Lower is better.
type Score struct {
	RMSE float64
	MAE  float64
}

// Evaluate scores predictions against the ratings they estimate.
func Evaluate(predictions []float64, truth []dataset.Rating) (Score, error) {
	if len(truth) == 0 {
		return Score{}, errors.NotValidf("empty ground truth")
	}
	if len(predictions) != len(truth) {
		return Score{}, errors.NotValidf("%d predictions for %d ratings", len(predictions), len(truth))
	}
	var sumSquared, sumAbsolute float64
	for i, prediction := range predictions {
		if math.IsNaN(prediction) || math.IsInf(prediction, 0) {
			return Score{}, errors.Errorf("non-finite prediction for (%s, %s)", truth[i].UserId, truth[i].ItemId)
		}
		diff := prediction - truth[i].Rating
		sumSquared += diff * diff
		sumAbsolute += math.Abs(diff)
	}
	n := float64(len(truth))
	return Score{
		RMSE: math.Sqrt(sumSquared / n),
		MAE:  sumAbsolute / n,
	}, nil
}
