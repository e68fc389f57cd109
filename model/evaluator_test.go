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
	"testing"

	"github.com/gorse-io/gridsearch/dataset"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

const evalEpsilon = 1e-9

func TestEvaluate(t *testing.T) {
	truth := []dataset.Rating{{"u1", "i1", 4}, {"u1", "i2", 2}, {"u2", "i1", 5}, {"u2", "i2", 1}}
	score, err := Evaluate([]float64{4.5, 1.5, 4.5, 1.5}, truth)
	assert.NoError(t, err)
	assert.InDelta(t, 0.5, score.RMSE, evalEpsilon)
	assert.InDelta(t, 0.5, score.MAE, evalEpsilon)

	score, err = Evaluate([]float64{4, 2, 5, 3}, truth)
	assert.NoError(t, err)
	assert.InDelta(t, 1, score.RMSE, evalEpsilon)
	assert.InDelta(t, 0.5, score.MAE, evalEpsilon)
}

func TestEvaluate_Invalid(t *testing.T) {
	_, err := Evaluate(nil, nil)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Evaluate([]float64{1}, []dataset.Rating{{"u1", "i1", 4}, {"u1", "i2", 2}})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Evaluate([]float64{math.NaN()}, []dataset.Rating{{"u1", "i1", 4}})
	assert.Error(t, err)
}
