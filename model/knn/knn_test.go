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

package knn

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-6

func trainSet(t *testing.T) *dataset.Dataset {
	data, err := dataset.NewDataset([]dataset.Rating{
		{"u1", "i1", 5}, {"u1", "i2", 3}, {"u1", "i3", 4},
		{"u2", "i1", 5}, {"u2", "i2", 3}, {"u2", "i3", 4}, {"u2", "i4", 2},
		{"u3", "i1", 1}, {"u3", "i2", 5}, {"u3", "i4", 5},
	}, dataset.Scale{Min: 1, Max: 5})
	require.NoError(t, err)
	return data
}

func userBased(neighbors int, normalization model.Normalization) model.UserBasedParams {
	return model.UserBasedParams{Similarity: model.Cosine, Neighbors: neighbors, Normalization: normalization, Axis: model.Row}
}

func predict(t *testing.T, predictor model.Predictor, known []dataset.Rating, targets ...dataset.Rating) []float64 {
	predictions, err := predictor.Predict(context.Background(), known, targets)
	require.NoError(t, err)
	require.Len(t, predictions, len(targets))
	return predictions
}

func TestUserBased(t *testing.T) {
	train := trainSet(t)
	// the nearest neighbor of u1 is its twin u2
	predictor, err := Recommender{}.Train(context.Background(), train, userBased(1, model.NormNone))
	require.NoError(t, err)
	assert.InDelta(t, 2, predict(t, predictor, nil, dataset.Rating{UserId: "u1", ItemId: "i4"})[0], epsilon)

	// mean centering on rows: u1 mean 4, u2 deviates by -1.5 on i4, u3 is anti-correlated
	predictor, err = Recommender{}.Train(context.Background(), train, userBased(10, model.NormMean))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, predict(t, predictor, nil, dataset.Rating{UserId: "u1", ItemId: "i4"})[0], epsilon)
}

func TestUserBased_KnownRatings(t *testing.T) {
	predictor, err := Recommender{}.Train(context.Background(), trainSet(t), userBased(2, model.NormNone))
	require.NoError(t, err)
	known := []dataset.Rating{{"u9", "i1", 5}, {"u9", "i2", 3}, {"u9", "i3", 4}}
	s := 20 / math.Sqrt(34*26)
	predictions := predict(t, predictor, known,
		dataset.Rating{UserId: "u9", ItemId: "i4"},
		dataset.Rating{UserId: "u9", ItemId: "i5"})
	assert.InDelta(t, (2+s*5)/(1+s), predictions[0], epsilon)
	// unknown item falls back to the profile mean
	assert.InDelta(t, 4, predictions[1], epsilon)
	// a user without history gets the global mean
	assert.InDelta(t, trainSet(t).Mean(), predict(t, predictor, nil, dataset.Rating{UserId: "u0", ItemId: "i1"})[0], epsilon)
}

func TestUserBased_Sample(t *testing.T) {
	params := userBased(10, model.NormNone)
	params.SampleSize = 1
	params.RandomState = 7
	predictor, err := Recommender{}.Train(context.Background(), trainSet(t), params)
	require.NoError(t, err)
	m := predictor.(*Model)
	assert.Len(t, m.candidates, 1)
	prediction := predict(t, predictor, nil, dataset.Rating{UserId: "u1", ItemId: "i4"})[0]
	assert.GreaterOrEqual(t, prediction, 1.0)
	assert.LessOrEqual(t, prediction, 5.0)
}

func TestItemBased(t *testing.T) {
	params := model.ItemBasedParams{Similarity: model.Cosine, K: 3, Normalization: model.NormNone, Axis: model.Column}
	predictor, err := Recommender{}.Train(context.Background(), trainSet(t), params)
	require.NoError(t, err)
	// i3 is perfectly similar to i1, i2 and i4 on co-rating users
	assert.InDelta(t, 11.0/3, predict(t, predictor, nil, dataset.Rating{UserId: "u3", ItemId: "i3"})[0], epsilon)
}

func TestNormalizations(t *testing.T) {
	cfg := dataset.DefaultSimulateConfig()
	cfg.NumUsers, cfg.NumItems, cfg.Density = 30, 15, 0.6
	ratings, err := dataset.Simulate(cfg)
	require.NoError(t, err)
	data, err := dataset.NewDataset(ratings, cfg.Scale)
	require.NoError(t, err)
	train, test, err := dataset.Split(data, 0.2, 0)
	require.NoError(t, err)
	split, err := dataset.SplitKnown(test, 0.5, 0)
	require.NoError(t, err)
	for _, similarity := range model.Similarities {
		for _, normalization := range model.Normalizations {
			for _, axis := range model.Axes {
				for _, params := range []model.Params{
					model.UserBasedParams{Similarity: similarity, Neighbors: 5, Normalization: normalization, Axis: axis},
					model.ItemBasedParams{Similarity: similarity, K: 5, Normalization: normalization, Axis: axis},
				} {
					predictor, err := Recommender{}.Train(context.Background(), train, params)
					require.NoError(t, err)
					predictions := predict(t, predictor, split.Known, split.Unknown...)
					score, err := model.Evaluate(predictions, split.Unknown)
					require.NoError(t, err, model.String(params.Serialize()))
					assert.Less(t, score.RMSE, 2.0, model.String(params.Serialize()))
				}
			}
		}
	}
}

func TestModel_Gob(t *testing.T) {
	predictor, err := Recommender{}.Train(context.Background(), trainSet(t), userBased(1, model.NormZScore))
	require.NoError(t, err)
	targets := []dataset.Rating{{UserId: "u1", ItemId: "i4"}, {UserId: "u3", ItemId: "i3"}}
	expected := predict(t, predictor, nil, targets...)

	buf := bytes.NewBuffer(nil)
	require.NoError(t, encoding.WriteGob(buf, predictor))
	var decoded Model
	require.NoError(t, encoding.ReadGob(buf, &decoded))
	assert.Equal(t, model.UserBased, decoded.Method)
	assert.InDeltaSlice(t, expected, predict(t, &decoded, nil, targets...), epsilon)
}

func TestTrain_Invalid(t *testing.T) {
	_, err := Recommender{}.Train(context.Background(), trainSet(t), userBased(0, model.NormNone))
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = Recommender{}.Train(context.Background(), trainSet(t), model.BaselineParams{MaxIter: 1})
	assert.True(t, errors.Is(err, errors.NotSupported))
	empty, err := dataset.NewDataset(nil, dataset.Scale{Min: 1, Max: 5})
	require.NoError(t, err)
	_, err = Recommender{}.Train(context.Background(), empty, userBased(1, model.NormNone))
	assert.True(t, errors.Is(err, errors.NotValid))

	predictor, err := Recommender{}.Train(context.Background(), trainSet(t), userBased(1, model.NormNone))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = predictor.Predict(ctx, nil, []dataset.Rating{{UserId: "u1", ItemId: "i4"}})
	assert.ErrorIs(t, err, context.Canceled)
}
