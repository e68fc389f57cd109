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
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	method, err := ParseMethod("User_Based")
	assert.NoError(t, err)
	assert.Equal(t, UserBased, method)
	_, err = ParseMethod("svd")
	assert.True(t, errors.Is(err, errors.NotSupported))
}

func TestHash(t *testing.T) {
	params := []Param{{SimilarityName, "cosine"}, {KName, "10"}}
	a := Hash(ItemBased, params)
	assert.Len(t, a, 64)
	// stable
	assert.Equal(t, a, Hash(ItemBased, []Param{{SimilarityName, "cosine"}, {KName, "10"}}))
	// sensitive to method, values and order
	assert.NotEqual(t, a, Hash(UserBased, params))
	assert.NotEqual(t, a, Hash(ItemBased, []Param{{SimilarityName, "cosine"}, {KName, "20"}}))
	assert.NotEqual(t, a, Hash(ItemBased, []Param{{KName, "10"}, {SimilarityName, "cosine"}}))
	// field boundaries are not ambiguous
	assert.NotEqual(t, Hash(ItemBased, []Param{{"a", "b=c"}}), Hash(ItemBased, []Param{{"a=b", "c"}}))
}

func TestUserBasedParams(t *testing.T) {
	params := UserBasedParams{Similarity: Pearson, Neighbors: 20, SampleSize: 100, Normalization: NormZScore, Axis: Row}
	assert.NoError(t, params.Validate())
	assert.Equal(t, UserBased, params.Method())
	assert.Equal(t, "similarity=pearson, neighbors=20, sample_size=100, normalization=zscore, normalization_axis=row, random_state=0",
		String(params.Serialize()))
	assert.Equal(t, Columns{Similarity: "pearson", Neighbors: 20, SampleSize: 100, Normalization: "zscore", NormalizationAxis: "row"},
		params.Columns())
	assert.Equal(t, Hash(UserBased, params.Serialize()), Key(params))

	params.Neighbors = 0
	assert.True(t, errors.Is(params.Validate(), errors.NotValid))
	params.Neighbors = 1
	params.Similarity = "euclidean"
	assert.True(t, errors.Is(params.Validate(), errors.NotValid))
}

func TestItemBasedParams(t *testing.T) {
	params := ItemBasedParams{Similarity: Cosine, K: 40, Normalization: NormNone, Axis: Column}
	assert.NoError(t, params.Validate())
	assert.Equal(t, "similarity=cosine, k=40, normalization=none, normalization_axis=column", String(params.Serialize()))
	assert.Equal(t, 40, params.Columns().Neighbors)
	assert.Zero(t, params.Columns().SampleSize)
	params.Axis = "diagonal"
	assert.True(t, errors.Is(params.Validate(), errors.NotValid))
}

func TestBaselineParams(t *testing.T) {
	params := BaselineParams{LambdaUser: 10, LambdaItem: 25, MaxIter: 100, Tolerance: 1e-6}
	assert.NoError(t, params.Validate())
	assert.Equal(t, "lambda_user=10, lambda_item=25, max_iter=100, tolerance=0.000001", String(params.Serialize()))
	assert.Equal(t, Columns{Similarity: Neutral, Normalization: Neutral, NormalizationAxis: Neutral, LambdaUser: 10, LambdaItem: 25},
		params.Columns())
	params.LambdaUser = -1
	assert.True(t, errors.Is(params.Validate(), errors.NotValid))
}
