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

package dataset

import (
	"math"

	"github.com/gorse-io/gridsearch/base"
	"github.com/juju/errors"
)

// EvalSplit divides the ratings of evaluation users into ratings shown to a model (Known) and ratings
// the model has to predict (Unknown).
type EvalSplit struct {
	Known   []Rating
	Unknown []Rating
}

// Split partitions data into train and test sets. A rating moves to the test set only while its user
// and its item both keep at least one training rating, so every user and item of the test set also
// appears in the training set. The same seed always yields the same split.
func Split(data *Dataset, testRatio float64, seed int64) (*Dataset, *Dataset, error) {
	if data.Count() == 0 {
		return nil, nil, errors.NotValidf("empty dataset")
	}
	if testRatio <= 0 || testRatio >= 1 {
		return nil, nil, errors.NotValidf("test ratio %v", testRatio)
	}
	target := int(math.Round(float64(data.Count()) * testRatio))
	userLeft := make([]int, data.CountUsers())
	for u := range userLeft {
		userLeft[u] = len(data.UserRatings(int32(u)))
	}
	itemLeft := make([]int, data.CountItems())
	for i := range itemLeft {
		itemLeft[i] = len(data.ItemRatings(int32(i)))
	}
	rng := base.NewRandomGenerator(seed)
	isTest := make([]bool, data.Count())
	moved := 0
	for _, p := range rng.Perm(data.Count()) {
		if moved >= target {
			break
		}
		u, i, _ := data.Get(p)
		if userLeft[u] > 1 && itemLeft[i] > 1 {
			isTest[p] = true
			userLeft[u]--
			itemLeft[i]--
			moved++
		}
	}
	var trainPos, testPos []int32
	for p := range isTest {
		if isTest[p] {
			testPos = append(testPos, int32(p))
		} else {
			trainPos = append(trainPos, int32(p))
		}
	}
	train, err := data.Subset(trainPos)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	test, err := data.Subset(testPos)
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return train, test, nil
}

// SplitKnown shuffles the ratings of each user in data and reveals the first floor(n*knownRatio) of them.
func SplitKnown(data *Dataset, knownRatio float64, seed int64) (EvalSplit, error) {
	if knownRatio < 0 || knownRatio >= 1 {
		return EvalSplit{}, errors.NotValidf("known ratio %v", knownRatio)
	}
	rng := base.NewRandomGenerator(seed)
	var split EvalSplit
	for u := 0; u < data.CountUsers(); u++ {
		positions := data.UserRatings(int32(u))
		nKnown := int(math.Floor(float64(len(positions)) * knownRatio))
		for j, k := range rng.Perm(len(positions)) {
			r := data.GetRatings()[positions[k]]
			if j < nKnown {
				split.Known = append(split.Known, r)
			} else {
				split.Unknown = append(split.Unknown, r)
			}
		}
	}
	return split, nil
}
