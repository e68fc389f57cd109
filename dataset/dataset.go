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
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Rating is a single observed (user, item, rating) triple.
type Rating struct {
	UserId string
	ItemId string
	Rating float64
}

// Scale is the closed interval of valid ratings.
type Scale struct {
	Min float64
	Max float64
}

func (s Scale) IsZero() bool {
	return s.Min == 0 && s.Max == 0
}

// Clamp x into [Min, Max].
func (s Scale) Clamp(x float64) float64 {
	return math.Max(s.Min, math.Min(s.Max, x))
}

// Dataset is an immutable table of ratings indexed by user and by item.
type Dataset struct {
	ratings   []Rating
	users     []int32
	items     []int32
	userDict  *FreqDict
	itemDict  *FreqDict
	userIndex [][]int32
	itemIndex [][]int32
	scale     Scale
	mean      float64
}

// NewDataset indexes ratings. A zero scale is inferred from the observed minimum and maximum.
// Repeated (user, item) pairs are kept as separate observations.
func NewDataset(ratings []Rating, scale Scale) (*Dataset, error) {
	if scale.Min > scale.Max {
		return nil, errors.NotValidf("rating scale [%v, %v]", scale.Min, scale.Max)
	}
	d := &Dataset{
		ratings:  ratings,
		users:    make([]int32, len(ratings)),
		items:    make([]int32, len(ratings)),
		userDict: NewFreqDict(),
		itemDict: NewFreqDict(),
	}
	values := make([]float64, len(ratings))
	for i, r := range ratings {
		if err := base.ValidateId(r.UserId); err != nil {
			return nil, errors.Annotatef(err, "rating %d", i)
		}
		if err := base.ValidateId(r.ItemId); err != nil {
			return nil, errors.Annotatef(err, "rating %d", i)
		}
		if math.IsNaN(r.Rating) || math.IsInf(r.Rating, 0) {
			return nil, errors.NotValidf("rating %d value %v", i, r.Rating)
		}
		d.users[i] = d.userDict.Id(r.UserId)
		d.items[i] = d.itemDict.Id(r.ItemId)
		values[i] = r.Rating
	}
	d.userIndex = make([][]int32, d.userDict.Count())
	d.itemIndex = make([][]int32, d.itemDict.Count())
	for i := range ratings {
		d.userIndex[d.users[i]] = append(d.userIndex[d.users[i]], int32(i))
		d.itemIndex[d.items[i]] = append(d.itemIndex[d.items[i]], int32(i))
	}
	if len(values) > 0 {
		d.mean = stat.Mean(values, nil)
	}
	if scale.IsZero() && len(values) > 0 {
		scale = Scale{Min: floats.Min(values), Max: floats.Max(values)}
	}
	d.scale = scale
	return d, nil
}

// Count returns the number of ratings.
func (d *Dataset) Count() int {
	return len(d.ratings)
}

func (d *Dataset) CountUsers() int {
	return d.userDict.Count()
}

func (d *Dataset) CountItems() int {
	return d.itemDict.Count()
}

func (d *Dataset) GetUserDict() *FreqDict {
	return d.userDict
}

func (d *Dataset) GetItemDict() *FreqDict {
	return d.itemDict
}

// GetRatings returns the underlying ratings. Callers must not modify them.
func (d *Dataset) GetRatings() []Rating {
	return d.ratings
}

// Get returns the i-th rating with its user and item indices.
func (d *Dataset) Get(i int) (int32, int32, float64) {
	return d.users[i], d.items[i], d.ratings[i].Rating
}

// UserRatings returns positions of ratings given by user u.
func (d *Dataset) UserRatings(u int32) []int32 {
	return d.userIndex[u]
}

// ItemRatings returns positions of ratings received by item i.
func (d *Dataset) ItemRatings(i int32) []int32 {
	return d.itemIndex[i]
}

// Mean returns the global mean rating, 0 for an empty dataset.
func (d *Dataset) Mean() float64 {
	return d.mean
}

func (d *Dataset) Scale() Scale {
	return d.scale
}

// UserMeans returns the mean rating of every user in index order.
func (d *Dataset) UserMeans() []float64 {
	return lo.Map(d.userIndex, func(positions []int32, _ int) float64 {
		return d.meanOf(positions)
	})
}

// ItemMeans returns the mean rating of every item in index order.
func (d *Dataset) ItemMeans() []float64 {
	return lo.Map(d.itemIndex, func(positions []int32, _ int) float64 {
		return d.meanOf(positions)
	})
}

func (d *Dataset) meanOf(positions []int32) float64 {
	if len(positions) == 0 {
		return d.mean
	}
	sum := 0.0
	for _, p := range positions {
		sum += d.ratings[p].Rating
	}
	return sum / float64(len(positions))
}

// Subset builds a dataset from the ratings at the given positions, keeping the scale.
func (d *Dataset) Subset(positions []int32) (*Dataset, error) {
	ratings := make([]Rating, len(positions))
	for i, p := range positions {
		ratings[i] = d.ratings[p]
	}
	return NewDataset(ratings, d.scale)
}
