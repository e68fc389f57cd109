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
	"context"
	"math"
	"sort"
	"sync"

	"github.com/gorse-io/gridsearch/base"
	"github.com/gorse-io/gridsearch/common/heap"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// Recommender trains user-based and item-based neighborhood models.
type Recommender struct{}

func (Recommender) Train(ctx context.Context, train *dataset.Dataset, params model.Params) (model.Predictor, error) {
	if err := params.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	m := &Model{
		Ratings: train.GetRatings(),
		Scale:   train.Scale(),
		train:   train,
	}
	switch p := params.(type) {
	case model.UserBasedParams:
		m.Method, m.UserBased = model.UserBased, p
	case model.ItemBasedParams:
		m.Method, m.ItemBased = model.ItemBased, p
	default:
		return nil, errors.NotSupportedf("%v params for neighborhood models", params.Method())
	}
	if train.Count() == 0 {
		return nil, errors.NotValidf("empty training set")
	}
	if err := m.prepare(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	return m, nil
}

// Model is a neighborhood model. Training indexes the ratings; neighbors are searched at prediction
// time. Exported fields are enough to restore a decoded model.
type Model struct {
	Method    model.Method
	UserBased model.UserBasedParams
	ItemBased model.ItemBasedParams
	Ratings   []dataset.Rating
	Scale     dataset.Scale

	once        sync.Once
	err         error
	train       *dataset.Dataset
	norm        *normalizer
	sim         similarityFunc
	rowShift    []shift
	userVectors []vector
	itemVectors []vector
	candidates  []int32
}

func (m *Model) Params() model.Params {
	if m.Method == model.ItemBased {
		return m.ItemBased
	}
	return m.UserBased
}

func (m *Model) prepare(ctx context.Context) error {
	m.once.Do(func() {
		m.err = m.build(ctx)
	})
	return m.err
}

func (m *Model) build(ctx context.Context) error {
	params := m.Params()
	if err := params.Validate(); err != nil {
		return errors.Trace(err)
	}
	if m.train == nil {
		train, err := dataset.NewDataset(m.Ratings, m.Scale)
		if err != nil {
			return errors.Trace(err)
		}
		m.train = train
	}
	var (
		normalization model.Normalization
		axis          model.Axis
		similarity    model.Similarity
	)
	if m.Method == model.ItemBased {
		normalization, axis, similarity = m.ItemBased.Normalization, m.ItemBased.Axis, m.ItemBased.Similarity
	} else {
		normalization, axis, similarity = m.UserBased.Normalization, m.UserBased.Axis, m.UserBased.Similarity
	}
	m.sim = similarityOf(similarity)
	norm, err := newNormalizer(ctx, m.train, normalization, axis)
	if err != nil {
		return errors.Trace(err)
	}
	m.norm = norm
	// row shifts of training users
	m.rowShift = make([]shift, m.train.CountUsers())
	for u, userId := range m.train.GetUserDict().Strings() {
		values := lo.Map(m.train.UserRatings(int32(u)), func(p int32, _ int) float64 {
			_, _, r := m.train.Get(int(p))
			return r
		})
		m.rowShift[u] = norm.rowShift(userId, values)
	}
	// normalized vectors
	m.userVectors = make([]vector, m.train.CountUsers())
	m.itemVectors = make([]vector, m.train.CountItems())
	for i := range m.itemVectors {
		m.itemVectors[i] = make(vector)
	}
	for u := range m.userVectors {
		m.userVectors[u] = make(vector)
		for _, p := range m.train.UserRatings(int32(u)) {
			_, i, r := m.train.Get(int(p))
			z := norm.forward(m.rowShift[u], i, r)
			m.userVectors[u][i] = z
			m.itemVectors[i][int32(u)] = z
		}
	}
	// candidate neighbors
	if m.Method == model.UserBased {
		n := int32(m.train.CountUsers())
		if m.UserBased.SampleSize > 0 && m.UserBased.SampleSize < int(n) {
			rng := base.NewRandomGenerator(m.UserBased.RandomState)
			m.candidates = rng.SampleInt32(0, n, m.UserBased.SampleSize)
			sort.Slice(m.candidates, func(i, j int) bool { return m.candidates[i] < m.candidates[j] })
		} else {
			m.candidates = lo.RangeFrom[int32](0, int(n))
		}
	}
	return nil
}

// profile is the rating history of a user being predicted: training ratings plus revealed ones.
type profile struct {
	userId string
	self   int32 // index in training set, -1 if absent
	mean   float64
	shift  shift
	values vector // normalized ratings of items known to the training set
}

func (m *Model) newProfile(userId string, known []dataset.Rating) profile {
	p := profile{userId: userId, self: -1, values: make(vector)}
	raw := make(map[int32]float64)
	var all []float64
	if u, ok := m.train.GetUserDict().Lookup(userId); ok {
		p.self = u
		for _, pos := range m.train.UserRatings(u) {
			_, i, r := m.train.Get(int(pos))
			raw[i] = r
			all = append(all, r)
		}
	}
	for _, r := range known {
		all = append(all, r.Rating)
		if i, ok := m.train.GetItemDict().Lookup(r.ItemId); ok {
			raw[i] = r.Rating
		}
	}
	if len(all) > 0 {
		p.mean = lo.Sum(all) / float64(len(all))
	} else {
		p.mean = m.train.Mean()
	}
	p.shift = m.norm.rowShift(userId, all)
	for i, r := range raw {
		p.values[i] = m.norm.forward(p.shift, i, r)
	}
	return p
}

type neighbor struct {
	index int32
	sim   float64
}

// less ranks neighbors by similarity, then by index.
func less(a, b neighbor) bool {
	if a.sim != b.sim {
		return a.sim < b.sim
	}
	return a.index > b.index
}

func sortNeighbors(neighbors []neighbor) {
	sort.Slice(neighbors, func(i, j int) bool {
		return less(neighbors[j], neighbors[i])
	})
}

func usable(sim float64) bool {
	return sim > 0 && !math.IsNaN(sim) && !math.IsInf(sim, 0)
}

// Predict implements model.Predictor.
func (m *Model) Predict(ctx context.Context, known []dataset.Rating, targets []dataset.Rating) ([]float64, error) {
	if err := m.prepare(ctx); err != nil {
		return nil, errors.Trace(err)
	}
	knownByUser := lo.GroupBy(known, func(r dataset.Rating) string { return r.UserId })
	targetsByUser := make(map[string][]int)
	var users []string
	for pos, r := range targets {
		if _, ok := targetsByUser[r.UserId]; !ok {
			users = append(users, r.UserId)
		}
		targetsByUser[r.UserId] = append(targetsByUser[r.UserId], pos)
	}
	predictions := make([]float64, len(targets))
	for _, userId := range users {
		if err := ctx.Err(); err != nil {
			return nil, errors.Trace(err)
		}
		p := m.newProfile(userId, knownByUser[userId])
		var neighbors []neighbor
		if m.Method == model.UserBased {
			neighbors = m.userNeighbors(p)
		}
		for _, pos := range targetsByUser[userId] {
			itemIndex, ok := m.train.GetItemDict().Lookup(targets[pos].ItemId)
			if !ok {
				itemIndex = -1
			}
			var prediction float64
			if m.Method == model.UserBased {
				prediction = m.predictUserBased(p, neighbors, itemIndex)
			} else {
				prediction = m.predictItemBased(p, itemIndex)
			}
			predictions[pos] = m.Scale.Clamp(prediction)
		}
	}
	return predictions, nil
}

func (m *Model) fallback(p profile, item int32) float64 {
	if m.norm.method == model.NormNone {
		return p.mean
	}
	return m.norm.inverse(p.shift, item, 0)
}

// userNeighbors returns candidate users similar to the profile, most similar first.
func (m *Model) userNeighbors(p profile) []neighbor {
	neighbors := make([]neighbor, 0, len(m.candidates))
	for _, v := range m.candidates {
		if v == p.self {
			continue
		}
		if sim := m.sim(p.values, m.userVectors[v]); usable(sim) {
			neighbors = append(neighbors, neighbor{index: v, sim: sim})
		}
	}
	sortNeighbors(neighbors)
	return neighbors
}

func (m *Model) predictUserBased(p profile, neighbors []neighbor, item int32) float64 {
	if item < 0 {
		return m.fallback(p, item)
	}
	var weighted, total float64
	count := 0
	for _, n := range neighbors {
		if count >= m.UserBased.Neighbors {
			break
		}
		if z, ok := m.userVectors[n.index][item]; ok {
			weighted += n.sim * z
			total += n.sim
			count++
		}
	}
	if count == 0 {
		return m.fallback(p, item)
	}
	return m.norm.inverse(p.shift, item, weighted/total)
}

func (m *Model) predictItemBased(p profile, item int32) float64 {
	if item < 0 {
		return m.fallback(p, item)
	}
	filter := heap.NewTopKFilter(m.ItemBased.K, less)
	for j := range p.values {
		if j == item {
			continue
		}
		if sim := m.sim(m.itemVectors[item], m.itemVectors[j]); usable(sim) {
			filter.Push(neighbor{index: j, sim: sim})
		}
	}
	if filter.Len() == 0 {
		return m.fallback(p, item)
	}
	var weighted, total float64
	for _, n := range filter.PopAll() {
		weighted += n.sim * p.values[n.index]
		total += n.sim
	}
	return m.norm.inverse(p.shift, item, weighted/total)
}
