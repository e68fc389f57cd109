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


package search

import (
	"strconv"
	"strings"

	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/gorse-io/gridsearch/config"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/model/baseline"
	"github.com/juju/errors"
	"github.com/samber/lo"
)

// AxisSpecs lists candidate values per hyper-parameter. A grid is the Cartesian product of the axes
// that apply to a method.
type AxisSpecs struct {
	Similarities   []model.Similarity
	Neighbors      []int
	Ks             []int
	SampleSizes    []int
	Normalizations []model.Normalization
	Axes           []model.Axis
	LambdaUsers    []float64
	LambdaItems    []float64
	MaxIter        int
	Tolerance      float64
	RandomState    int64
}

// NewAxisSpecs collects the grid of a method from configuration.
func NewAxisSpecs(cfg *config.Config, method model.Method) AxisSpecs {
	specs := AxisSpecs{
		MaxIter:   cfg.Baseline.MaxIter,
		Tolerance: cfg.Baseline.Tolerance,
	}
	toSimilarities := func(values []string) []model.Similarity {
		return lo.Map(values, func(v string, _ int) model.Similarity { return model.Similarity(v) })
	}
	toNormalizations := func(values []string) []model.Normalization {
		return lo.Map(values, func(v string, _ int) model.Normalization { return model.Normalization(v) })
	}
	toAxes := func(values []string) []model.Axis {
		return lo.Map(values, func(v string, _ int) model.Axis { return model.Axis(v) })
	}
	switch method {
	case model.UserBased:
		grid := cfg.Search.UserBased
		specs.Similarities = toSimilarities(grid.Similarities)
		specs.Neighbors = grid.Neighbors
		specs.SampleSizes = grid.SampleSizes
		specs.Normalizations = toNormalizations(grid.Normalizations)
		specs.Axes = toAxes(grid.Axes)
		specs.RandomState = grid.RandomState
	case model.ItemBased:
		grid := cfg.Search.ItemBased
		specs.Similarities = toSimilarities(grid.Similarities)
		specs.Ks = grid.K
		specs.Normalizations = toNormalizations(grid.Normalizations)
		specs.Axes = toAxes(grid.Axes)
	case model.Baseline:
		specs.LambdaUsers = cfg.Search.Baseline.LambdaUsers
		specs.LambdaItems = cfg.Search.Baseline.LambdaItems
	}
	return specs
}

func (s AxisSpecs) withDefaults() AxisSpecs {
	if len(s.SampleSizes) == 0 {
		s.SampleSizes = []int{0}
	}
	if len(s.Normalizations) == 0 {
		s.Normalizations = []model.Normalization{model.NormNone}
	}
	if len(s.Axes) == 0 {
		s.Axes = []model.Axis{model.Row}
	}
	defaults := baseline.DefaultParams()
	if s.MaxIter == 0 {
		s.MaxIter = defaults.MaxIter
	}
	if s.Tolerance == 0 {
		s.Tolerance = defaults.Tolerance
	}
	return s
}

// Expand enumerates the configurations of a method. The last axis varies fastest.
func (s AxisSpecs) Expand(method model.Method) ([]model.Params, error) {
	s = s.withDefaults()
	var configs []model.Params
	switch method {
	case model.UserBased:
		if len(s.Similarities) == 0 || len(s.Neighbors) == 0 {
			return nil, errors.NotValidf("user based grid without similarities or neighbors")
		}
		for _, similarity := range s.Similarities {
			for _, neighbors := range s.Neighbors {
				for _, sampleSize := range s.SampleSizes {
					for _, normalization := range s.Normalizations {
						for _, axis := range s.Axes {
							configs = append(configs, model.UserBasedParams{
								Similarity:    similarity,
								Neighbors:     neighbors,
								SampleSize:    sampleSize,
								Normalization: normalization,
								Axis:          axis,
								RandomState:   s.RandomState,
							})
						}
					}
				}
			}
		}
	case model.ItemBased:
		if len(s.Similarities) == 0 || len(s.Ks) == 0 {
			return nil, errors.NotValidf("item based grid without similarities or k")
		}
		for _, similarity := range s.Similarities {
			for _, k := range s.Ks {
				for _, normalization := range s.Normalizations {
					for _, axis := range s.Axes {
						configs = append(configs, model.ItemBasedParams{
							Similarity:    similarity,
							K:             k,
							Normalization: normalization,
							Axis:          axis,
						})
					}
				}
			}
		}
	case model.Baseline:
		if len(s.LambdaUsers) == 0 || len(s.LambdaItems) == 0 {
			return nil, errors.NotValidf("baseline grid without regularization values")
		}
		for _, lambdaUser := range s.LambdaUsers {
			for _, lambdaItem := range s.LambdaItems {
				configs = append(configs, model.BaselineParams{
					LambdaUser: lambdaUser,
					LambdaItem: lambdaItem,
					MaxIter:    s.MaxIter,
					Tolerance:  s.Tolerance,
				})
			}
		}
	default:
		return nil, errors.NotSupportedf("method %q", method)
	}
	for _, params := range configs {
		if err := params.Validate(); err != nil {
			return nil, errors.Annotate(err, model.String(params.Serialize()))
		}
	}
	return configs, nil
}

// Size is the number of configurations Expand yields.
func (s AxisSpecs) Size(method model.Method) int {
	s = s.withDefaults()
	switch method {
	case model.UserBased:
		return len(s.Similarities) * len(s.Neighbors) * len(s.SampleSizes) * len(s.Normalizations) * len(s.Axes)
	case model.ItemBased:
		return len(s.Similarities) * len(s.Ks) * len(s.Normalizations) * len(s.Axes)
	case model.Baseline:
		return len(s.LambdaUsers) * len(s.LambdaItems)
	}
	return 0
}

// Serialize returns the axes that apply to a method, in expansion order.
func (s AxisSpecs) Serialize(method model.Method) []model.Param {
	s = s.withDefaults()
	join := func(values []string) string { return strings.Join(values, ",") }
	ints := func(values []int) string { return join(lo.Map(values, func(v int, _ int) string { return strconv.Itoa(v) })) }
	floats := func(values []float64) string {
		return join(lo.Map(values, func(v float64, _ int) string { return encoding.FormatFloat64(v) }))
	}
	similarities := join(lo.Map(s.Similarities, func(v model.Similarity, _ int) string { return string(v) }))
	normalizations := join(lo.Map(s.Normalizations, func(v model.Normalization, _ int) string { return string(v) }))
	axes := join(lo.Map(s.Axes, func(v model.Axis, _ int) string { return string(v) }))
	switch method {
	case model.UserBased:
		return []model.Param{
			{Name: model.SimilarityName, Value: similarities},
			{Name: model.NeighborsName, Value: ints(s.Neighbors)},
			{Name: model.SampleSizeName, Value: ints(s.SampleSizes)},
			{Name: model.NormalizationName, Value: normalizations},
			{Name: model.AxisName, Value: axes},
			{Name: model.RandomStateName, Value: strconv.FormatInt(s.RandomState, 10)},
		}
	case model.ItemBased:
		return []model.Param{
			{Name: model.SimilarityName, Value: similarities},
			{Name: model.KName, Value: ints(s.Ks)},
			{Name: model.NormalizationName, Value: normalizations},
			{Name: model.AxisName, Value: axes},
		}
	case model.Baseline:
		return []model.Param{
			{Name: model.LambdaUserName, Value: floats(s.LambdaUsers)},
			{Name: model.LambdaItemName, Value: floats(s.LambdaItems)},
			{Name: model.MaxIterName, Value: strconv.Itoa(s.MaxIter)},
			{Name: model.ToleranceName, Value: encoding.FormatFloat64(s.Tolerance)},
		}
	}
	return nil
}

// GridKey is a short digest of the grid of a method. It changes whenever an applicable axis changes.
func GridKey(method model.Method, specs AxisSpecs) string {
	return model.Hash(method, specs.Serialize(method))[:8]
}

// CacheName is the artifact name of the result table of a grid.
func CacheName(method model.Method, specs AxisSpecs) string {
	return string(method) + "_grid_results_" + GridKey(method, specs)
}

// BestModelName is the artifact name of the best model of a grid.
func BestModelName(method model.Method, specs AxisSpecs) string {
	return "best_" + string(method) + "_model_" + GridKey(method, specs)
}
