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
	"fmt"
	"math"

	"github.com/gorse-io/gridsearch/base"
	"github.com/juju/errors"
)

// SimulateConfig describes a synthetic population: every item has a base score, every user a rating
// bias, and each observed rating adds gaussian noise to their sum.
type SimulateConfig struct {
	NumUsers int
	NumItems int
	// Density is the probability that a (user, item) pair is rated.
	Density  float64
	ItemMean float64
	ItemStd  float64
	UserStd  float64
	NoiseStd float64
	Scale    Scale
	// Step rounds ratings to multiples of it. Zero keeps raw values.
	Step float64
	Seed int64
}

func DefaultSimulateConfig() SimulateConfig {
	return SimulateConfig{
		NumUsers: 10,
		NumItems: 5,
		Density:  1,
		ItemMean: 3.7,
		ItemStd:  0.4,
		UserStd:  0.4,
		NoiseStd: 0.3,
		Scale:    Scale{Min: 1, Max: 5},
		Step:     0.5,
		Seed:     42,
	}
}

// Simulate draws a synthetic rating table. Users are named user_N and items item_N.
func Simulate(cfg SimulateConfig) ([]Rating, error) {
	if cfg.NumUsers <= 0 || cfg.NumItems <= 0 {
		return nil, errors.NotValidf("population %dx%d", cfg.NumUsers, cfg.NumItems)
	}
	if cfg.Density <= 0 || cfg.Density > 1 {
		return nil, errors.NotValidf("density %v", cfg.Density)
	}
	if cfg.Scale.IsZero() || cfg.Scale.Min > cfg.Scale.Max {
		return nil, errors.NotValidf("rating scale [%v, %v]", cfg.Scale.Min, cfg.Scale.Max)
	}
	rng := base.NewRandomGenerator(cfg.Seed)
	itemScores := rng.NormalVector64(cfg.NumItems, cfg.ItemMean, cfg.ItemStd)
	userBiases := rng.NormalVector64(cfg.NumUsers, 0, cfg.UserStd)
	var ratings []Rating
	for u := 0; u < cfg.NumUsers; u++ {
		for i := 0; i < cfg.NumItems; i++ {
			if cfg.Density < 1 && rng.Float64() >= cfg.Density {
				continue
			}
			value := cfg.Scale.Clamp(itemScores[i] + userBiases[u] + rng.NormFloat64()*cfg.NoiseStd)
			if cfg.Step > 0 {
				value = cfg.Scale.Clamp(math.Round(value/cfg.Step) * cfg.Step)
			}
			ratings = append(ratings, Rating{
				UserId: fmt.Sprintf("user_%d", u),
				ItemId: fmt.Sprintf("item_%d", i),
				Rating: value,
			})
		}
	}
	return ratings, nil
}
