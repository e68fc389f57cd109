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

package baseline

import (
	"context"
	"math"
	"sync"

	"github.com/c-bata/goptuna"
	"github.com/c-bata/goptuna/tpe"
	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/common/parallel"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// TuneConfig bounds the search over regularization strengths.
type TuneConfig struct {
	Trials    int
	Jobs      int
	LambdaMin float64
	LambdaMax float64
	MaxIter   int
	Tolerance float64
	Seed      int64
}

func DefaultTuneConfig() TuneConfig {
	defaults := DefaultParams()
	return TuneConfig{
		Trials:    30,
		Jobs:      1,
		LambdaMin: 0.01,
		LambdaMax: 100,
		MaxIter:   defaults.MaxIter,
		Tolerance: defaults.Tolerance,
	}
}

// TuneResult is the best configuration found by Tune.
type TuneResult struct {
	Params model.BaselineParams
	Score  model.Score
	Trials int
}

// LambdaSearch is a goptuna objective that fits a bias model per trial and scores it on validation ratings.
type LambdaSearch struct {
	ctx    context.Context
	train  *dataset.Dataset
	valid  []dataset.Rating
	config TuneConfig

	mu     sync.Mutex
	result TuneResult
}

func NewLambdaSearch(ctx context.Context, train *dataset.Dataset, valid []dataset.Rating, config TuneConfig) *LambdaSearch {
	return &LambdaSearch{
		ctx:    ctx,
		train:  train,
		valid:  valid,
		config: config,
		result: TuneResult{Score: model.Score{RMSE: math.Inf(1), MAE: math.Inf(1)}},
	}
}

func (ls *LambdaSearch) SuggestParams(trial goptuna.Trial) model.BaselineParams {
	return model.BaselineParams{
		LambdaUser: lo.Must(trial.SuggestLogFloat(string(model.LambdaUserName), ls.config.LambdaMin, ls.config.LambdaMax)),
		LambdaItem: lo.Must(trial.SuggestLogFloat(string(model.LambdaItemName), ls.config.LambdaMin, ls.config.LambdaMax)),
		MaxIter:    ls.config.MaxIter,
		Tolerance:  ls.config.Tolerance,
	}
}

func (ls *LambdaSearch) Objective(trial goptuna.Trial) (float64, error) {
	params := ls.SuggestParams(trial)
	m, err := Fit(ls.ctx, ls.train, params)
	if err != nil {
		return 0, errors.Trace(err)
	}
	score, err := model.Evaluate(m.PredictPairs(ls.valid), ls.valid)
	if err != nil {
		return 0, errors.Trace(err)
	}
	log.Logger().Debug("tune baseline",
		zap.String("params", model.String(params.Serialize())),
		zap.Float64("rmse", score.RMSE))
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.result.Trials++
	if score.RMSE < ls.result.Score.RMSE {
		ls.result.Params = params
		ls.result.Score = score
	}
	return score.RMSE, nil
}

func (ls *LambdaSearch) Result() TuneResult {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.result
}

// Tune searches λ_user and λ_item on a log scale with a TPE sampler, minimizing validation RMSE.
func Tune(ctx context.Context, train *dataset.Dataset, valid []dataset.Rating, config TuneConfig) (TuneResult, error) {
	if config.Trials <= 0 {
		return TuneResult{}, errors.NotValidf("trials %d", config.Trials)
	}
	if config.LambdaMin <= 0 || config.LambdaMin >= config.LambdaMax {
		return TuneResult{}, errors.NotValidf("lambda range [%v, %v]", config.LambdaMin, config.LambdaMax)
	}
	if len(valid) == 0 {
		return TuneResult{}, errors.NotValidf("empty validation set")
	}
	study, err := goptuna.CreateStudy("baseline",
		goptuna.StudyOptionDirection(goptuna.StudyDirectionMinimize),
		goptuna.StudyOptionSampler(tpe.NewSampler(tpe.SamplerOptionSeed(config.Seed))))
	if err != nil {
		return TuneResult{}, errors.Trace(err)
	}
	search := NewLambdaSearch(ctx, train, valid, config)
	// goptuna studies accept concurrent Optimize calls
	batches := parallel.Split(lo.Range(config.Trials), max(config.Jobs, 1))
	err = parallel.Parallel(ctx, len(batches), len(batches), func(_, jobId int) error {
		return study.Optimize(search.Objective, len(batches[jobId]))
	})
	if err != nil {
		return TuneResult{}, errors.Trace(err)
	}
	result := search.Result()
	log.Logger().Info("tune baseline completed",
		zap.Int("trials", result.Trials),
		zap.String("params", model.String(result.Params.Serialize())),
		zap.Float64("rmse", result.Score.RMSE))
	return result, nil
}
