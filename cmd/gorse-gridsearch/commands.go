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


package main

import (
	"fmt"
	"os"

	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/common/parallel"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/model/baseline"
	"github.com/gorse-io/gridsearch/report"
	"github.com/gorse-io/gridsearch/search"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Generate synthetic ratings",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		sim := dataset.DefaultSimulateConfig()
		sim.NumUsers, _ = cmd.Flags().GetInt("users")
		sim.NumItems, _ = cmd.Flags().GetInt("items")
		sim.Density, _ = cmd.Flags().GetFloat64("density")
		sim.Seed, _ = cmd.Flags().GetInt64("seed")
		ratings, err := dataset.Simulate(sim)
		if err != nil {
			log.Logger().Fatal("failed to simulate ratings", zap.Error(err))
		}
		output, _ := cmd.Flags().GetString("output")
		file, err := openOutput(output)
		if err != nil {
			log.Logger().Fatal("failed to create output", zap.String("path", output), zap.Error(err))
		}
		defer file.Close()
		if err = dataset.WriteCSV(file, cfg.Dataset.Separator, cfg.Dataset.Header, ratings); err != nil {
			log.Logger().Fatal("failed to write ratings", zap.Error(err))
		}
		log.Logger().Info("simulate ratings", zap.Int("n_ratings", len(ratings)))
	},
}

var biasCmd = &cobra.Command{
	Use:   "bias",
	Short: "Fit the regularized bias model",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		s := loadSplit(cmd, cfg)
		ec := openSession(cfg)
		defer ec.Close()
		ctx := progressContext()

		params := model.BaselineParams{
			LambdaUser: cfg.Baseline.LambdaUser,
			LambdaItem: cfg.Baseline.LambdaItem,
			MaxIter:    cfg.Baseline.MaxIter,
			Tolerance:  cfg.Baseline.Tolerance,
		}
		m, err := baseline.Fit(ctx, s.train, params)
		if err != nil {
			log.Logger().Fatal("failed to fit bias model", zap.Error(err))
		}
		score, err := model.Evaluate(m.PredictPairs(s.eval.Unknown), s.eval.Unknown)
		if err != nil {
			log.Logger().Fatal("failed to evaluate bias model", zap.Error(err))
		}
		fmt.Printf("global mean: %.4f\n", m.GlobalMean)
		fmt.Printf("iterations: %d (converged: %v)\n", m.IterationsRun, m.Converged)
		fmt.Printf("RMSE: %.4f\n", score.RMSE)
		fmt.Printf("MAE: %.4f\n", score.MAE)

		name := "bias_model_" + model.Key(params)[:8]
		if err = ec.Cache.Save(ctx, name, m); err != nil {
			log.Logger().Fatal("failed to save bias model", zap.Error(err))
		}
		ec.Logger().Info("save bias model", zap.String("name", name))
	},
}

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Search regularization strengths of the bias model",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		s := loadSplit(cmd, cfg)
		tuneConfig := baseline.DefaultTuneConfig()
		tuneConfig.Trials = cfg.Baseline.TuneTrials
		if cmd.Flags().Changed("trials") {
			tuneConfig.Trials, _ = cmd.Flags().GetInt("trials")
		}
		tuneConfig.Jobs = cfg.Search.Workers
		if tuneConfig.Jobs <= 0 {
			tuneConfig.Jobs = parallel.DefaultWorkers()
		}
		tuneConfig.MaxIter = cfg.Baseline.MaxIter
		tuneConfig.Tolerance = cfg.Baseline.Tolerance
		tuneConfig.Seed = cfg.Dataset.Seed
		result, err := baseline.Tune(progressContext(), s.train, s.test.GetRatings(), tuneConfig)
		if err != nil {
			log.Logger().Fatal("failed to tune bias model", zap.Error(err))
		}
		fmt.Printf("trials: %d\n", result.Trials)
		fmt.Printf("best: %s\n", model.String(result.Params.Serialize()))
		fmt.Printf("RMSE: %.4f\n", result.Score.RMSE)
		fmt.Printf("MAE: %.4f\n", result.Score.MAE)
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <user_based|item_based|baseline>",
	Short: "Grid search hyper-parameters of a model family",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		method, err := model.ParseMethod(args[0])
		if err != nil {
			log.Logger().Fatal("failed to parse method", zap.Error(err))
		}
		cfg := loadConfig(cmd)
		s := loadSplit(cmd, cfg)
		ec := openSession(cfg)
		defer ec.Close()
		ctx := progressContext()

		noCache, _ := cmd.Flags().GetBool("no-cache")
		top, _ := cmd.Flags().GetInt("top")
		specs := search.NewAxisSpecs(cfg, method)
		engine := search.NewEngine(ec, search.WithTimeout(cfg.Search.Timeout))
		table, err := engine.Run(ctx, s.train, s.eval, method, specs, cfg.Search.UseCache && !noCache)
		if err != nil {
			log.Logger().Fatal("failed to search", zap.String("method", string(method)), zap.Error(err))
		}
		filter, _ := cmd.Flags().GetString("filter")
		filtered, err := report.Filter(table, filter)
		if err != nil {
			log.Logger().Fatal("failed to filter results", zap.Error(err))
		}
		if err = report.Print(os.Stdout, report.Summarize(filtered, top)); err != nil {
			log.Logger().Fatal("failed to print report", zap.Error(err))
		}
		if table.Len() == 0 {
			return
		}
		best, err := engine.SaveBest(ctx, s.train, table, specs)
		if err != nil {
			log.Logger().Fatal("failed to save best model", zap.Error(err))
		}
		fmt.Printf("best: %s (RMSE %.4f)\n", best.Params, best.RMSE)
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare user-based and item-based neighborhood models",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		s := loadSplit(cmd, cfg)
		ec := openSession(cfg)
		defer ec.Close()
		ctx := progressContext()

		noCache, _ := cmd.Flags().GetBool("no-cache")
		top, _ := cmd.Flags().GetInt("top")
		filter, _ := cmd.Flags().GetString("filter")
		engine := search.NewEngine(ec, search.WithTimeout(cfg.Search.Timeout))
		tables := make(map[model.Method]*search.ResultTable)
		for _, method := range []model.Method{model.UserBased, model.ItemBased} {
			table, err := engine.Run(ctx, s.train, s.eval, method, search.NewAxisSpecs(cfg, method), cfg.Search.UseCache && !noCache)
			if err != nil {
				log.Logger().Fatal("failed to search", zap.String("method", string(method)), zap.Error(err))
			}
			if table, err = report.Filter(table, filter); err != nil {
				log.Logger().Fatal("failed to filter results", zap.Error(err))
			}
			if err = report.Print(os.Stdout, report.Summarize(table, top)); err != nil {
				log.Logger().Fatal("failed to print report", zap.Error(err))
			}
			tables[method] = table
		}
		if _, err := report.PrintComparison(os.Stdout,
			string(model.UserBased), tables[model.UserBased],
			string(model.ItemBased), tables[model.ItemBased]); err != nil {
			log.Logger().Fatal("failed to compare", zap.Error(err))
		}
	},
}

func init() {
	simulateCmd.Flags().Int("users", 100, "number of users")
	simulateCmd.Flags().Int("items", 50, "number of items")
	simulateCmd.Flags().Float64("density", 0.3, "probability that a user rates an item")
	simulateCmd.Flags().Int64("seed", 42, "random seed")
	simulateCmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	rootCmd.AddCommand(simulateCmd)

	for _, cmd := range []*cobra.Command{biasCmd, tuneCmd, searchCmd, compareCmd} {
		cmd.Flags().StringP("data", "d", "", "ratings file")
		rootCmd.AddCommand(cmd)
	}
	tuneCmd.Flags().Int("trials", 0, "number of trials (overrides configuration)")
	for _, cmd := range []*cobra.Command{searchCmd, compareCmd} {
		cmd.Flags().Bool("no-cache", false, "ignore cached results")
		cmd.Flags().Int("top", 10, "number of best configurations to print")
		cmd.Flags().String("filter", "", "expression selecting rows to report, e.g. 'row.Neighbors >= 20'")
	}
}
