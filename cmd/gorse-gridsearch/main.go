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
	"context"
	"os"

	"github.com/gorse-io/gridsearch/base/log"
	"github.com/gorse-io/gridsearch/base/progress"
	"github.com/gorse-io/gridsearch/config"
	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/search"
	"github.com/gorse-io/gridsearch/storage/artifact"
	"github.com/gorse-io/gridsearch/storage/blob"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "gorse-gridsearch",
	Short: "Grid search for rating prediction models",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		debug, _ := cmd.Flags().GetBool("debug")
		log.SetLogger(cmd.Flags(), debug)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "configuration file path")
	rootCmd.PersistentFlags().Bool("debug", false, "use debug log mode")
	log.AddFlags(rootCmd.PersistentFlags())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Logger().Fatal("failed to execute command", zap.Error(err))
	}
}

func loadConfig(cmd *cobra.Command) *config.Config {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Logger().Fatal("failed to load config", zap.Error(err))
	}
	return cfg
}

// openSession connects the artifact cache and starts an execution context.
func openSession(cfg *config.Config) *search.ExecutionContext {
	store, err := blob.Open(cfg.Cache.Root, cfg)
	if err != nil {
		log.Logger().Fatal("failed to open cache", zap.String("root", log.RedactURL(cfg.Cache.Root)), zap.Error(err))
	}
	return search.NewExecutionContext(cfg.Search.Workers, artifact.NewCache(store, cfg.Cache.TTL))
}

// progressContext renders progress spans as terminal progress bars.
func progressContext() context.Context {
	return progress.WithReporter(context.Background(), func(name string, total int) progress.Reporter {
		return progressbar.Default(int64(total), name)
	})
}

type split struct {
	train *dataset.Dataset
	test  *dataset.Dataset
	eval  dataset.EvalSplit
}

func loadSplit(cmd *cobra.Command, cfg *config.Config) split {
	path, _ := cmd.Flags().GetString("data")
	s, err := splitFile(path, cfg.Dataset)
	if err != nil {
		log.Logger().Fatal("failed to load dataset", zap.String("path", path), zap.Error(err))
	}
	log.Logger().Info("split dataset",
		zap.Int("n_train", s.train.Count()),
		zap.Int("n_known", len(s.eval.Known)),
		zap.Int("n_unknown", len(s.eval.Unknown)))
	return s
}

func splitFile(path string, cfg config.DatasetConfig) (split, error) {
	if path == "" {
		return split{}, errors.NotValidf("empty dataset path")
	}
	data, err := dataset.LoadCSV(path, cfg.Separator, cfg.Header, dataset.Scale{Min: cfg.ScaleMin, Max: cfg.ScaleMax})
	if err != nil {
		return split{}, errors.Trace(err)
	}
	train, test, err := dataset.Split(data, cfg.TestRatio, cfg.Seed)
	if err != nil {
		return split{}, errors.Trace(err)
	}
	eval, err := dataset.SplitKnown(test, cfg.KnownRatio, cfg.Seed)
	if err != nil {
		return split{}, errors.Trace(err)
	}
	return split{train: train, test: test, eval: eval}, nil
}

func openOutput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	file, err := os.Create(path)
	return file, errors.Trace(err)
}
