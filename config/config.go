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


package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/juju/errors"
	"github.com/spf13/viper"
)

const EnvPrefix = "GORSE_GRIDSEARCH"

// Config is the configuration for grid searches.
type Config struct {
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Baseline BaselineConfig `mapstructure:"baseline"`
	Search   SearchConfig   `mapstructure:"search"`
	Cache    CacheConfig    `mapstructure:"cache"`
	S3       S3Config       `mapstructure:"s3"`
	GCS      GCSConfig      `mapstructure:"gcs"`
	Azure    AzureConfig    `mapstructure:"azure"`
}

type DatasetConfig struct {
	TestRatio  float64 `mapstructure:"test_ratio" validate:"gt=0,lt=1"`
	KnownRatio float64 `mapstructure:"known_ratio" validate:"gte=0,lt=1"`
	Seed       int64   `mapstructure:"seed"`
	ScaleMin   float64 `mapstructure:"scale_min"`
	ScaleMax   float64 `mapstructure:"scale_max" validate:"gtefield=ScaleMin"`
	Separator  string  `mapstructure:"separator" validate:"len=1"`
	Header     bool    `mapstructure:"header"`
}

type BaselineConfig struct {
	LambdaUser float64 `mapstructure:"lambda_user" validate:"gte=0"`
	LambdaItem float64 `mapstructure:"lambda_item" validate:"gte=0"`
	MaxIter    int     `mapstructure:"max_iter" validate:"gt=0"`
	Tolerance  float64 `mapstructure:"tolerance" validate:"gte=0"`
	TuneTrials int     `mapstructure:"tune_trials" validate:"gt=0"`
}

type SearchConfig struct {
	Workers   int                 `mapstructure:"workers" validate:"gte=0"`
	Timeout   time.Duration       `mapstructure:"timeout" validate:"gte=0"`
	UseCache  bool                `mapstructure:"use_cache"`
	UserBased UserBasedGridConfig `mapstructure:"user_based"`
	ItemBased ItemBasedGridConfig `mapstructure:"item_based"`
	Baseline  BaselineGridConfig  `mapstructure:"baseline"`
}

type UserBasedGridConfig struct {
	Similarities   []string `mapstructure:"similarities" validate:"min=1,dive,oneof=cosine pearson jaccard msd"`
	Neighbors      []int    `mapstructure:"neighbors" validate:"min=1,dive,gt=0"`
	SampleSizes    []int    `mapstructure:"sample_sizes" validate:"dive,gte=0"`
	Normalizations []string `mapstructure:"normalizations" validate:"dive,oneof=none mean zscore baseline"`
	Axes           []string `mapstructure:"axes" validate:"dive,oneof=row column"`
	RandomState    int64    `mapstructure:"random_state"`
}

type ItemBasedGridConfig struct {
	Similarities   []string `mapstructure:"similarities" validate:"min=1,dive,oneof=cosine pearson jaccard msd"`
	K              []int    `mapstructure:"k" validate:"min=1,dive,gt=0"`
	Normalizations []string `mapstructure:"normalizations" validate:"dive,oneof=none mean zscore baseline"`
	Axes           []string `mapstructure:"axes" validate:"dive,oneof=row column"`
}

type BaselineGridConfig struct {
	LambdaUsers []float64 `mapstructure:"lambda_users" validate:"min=1,dive,gte=0"`
	LambdaItems []float64 `mapstructure:"lambda_items" validate:"min=1,dive,gte=0"`
}

type CacheConfig struct {
	Root string        `mapstructure:"root" validate:"required"`
	TTL  time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

type GCSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
}

type AzureConfig struct {
	AccountName      string `mapstructure:"account_name"`
	AccountKey       string `mapstructure:"account_key"`
	Endpoint         string `mapstructure:"endpoint"`
	ConnectionString string `mapstructure:"connection_string"`
}

func GetDefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			TestRatio:  0.2,
			KnownRatio: 0.5,
			Separator:  ",",
			Header:     true,
		},
		Baseline: BaselineConfig{
			LambdaUser: 5,
			LambdaItem: 5,
			MaxIter:    100,
			Tolerance:  1e-6,
			TuneTrials: 30,
		},
		Search: SearchConfig{
			UseCache: true,
			UserBased: UserBasedGridConfig{
				Similarities:   []string{"cosine", "pearson", "msd"},
				Neighbors:      []int{10, 20, 40},
				SampleSizes:    []int{0},
				Normalizations: []string{"none", "mean", "zscore", "baseline"},
				Axes:           []string{"row", "column"},
			},
			ItemBased: ItemBasedGridConfig{
				Similarities:   []string{"cosine", "pearson", "msd"},
				K:              []int{10, 20, 40},
				Normalizations: []string{"none", "mean", "zscore", "baseline"},
				Axes:           []string{"row", "column"},
			},
			Baseline: BaselineGridConfig{
				LambdaUsers: []float64{0, 1, 5, 10, 25},
				LambdaItems: []float64{0, 1, 5, 10, 25},
			},
		},
		Cache: CacheConfig{
			Root: "gridsearch_cache",
			TTL:  10 * time.Minute,
		},
		S3: S3Config{
			Endpoint: "s3.amazonaws.com",
			UseSSL:   true,
		},
	}
}

// setDefault registers every default so that environment variables can override keys absent from the file.
func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [dataset]
	v.SetDefault("dataset.test_ratio", defaultConfig.Dataset.TestRatio)
	v.SetDefault("dataset.known_ratio", defaultConfig.Dataset.KnownRatio)
	v.SetDefault("dataset.seed", defaultConfig.Dataset.Seed)
	v.SetDefault("dataset.scale_min", defaultConfig.Dataset.ScaleMin)
	v.SetDefault("dataset.scale_max", defaultConfig.Dataset.ScaleMax)
	v.SetDefault("dataset.separator", defaultConfig.Dataset.Separator)
	v.SetDefault("dataset.header", defaultConfig.Dataset.Header)
	// [baseline]
	v.SetDefault("baseline.lambda_user", defaultConfig.Baseline.LambdaUser)
	v.SetDefault("baseline.lambda_item", defaultConfig.Baseline.LambdaItem)
	v.SetDefault("baseline.max_iter", defaultConfig.Baseline.MaxIter)
	v.SetDefault("baseline.tolerance", defaultConfig.Baseline.Tolerance)
	v.SetDefault("baseline.tune_trials", defaultConfig.Baseline.TuneTrials)
	// [search]
	v.SetDefault("search.workers", defaultConfig.Search.Workers)
	v.SetDefault("search.timeout", defaultConfig.Search.Timeout)
	v.SetDefault("search.use_cache", defaultConfig.Search.UseCache)
	v.SetDefault("search.user_based.similarities", defaultConfig.Search.UserBased.Similarities)
	v.SetDefault("search.user_based.neighbors", defaultConfig.Search.UserBased.Neighbors)
	v.SetDefault("search.user_based.sample_sizes", defaultConfig.Search.UserBased.SampleSizes)
	v.SetDefault("search.user_based.normalizations", defaultConfig.Search.UserBased.Normalizations)
	v.SetDefault("search.user_based.axes", defaultConfig.Search.UserBased.Axes)
	v.SetDefault("search.user_based.random_state", defaultConfig.Search.UserBased.RandomState)
	v.SetDefault("search.item_based.similarities", defaultConfig.Search.ItemBased.Similarities)
	v.SetDefault("search.item_based.k", defaultConfig.Search.ItemBased.K)
	v.SetDefault("search.item_based.normalizations", defaultConfig.Search.ItemBased.Normalizations)
	v.SetDefault("search.item_based.axes", defaultConfig.Search.ItemBased.Axes)
	v.SetDefault("search.baseline.lambda_users", defaultConfig.Search.Baseline.LambdaUsers)
	v.SetDefault("search.baseline.lambda_items", defaultConfig.Search.Baseline.LambdaItems)
	// [cache]
	v.SetDefault("cache.root", defaultConfig.Cache.Root)
	v.SetDefault("cache.ttl", defaultConfig.Cache.TTL)
	// [s3]
	v.SetDefault("s3.endpoint", defaultConfig.S3.Endpoint)
	v.SetDefault("s3.access_key_id", defaultConfig.S3.AccessKeyID)
	v.SetDefault("s3.secret_access_key", defaultConfig.S3.SecretAccessKey)
	v.SetDefault("s3.use_ssl", defaultConfig.S3.UseSSL)
	// [gcs]
	v.SetDefault("gcs.credentials_file", defaultConfig.GCS.CredentialsFile)
	v.SetDefault("gcs.endpoint", defaultConfig.GCS.Endpoint)
	// [azure]
	v.SetDefault("azure.account_name", defaultConfig.Azure.AccountName)
	v.SetDefault("azure.account_key", defaultConfig.Azure.AccountKey)
	v.SetDefault("azure.endpoint", defaultConfig.Azure.Endpoint)
	v.SetDefault("azure.connection_string", defaultConfig.Azure.ConnectionString)
}

// LoadConfig loads configuration from a TOML file. An empty path yields the defaults. In both cases
// GORSE_GRIDSEARCH_* environment variables take precedence, e.g. GORSE_GRIDSEARCH_CACHE_ROOT.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefault(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config file %s", path)
		}
	}
	var conf Config
	if err := v.Unmarshal(&conf, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, errors.Trace(err)
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &conf, nil
}

// Validate checks field constraints and reports the first violation as NotValid.
func (config *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			e := validationErrors[0]
			return errors.NotValidf("%s (%s=%v)", e.Namespace(), e.Tag(), e.Value())
		}
		return errors.Trace(err)
	}
	return nil
}
