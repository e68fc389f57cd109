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
	"path/filepath"
	"testing"

	"github.com/gorse-io/gridsearch/config"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateAndSplit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	rootCmd.SetArgs([]string{"simulate", "--users", "20", "--items", "10", "--density", "0.5", "--output", path})
	require.NoError(t, rootCmd.Execute())

	cfg := config.GetDefaultConfig()
	s, err := splitFile(path, cfg.Dataset)
	require.NoError(t, err)
	assert.Equal(t, s.test.Count(), len(s.eval.Known)+len(s.eval.Unknown))
	assert.NotEmpty(t, s.eval.Unknown)
	assert.LessOrEqual(t, 1.0, s.train.Scale().Min)

	_, err = splitFile("", cfg.Dataset)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = splitFile(filepath.Join(t.TempDir(), "missing.csv"), cfg.Dataset)
	assert.Error(t, err)
}
