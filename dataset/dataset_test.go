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
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset(t *testing.T) {
	data, err := NewDataset([]Rating{
		{"u1", "i1", 4},
		{"u1", "i2", 2},
		{"u2", "i1", 5},
		{"u2", "i2", 1},
	}, Scale{})
	require.NoError(t, err)
	assert.Equal(t, 4, data.Count())
	assert.Equal(t, 2, data.CountUsers())
	assert.Equal(t, 2, data.CountItems())
	assert.Equal(t, 3.0, data.Mean())
	assert.Equal(t, Scale{Min: 1, Max: 5}, data.Scale())
	assert.Equal(t, []int32{0, 1}, data.UserRatings(0))
	assert.Equal(t, []int32{0, 2}, data.ItemRatings(0))
	assert.Equal(t, []float64{3, 3}, data.UserMeans())
	assert.Equal(t, []float64{4.5, 1.5}, data.ItemMeans())
	u, i, r := data.Get(2)
	assert.Equal(t, int32(1), u)
	assert.Equal(t, int32(0), i)
	assert.Equal(t, 5.0, r)

	// explicit scale
	data, err = NewDataset([]Rating{{"u1", "i1", 4}}, Scale{Min: 1, Max: 10})
	require.NoError(t, err)
	assert.Equal(t, Scale{Min: 1, Max: 10}, data.Scale())

	// empty dataset
	data, err = NewDataset(nil, Scale{})
	require.NoError(t, err)
	assert.Zero(t, data.Count())
	assert.Zero(t, data.Mean())
}

func TestNewDataset_Invalid(t *testing.T) {
	_, err := NewDataset([]Rating{{"", "i1", 4}}, Scale{})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewDataset([]Rating{{"u1", "i1", math.NaN()}}, Scale{})
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = NewDataset([]Rating{{"u1", "i1", 1}}, Scale{Min: 5, Max: 1})
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestScale_Clamp(t *testing.T) {
	scale := Scale{Min: 1, Max: 5}
	assert.Equal(t, 5.0, scale.Clamp(9))
	assert.Equal(t, 1.0, scale.Clamp(-2))
	assert.Equal(t, 3.5, scale.Clamp(3.5))
}

func simulated(t *testing.T, users, items int, density float64) *Dataset {
	cfg := DefaultSimulateConfig()
	cfg.NumUsers, cfg.NumItems, cfg.Density = users, items, density
	ratings, err := Simulate(cfg)
	require.NoError(t, err)
	data, err := NewDataset(ratings, cfg.Scale)
	require.NoError(t, err)
	return data
}

func TestSplit(t *testing.T) {
	data := simulated(t, 30, 20, 0.5)
	train, test, err := Split(data, 0.2, 0)
	require.NoError(t, err)
	assert.Equal(t, data.Count(), train.Count()+test.Count())
	assert.InDelta(t, float64(data.Count())*0.2, float64(test.Count()), 1)
	assert.Equal(t, data.Scale(), train.Scale())
	// every test user and item is known in train
	trainUsers := mapset.NewSet(train.GetUserDict().Strings()...)
	trainItems := mapset.NewSet(train.GetItemDict().Strings()...)
	for _, r := range test.GetRatings() {
		assert.True(t, trainUsers.Contains(r.UserId))
		assert.True(t, trainItems.Contains(r.ItemId))
	}
	// deterministic
	train2, test2, err := Split(data, 0.2, 0)
	require.NoError(t, err)
	assert.Equal(t, train.GetRatings(), train2.GetRatings())
	assert.Equal(t, test.GetRatings(), test2.GetRatings())
	// another seed, another split
	_, test3, err := Split(data, 0.2, 1)
	require.NoError(t, err)
	assert.NotEqual(t, test.GetRatings(), test3.GetRatings())
}

func TestSplit_Invalid(t *testing.T) {
	empty, err := NewDataset(nil, Scale{})
	require.NoError(t, err)
	_, _, err = Split(empty, 0.2, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
	data := simulated(t, 3, 3, 1)
	_, _, err = Split(data, 1, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSplitKnown(t *testing.T) {
	data := simulated(t, 10, 6, 1)
	split, err := SplitKnown(data, 0.5, 0)
	require.NoError(t, err)
	assert.Len(t, split.Known, 30)
	assert.Len(t, split.Unknown, 30)
	known := lo.GroupBy(split.Known, func(r Rating) string { return r.UserId })
	for _, ratings := range known {
		assert.Len(t, ratings, 3)
	}
	// no overlap
	pairs := mapset.NewSet(lo.Map(split.Known, func(r Rating, _ int) string { return r.UserId + "/" + r.ItemId })...)
	for _, r := range split.Unknown {
		assert.False(t, pairs.Contains(r.UserId+"/"+r.ItemId))
	}
	_, err = SplitKnown(data, 1, 0)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestCSV(t *testing.T) {
	ratings := []Rating{{"u1", "i,1", 4}, {"u2", "i2", 3.5}}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteCSV(buf, ",", true, ratings))
	assert.Equal(t, "user_id,item_id,rating\nu1,\"i,1\",4\nu2,i2,3.5\n", buf.String())
	read, err := ReadCSV(strings.NewReader(buf.String()), ",", true)
	require.NoError(t, err)
	assert.Equal(t, ratings, read)

	path := filepath.Join(t.TempDir(), "ratings.csv")
	require.NoError(t, os.WriteFile(path, []byte("u1\ti1\t4\t100\nu1\ti2\t2\t101\n\n"), 0644))
	data, err := LoadCSV(path, "\t", false, Scale{Min: 1, Max: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, data.Count())
	assert.Equal(t, Scale{Min: 1, Max: 5}, data.Scale())
}

func TestReadCSV_Invalid(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("u1,i1\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, err = ReadCSV(strings.NewReader("u1,i1,abc\n"), ",", false)
	assert.True(t, errors.Is(err, errors.NotValid))
}

func TestSimulate(t *testing.T) {
	cfg := DefaultSimulateConfig()
	ratings, err := Simulate(cfg)
	require.NoError(t, err)
	assert.Len(t, ratings, 50)
	for _, r := range ratings {
		assert.GreaterOrEqual(t, r.Rating, 1.0)
		assert.LessOrEqual(t, r.Rating, 5.0)
		assert.Equal(t, r.Rating, math.Round(r.Rating*2)/2)
	}
	again, err := Simulate(cfg)
	require.NoError(t, err)
	assert.Equal(t, ratings, again)

	cfg.Density = 0.5
	cfg.NumUsers, cfg.NumItems = 40, 40
	sparse, err := Simulate(cfg)
	require.NoError(t, err)
	assert.InDelta(t, 800, len(sparse), 100)

	cfg.Density = 0
	_, err = Simulate(cfg)
	assert.True(t, errors.Is(err, errors.NotValid))
}
