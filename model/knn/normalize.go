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

	"github.com/gorse-io/gridsearch/dataset"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/model/baseline"
	"github.com/juju/errors"
	"gonum.org/v1/gonum/stat"
)

const minStdDev = 1e-5

// shift maps a rating r to (r - offset) / scale.
type shift struct {
	offset float64
	scale  float64
}

var identity = shift{offset: 0, scale: 1}

// normalizer removes per-user (row) or per-item (column) effects from ratings. Only one of the row and
// item shifts of a rating differs from identity, depending on the axis.
type normalizer struct {
	method    model.Normalization
	axis      model.Axis
	itemShift []shift
	bias      *baseline.Model
}

func newNormalizer(ctx context.Context, train *dataset.Dataset, method model.Normalization, axis model.Axis) (*normalizer, error) {
	n := &normalizer{method: method, axis: axis}
	if method == model.NormBaseline {
		bias, err := baseline.Fit(ctx, train, baseline.DefaultParams())
		if err != nil {
			return nil, errors.Trace(err)
		}
		n.bias = bias
	}
	n.itemShift = make([]shift, train.CountItems())
	values := make([]float64, 0)
	for i, itemId := range train.GetItemDict().Strings() {
		values = values[:0]
		for _, p := range train.ItemRatings(int32(i)) {
			_, _, r := train.Get(int(p))
			values = append(values, r)
		}
		n.itemShift[i] = n.columnShift(itemId, values)
	}
	return n, nil
}

func (n *normalizer) statsShift(values []float64) shift {
	if len(values) == 0 {
		return identity
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	if n.method == model.NormMean || std < minStdDev {
		std = 1
	}
	return shift{offset: mean, scale: std}
}

// rowShift returns the shift of a user given all of its ratings.
func (n *normalizer) rowShift(userId string, values []float64) shift {
	if n.axis != model.Row {
		return identity
	}
	switch n.method {
	case model.NormMean, model.NormZScore:
		return n.statsShift(values)
	case model.NormBaseline:
		return shift{offset: n.bias.Offset(model.Row, userId, ""), scale: 1}
	}
	return identity
}

func (n *normalizer) columnShift(itemId string, values []float64) shift {
	if n.axis != model.Column {
		return identity
	}
	switch n.method {
	case model.NormMean, model.NormZScore:
		return n.statsShift(values)
	case model.NormBaseline:
		return shift{offset: n.bias.Offset(model.Column, "", itemId), scale: 1}
	}
	return identity
}

func (n *normalizer) forward(row shift, item int32, r float64) float64 {
	column := n.itemShift[item]
	return (r - row.offset - column.offset) / (row.scale * column.scale)
}

func (n *normalizer) inverse(row shift, item int32, z float64) float64 {
	column := identity
	if item >= 0 {
		column = n.itemShift[item]
	}
	return z*row.scale*column.scale + row.offset + column.offset
}
