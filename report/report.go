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


// Package report ranks grid search results, aggregates errors by hyper-parameter and compares tables.
package report

import (
	"sort"
	"strconv"

	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/gorse-io/gridsearch/model"
	"github.com/gorse-io/gridsearch/search"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

// Group is the mean error of the rows sharing one level of a factor.
type Group struct {
	Level    string
	Count    int
	MeanRMSE float64
	MeanMAE  float64

	order float64
}

// Factor is a hyper-parameter rows are grouped by.
type Factor struct {
	Name   string
	Groups []Group
}

type Report struct {
	Method  model.Method
	Total   int
	Top     []search.ResultRow
	Factors []Factor
}

type factor struct {
	name    string
	numeric bool
	level   func(row search.ResultRow) string
}

func factorsOf(method model.Method) []factor {
	similarity := factor{name: string(model.SimilarityName), level: func(r search.ResultRow) string { return r.Similarity }}
	normalization := factor{name: string(model.NormalizationName), level: func(r search.ResultRow) string { return r.Normalization }}
	axis := factor{name: string(model.AxisName), level: func(r search.ResultRow) string { return r.NormalizationAxis }}
	neighbors := func(name model.ParamName) factor {
		return factor{name: string(name), numeric: true, level: func(r search.ResultRow) string { return strconv.Itoa(r.Neighbors) }}
	}
	switch method {
	case model.UserBased:
		return []factor{similarity, neighbors(model.NeighborsName),
			{name: string(model.SampleSizeName), numeric: true, level: func(r search.ResultRow) string { return strconv.Itoa(r.SampleSize) }},
			normalization, axis}
	case model.ItemBased:
		return []factor{similarity, neighbors(model.KName), normalization, axis}
	case model.Baseline:
		return []factor{
			{name: string(model.LambdaUserName), numeric: true, level: func(r search.ResultRow) string { return encoding.FormatFloat64(r.LambdaUser) }},
			{name: string(model.LambdaItemName), numeric: true, level: func(r search.ResultRow) string { return encoding.FormatFloat64(r.LambdaItem) }},
		}
	}
	return nil
}

// Summarize ranks rows by RMSE, keeps the best topN (all if topN <= 0) and averages errors per level of
// every factor of the method.
func Summarize(table *search.ResultTable, topN int) Report {
	sorted := table.Sorted()
	report := Report{
		Method: table.Method,
		Total:  len(sorted),
		Top:    sorted,
	}
	if topN > 0 && topN < len(sorted) {
		report.Top = sorted[:topN]
	}
	for _, f := range factorsOf(table.Method) {
		groups := lo.GroupBy(table.Rows, f.level)
		summary := Factor{Name: f.name}
		for level, rows := range groups {
			group := Group{
				Level:    level,
				Count:    len(rows),
				MeanRMSE: stat.Mean(lo.Map(rows, func(r search.ResultRow, _ int) float64 { return r.RMSE }), nil),
				MeanMAE:  stat.Mean(lo.Map(rows, func(r search.ResultRow, _ int) float64 { return r.MAE }), nil),
			}
			if f.numeric {
				group.order, _ = strconv.ParseFloat(level, 64)
			}
			summary.Groups = append(summary.Groups, group)
		}
		sort.Slice(summary.Groups, func(i, j int) bool {
			a, b := summary.Groups[i], summary.Groups[j]
			if a.order != b.order {
				return a.order < b.order
			}
			return a.Level < b.Level
		})
		report.Factors = append(report.Factors, summary)
	}
	return report
}

// Compare returns the label of the table whose best row has the lower RMSE. On an exact tie the first
// table wins. A table without rows loses; comparing two empty tables is an error.
func Compare(labelA string, a *search.ResultTable, labelB string, b *search.ResultTable) (string, error) {
	bestA, okA := a.Best()
	bestB, okB := b.Best()
	switch {
	case !okA && !okB:
		return "", errors.NotValidf("comparison of empty tables %s and %s", labelA, labelB)
	case !okA:
		return labelB, nil
	case !okB:
		return labelA, nil
	case bestB.RMSE < bestA.RMSE:
		return labelB, nil
	default:
		return labelA, nil
	}
}
