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
	"math"
	"sort"
	"time"

	"github.com/gorse-io/gridsearch/model"
)

// ResultRow is the outcome of evaluating one configuration. Failed rows carry Error and NaN metrics.
type ResultRow struct {
	Method model.Method
	Params string
	Key    string
	RMSE   float64
	MAE    float64
	Error  string
	model.Columns
	FitTime  time.Duration
	EvalTime time.Duration
}

func (r ResultRow) Failed() bool {
	return r.Error != "" || math.IsNaN(r.RMSE)
}

// Less orders rows by RMSE, then MAE, then parameters.
func (r ResultRow) Less(other ResultRow) bool {
	if r.RMSE != other.RMSE {
		return r.RMSE < other.RMSE
	}
	if r.MAE != other.MAE {
		return r.MAE < other.MAE
	}
	return r.Params < other.Params
}

// ResultTable holds the successful rows of a grid search.
type ResultTable struct {
	Method model.Method
	Grid   string
	Rows   []ResultRow
}

func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// Best returns the row with the lowest RMSE.
func (t *ResultTable) Best() (ResultRow, bool) {
	if len(t.Rows) == 0 {
		return ResultRow{}, false
	}
	best := t.Rows[0]
	for _, row := range t.Rows[1:] {
		if row.Less(best) {
			best = row
		}
	}
	return best, true
}

// Sorted returns a copy of the rows from best to worst.
func (t *ResultTable) Sorted() []ResultRow {
	rows := make([]ResultRow, len(t.Rows))
	copy(rows, t.Rows)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Less(rows[j])
	})
	return rows
}
