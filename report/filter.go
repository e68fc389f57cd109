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


package report

import (
	"github.com/expr-lang/expr"
	"github.com/gorse-io/gridsearch/search"
	"github.com/juju/errors"
)

// Filter keeps the rows for which an expression holds. The expression sees the row as `row`, for
// example `row.Similarity == "cosine" && row.Neighbors >= 20`. An empty expression keeps every row.
func Filter(table *search.ResultTable, filter string) (*search.ResultTable, error) {
	if filter == "" {
		return table, nil
	}
	program, err := expr.Compile(filter, expr.Env(map[string]any{
		"row": search.ResultRow{},
	}), expr.AsBool())
	if err != nil {
		return nil, errors.NewNotValid(err, "filter "+filter)
	}
	filtered := &search.ResultTable{Method: table.Method, Grid: table.Grid}
	for _, row := range table.Rows {
		result, err := expr.Run(program, map[string]any{
			"row": row,
		})
		if err != nil {
			return nil, errors.Annotatef(err, "failed to evaluate filter on %s", row.Params)
		}
		if result.(bool) {
			filtered.Rows = append(filtered.Rows, row)
		}
	}
	return filtered, nil
}
