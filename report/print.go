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
	"fmt"
	"io"
	"strconv"

	"github.com/gorse-io/gridsearch/search"
	"github.com/juju/errors"
	"github.com/olekukonko/tablewriter"
)

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// Print renders the top rows and the factor breakdown of a report.
func Print(w io.Writer, report Report) error {
	if _, err := fmt.Fprintf(w, "%s: %d successful configurations\n", report.Method, report.Total); err != nil {
		return errors.Trace(err)
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "RMSE", "MAE", "Fit", "Eval", "Params")
	for i, row := range report.Top {
		if err := table.Append([]string{
			strconv.Itoa(i + 1),
			formatScore(row.RMSE),
			formatScore(row.MAE),
			row.FitTime.String(),
			row.EvalTime.String(),
			row.Params,
		}); err != nil {
			return errors.Trace(err)
		}
	}
	if err := table.Render(); err != nil {
		return errors.Trace(err)
	}
	for _, factor := range report.Factors {
		table = tablewriter.NewWriter(w)
		table.Header(factor.Name, "Count", "Mean RMSE", "Mean MAE")
		for _, group := range factor.Groups {
			if err := table.Append([]string{
				group.Level,
				strconv.Itoa(group.Count),
				formatScore(group.MeanRMSE),
				formatScore(group.MeanMAE),
			}); err != nil {
				return errors.Trace(err)
			}
		}
		if err := table.Render(); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// PrintComparison renders the best row of two tables and the winner.
func PrintComparison(w io.Writer, labelA string, a *search.ResultTable, labelB string, b *search.ResultTable) (string, error) {
	winner, err := Compare(labelA, a, labelB, b)
	if err != nil {
		return "", errors.Trace(err)
	}
	table := tablewriter.NewWriter(w)
	table.Header("Table", "Configurations", "Best RMSE", "Best MAE", "Params")
	for _, entry := range []struct {
		label string
		table *search.ResultTable
	}{{labelA, a}, {labelB, b}} {
		record := []string{entry.label, strconv.Itoa(entry.table.Len()), "-", "-", "-"}
		if best, ok := entry.table.Best(); ok {
			record[2], record[3], record[4] = formatScore(best.RMSE), formatScore(best.MAE), best.Params
		}
		if err = table.Append(record); err != nil {
			return "", errors.Trace(err)
		}
	}
	if err = table.Render(); err != nil {
		return "", errors.Trace(err)
	}
	if _, err = fmt.Fprintf(w, "winner: %s\n", winner); err != nil {
		return "", errors.Trace(err)
	}
	return winner, nil
}
