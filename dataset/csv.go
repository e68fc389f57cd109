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
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gorse-io/gridsearch/base"
	"github.com/gorse-io/gridsearch/base/encoding"
	"github.com/gorse-io/gridsearch/base/log"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// ReadCSV parses ratings from user, item and rating columns. Extra columns are ignored.
func ReadCSV(r io.Reader, sep string, header bool) ([]Rating, error) {
	var ratings []Rating
	sc := bufio.NewScanner(r)
	err := base.ScanRecords(sc, sep, func(record int, fields []string) (bool, error) {
		if header && record == 0 {
			return true, nil
		}
		if len(fields) == 1 && strings.TrimSpace(fields[0]) == "" {
			return true, nil
		}
		if len(fields) < 3 {
			return false, errors.NotValidf("record %d has %d fields", record+1, len(fields))
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return false, errors.NewNotValid(err, fmt.Sprintf("record %d", record+1))
		}
		ratings = append(ratings, Rating{
			UserId: strings.TrimSpace(fields[0]),
			ItemId: strings.TrimSpace(fields[1]),
			Rating: value,
		})
		return true, nil
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return ratings, nil
}

// LoadCSV reads a ratings file into a dataset.
func LoadCSV(path, sep string, header bool, scale Scale) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Logger().Error("failed to close file", zap.String("path", path), zap.Error(err))
		}
	}()
	ratings, err := ReadCSV(file, sep, header)
	if err != nil {
		return nil, errors.Annotate(err, path)
	}
	log.Logger().Info("load ratings", zap.String("path", path), zap.Int("n_ratings", len(ratings)))
	return NewDataset(ratings, scale)
}

// WriteCSV writes ratings as user, item and rating columns.
func WriteCSV(w io.Writer, sep string, header bool, ratings []Rating) error {
	bw := bufio.NewWriter(w)
	if header {
		if _, err := fmt.Fprintln(bw, base.FormatRecord(sep, "user_id", "item_id", "rating")); err != nil {
			return errors.Trace(err)
		}
	}
	for _, r := range ratings {
		line := base.FormatRecord(sep, r.UserId, r.ItemId, encoding.FormatFloat64(r.Rating))
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(bw.Flush())
}
