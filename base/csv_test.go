// Copyright 2020 gorse Project Authors
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

package base

import (
	"bufio"
	"strings"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateId(t *testing.T) {
	assert.True(t, errors.Is(ValidateId(""), errors.NotValid))
	assert.True(t, errors.Is(ValidateId("a\nb"), errors.NotValid))
	assert.NoError(t, ValidateId("abc"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "123", Escape("123", ","))
	assert.Equal(t, "\"\"\"123\"\"\"", Escape("\"123\"", ","))
	assert.Equal(t, "\"1,2,3\"", Escape("1,2,3", ","))
	assert.Equal(t, "1,2,3", Escape("1,2,3", "\t"))
	assert.Equal(t, "\"1\r\n2\r\n3\"", Escape("1\r\n2\r\n3", ","))
	assert.Equal(t, "u1,\"a,b\",3.5", FormatRecord(",", "u1", "a,b", "3.5"))
}

func scanRecords(t *testing.T, text string) [][]string {
	sc := bufio.NewScanner(strings.NewReader(text))
	records := make([][]string, 0)
	err := ScanRecords(sc, ",", func(_ int, fields []string) (bool, error) {
		records = append(records, fields)
		return fields[0] != "STOP", nil
	})
	assert.NoError(t, err)
	return records
}

func TestScanRecords(t *testing.T) {
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}},
		scanRecords(t, "1,2,3\r\n4,5,6\r\n"))
	assert.Equal(t, [][]string{{"1,2", "3,4", "5,6"}, {"2,3", "4,6", "6,9"}},
		scanRecords(t, "\"1,2\",\"3,4\",\"5,6\"\r\n\"2,3\",\"4,6\",\"6,9\""))
	assert.Equal(t, [][]string{{"\"1,2\"", "3"}},
		scanRecords(t, "\"\"\"1,2\"\"\",3"))
	assert.Equal(t, [][]string{{"1\r\n2", "3"}},
		scanRecords(t, "\"1\r\n2\",3"))
	assert.Equal(t, [][]string{{"1", "2", "3"}, {"4", "5", "6"}, {"STOP"}},
		scanRecords(t, "1,2,3\r\n4,5,6\r\nSTOP\r\n7,8,9"))
}

func TestScanRecords_Errors(t *testing.T) {
	err := ScanRecords(bufio.NewScanner(strings.NewReader("\"1,2")), ",", func(int, []string) (bool, error) {
		return true, nil
	})
	assert.True(t, errors.Is(err, errors.NotValid))
	err = ScanRecords(bufio.NewScanner(strings.NewReader("1,2")), "::", func(int, []string) (bool, error) {
		return true, nil
	})
	assert.True(t, errors.Is(err, errors.NotValid))
	err = ScanRecords(bufio.NewScanner(strings.NewReader("1,2")), ",", func(int, []string) (bool, error) {
		return false, errors.New("stop")
	})
	assert.Error(t, err)
}
