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

	"github.com/juju/errors"
)

// ValidateId validates user/item id. Id cannot be empty or contain line breaks.
func ValidateId(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.NotValidf("empty id")
	} else if strings.ContainsAny(text, "\r\n") {
		return errors.NotValidf("id %q with line break", text)
	}
	return nil
}

// Escape a field for csv.
func Escape(text string, sep string) string {
	if !strings.Contains(text, sep) &&
		!strings.ContainsAny(text, "\"\r\n") {
		return text
	}
	return "\"" + strings.ReplaceAll(text, "\"", "\"\"") + "\""
}

// FormatRecord joins escaped fields with the separator.
func FormatRecord(sep string, fields ...string) string {
	escaped := make([]string, len(fields))
	for i, field := range fields {
		escaped[i] = Escape(field, sep)
	}
	return strings.Join(escaped, sep)
}

// ScanRecords parses separated records from a scanner. A quoted field may span lines. The handler
// receives the zero-based record number and stops the scan by returning false or an error.
func ScanRecords(sc *bufio.Scanner, sep string, handler func(int, []string) (bool, error)) error {
	var (
		record  int
		fields  []string
		field   strings.Builder
		quoted  bool
		sepRune = []rune(sep)
	)
	if len(sepRune) != 1 {
		return errors.NotValidf("separator %q", sep)
	}
	for sc.Scan() {
		line := []rune(sc.Text())
		if quoted {
			// the scanner drops line breaks inside quoted fields
			field.WriteString("\r\n")
		}
		for i := 0; i < len(line); i++ {
			switch {
			case line[i] == sepRune[0] && !quoted:
				fields = append(fields, field.String())
				field.Reset()
			case line[i] == '"' && quoted:
				if i+1 < len(line) && line[i+1] == '"' {
					field.WriteRune('"')
					i++
				} else {
					quoted = false
				}
			case line[i] == '"':
				quoted = true
			default:
				field.WriteRune(line[i])
			}
		}
		if quoted {
			continue
		}
		fields = append(fields, field.String())
		field.Reset()
		next, err := handler(record, fields)
		if err != nil {
			return errors.Trace(err)
		} else if !next {
			return nil
		}
		fields = nil
		record++
	}
	if quoted {
		return errors.NotValidf("unterminated quoted field at record %d", record)
	}
	return errors.Trace(sc.Err())
}
