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


package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type elem struct {
	value  int32
	weight float32
}

func lighter(a, b elem) bool {
	return a.weight < b.weight
}

func TestTopKFilter(t *testing.T) {
	a := NewTopKFilter(3, lighter)
	a.Push(elem{10, 2})
	a.Push(elem{20, 8})
	a.Push(elem{30, 1})
	assert.Equal(t, []elem{{20, 8}, {10, 2}, {30, 1}}, a.PopAll())
	assert.Zero(t, a.Len())

	a = NewTopKFilter(3, lighter)
	for _, e := range []elem{{10, 2}, {20, 8}, {30, 1}, {40, 2}, {50, 5}, {12, 10}, {67, 7}, {32, 9}} {
		a.Push(e)
	}
	assert.Equal(t, 3, a.Len())
	assert.Equal(t, []elem{{12, 10}, {32, 9}, {20, 8}}, a.PopAll())
}

func TestTopKFilter_Ties(t *testing.T) {
	// equal weights rank lower indices first
	a := NewTopKFilter(2, func(x, y elem) bool {
		if x.weight != y.weight {
			return x.weight < y.weight
		}
		return x.value > y.value
	})
	for _, e := range []elem{{3, 1}, {1, 1}, {2, 1}, {0, 0.5}} {
		a.Push(e)
	}
	assert.Equal(t, []elem{{1, 1}, {2, 1}}, a.PopAll())

	empty := NewTopKFilter(0, lighter)
	empty.Push(elem{1, 1})
	assert.Empty(t, empty.PopAll())
}
