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

import "container/heap"

// TopKFilter keeps the k greatest elements pushed into it. less(a, b) reports whether a ranks below b.
type TopKFilter[T any] struct {
	elems minHeap[T]
	k     int
}

// NewTopKFilter creates a top k filter.
func NewTopKFilter[T any](k int, less func(a, b T) bool) *TopKFilter[T] {
	return &TopKFilter[T]{elems: minHeap[T]{less: less}, k: k}
}

func (filter *TopKFilter[T]) Len() int {
	return filter.elems.Len()
}

// Push adds an element. The complexity is O(log k).
func (filter *TopKFilter[T]) Push(x T) {
	if filter.k <= 0 {
		return
	}
	if filter.elems.Len() < filter.k {
		heap.Push(&filter.elems, x)
	} else if filter.elems.less(filter.elems.values[0], x) {
		filter.elems.values[0] = x
		heap.Fix(&filter.elems, 0)
	}
}

// PopAll empties the filter and returns its elements, greatest first.
func (filter *TopKFilter[T]) PopAll() []T {
	values := make([]T, filter.elems.Len())
	for i := len(values) - 1; i >= 0; i-- {
		values[i] = heap.Pop(&filter.elems).(T)
	}
	return values
}

type minHeap[T any] struct {
	values []T
	less   func(a, b T) bool
}

func (h *minHeap[T]) Len() int {
	return len(h.values)
}

func (h *minHeap[T]) Less(i, j int) bool {
	return h.less(h.values[i], h.values[j])
}

func (h *minHeap[T]) Swap(i, j int) {
	h.values[i], h.values[j] = h.values[j], h.values[i]
}

func (h *minHeap[T]) Push(x any) {
	h.values = append(h.values, x.(T))
}

func (h *minHeap[T]) Pop() any {
	n := len(h.values)
	x := h.values[n-1]
	h.values = h.values[:n-1]
	return x
}
