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
	"math"

	"github.com/gorse-io/gridsearch/model"
)

// vector is a sparse rating vector keyed by user or item index.
type vector map[int32]float64

type similarityFunc func(a, b vector) float64

func similarityOf(kind model.Similarity) similarityFunc {
	switch kind {
	case model.Cosine:
		return cosine
	case model.Pearson:
		return pearson
	case model.Jaccard:
		return jaccard
	case model.MSD:
		return msd
	}
	return nil
}

// common calls f on every key present in both vectors.
func common(a, b vector, f func(x, y float64)) {
	if len(a) > len(b) {
		a, b = b, a
		inner := f
		f = func(x, y float64) { inner(y, x) }
	}
	for k, x := range a {
		if y, ok := b[k]; ok {
			f(x, y)
		}
	}
}

// cosine similarity over co-rated entries. NaN if there are none.
func cosine(a, b vector) float64 {
	var dot, normA, normB float64
	common(a, b, func(x, y float64) {
		dot += x * y
		normA += x * x
		normB += y * y
	})
	if normA == 0 || normB == 0 {
		return math.NaN()
	}
	return dot / math.Sqrt(normA*normB)
}

// pearson correlation over co-rated entries. NaN with fewer than two of them.
func pearson(a, b vector) float64 {
	var n, sumA, sumB float64
	common(a, b, func(x, y float64) {
		n++
		sumA += x
		sumB += y
	})
	if n < 2 {
		return math.NaN()
	}
	meanA, meanB := sumA/n, sumB/n
	var cov, varA, varB float64
	common(a, b, func(x, y float64) {
		cov += (x - meanA) * (y - meanB)
		varA += (x - meanA) * (x - meanA)
		varB += (y - meanB) * (y - meanB)
	})
	if varA == 0 || varB == 0 {
		return math.NaN()
	}
	return cov / math.Sqrt(varA*varB)
}

// jaccard index of the rated sets.
func jaccard(a, b vector) float64 {
	var intersect float64
	common(a, b, func(float64, float64) {
		intersect++
	})
	union := float64(len(a)+len(b)) - intersect
	if union == 0 {
		return math.NaN()
	}
	return intersect / union
}

// msd is the inverse mean squared difference over co-rated entries.
func msd(a, b vector) float64 {
	var n, sum float64
	common(a, b, func(x, y float64) {
		n++
		sum += (x - y) * (x - y)
	})
	if n == 0 {
		return math.NaN()
	}
	return 1 / (sum/n + 1)
}
