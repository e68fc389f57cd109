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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelMethod = "method"
	LabelStatus = "status"

	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
)

var (
	EvaluationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorse",
		Subsystem: "gridsearch",
		Name:      "evaluations_total",
	}, []string{LabelMethod, LabelStatus})
	EvaluationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gorse",
		Subsystem: "gridsearch",
		Name:      "evaluation_seconds",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{LabelMethod})
	CacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorse",
		Subsystem: "gridsearch",
		Name:      "cache_hits_total",
	}, []string{LabelMethod})
)
