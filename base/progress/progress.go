// Copyright 2024 gorse Project Authors
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

package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/atomic"
)

type spanKeyType struct{}

type reporterKeyType struct{}

type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Reporter renders the progress of a span, e.g. a terminal progress bar.
type Reporter interface {
	Add(n int) error
	Finish() error
}

// ReporterFactory creates a reporter for a span when it starts.
type ReporterFactory func(name string, total int) Reporter

// WithReporter attaches a reporter factory to the context. Spans started under the context report to it.
func WithReporter(ctx context.Context, factory ReporterFactory) context.Context {
	return context.WithValue(ctx, reporterKeyType{}, factory)
}

type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	ctx, span := Start(ctx, name, total)
	t.spans.Store(name, span)
	return ctx, span
}

// List returns the progress of root spans sorted by start time.
func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(_, value any) bool {
		span := value.(*Span)
		p := span.Progress()
		p.Tracer = t.name
		progress = append(progress, p)
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].StartTime.Before(progress[j].StartTime)
	})
	return progress
}

type Span struct {
	name     string
	total    int
	count    *atomic.Int64
	mu       sync.Mutex
	status   Status
	err      error
	start    time.Time
	finish   time.Time
	reporter Reporter
	parent   *Span
}

// Start creates a span under the span carried by ctx, if any.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := &Span{
		name:   name,
		total:  total,
		count:  atomic.NewInt64(0),
		status: StatusRunning,
		start:  time.Now(),
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if parent, ok := ctx.Value(spanKeyType{}).(*Span); ok {
		span.parent = parent
	}
	if factory, ok := ctx.Value(reporterKeyType{}).(ReporterFactory); ok && factory != nil {
		span.reporter = factory(name, total)
	}
	return context.WithValue(ctx, spanKeyType{}, span), span
}

// FromContext returns the span carried by ctx or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKeyType{}).(*Span)
	return span
}

// Add n finished units. Safe for concurrent use.
func (s *Span) Add(n int) {
	s.count.Add(int64(n))
	if s.reporter != nil {
		_ = s.reporter.Add(n)
	}
}

func (s *Span) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return
	}
	s.count.Store(int64(s.total))
	s.status = StatusComplete
	s.finish = time.Now()
	if s.reporter != nil {
		_ = s.reporter.Finish()
	}
}

// Fail marks the span and its ancestors as failed.
func (s *Span) Fail(err error) {
	for span := s; span != nil; span = span.parent {
		span.mu.Lock()
		span.status = StatusFailed
		span.err = err
		if span.finish.IsZero() {
			span.finish = time.Now()
		}
		span.mu.Unlock()
	}
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

func (s *Span) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := Progress{
		Name:       s.name,
		Status:     s.status,
		Count:      int(s.count.Load()),
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}
	if s.err != nil {
		p.Error = s.err.Error()
	}
	return p
}

type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}
