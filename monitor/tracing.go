// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package monitor

import (
	"context"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tochemey/actorlane/internal/xsync"
	"github.com/tochemey/actorlane/lane"
)

// Tracing opens one span per queued item. The item and its continuations run
// under the span's context, so spans they start are its children. The span
// records the item failure if any.
type Tracing struct {
	tracer trace.Tracer
	spans  *xsync.Map[*lane.CallDetails, trace.Span]
}

var _ lane.Monitor = (*Tracing)(nil)

// NewTracing creates a Tracing monitor
func NewTracing(tracer trace.Tracer) *Tracing {
	return &Tracing{
		tracer: tracer,
		spans:  xsync.NewMap[*lane.CallDetails, trace.Span](),
	}
}

// Enter implements lane.Monitor
func (m *Tracing) Enter(ctx context.Context, details *lane.CallDetails) {
	spanCtx, span := m.tracer.Start(ctx, "lane."+details.Lane.Name(),
		trace.WithTimestamp(details.StartedAt),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(laneAttributes(details)...),
	)
	m.spans.Set(details, span)
	details.Propagate(spanCtx)
}

// Exit implements lane.Monitor
func (m *Tracing) Exit(_ context.Context, details *lane.CallDetails) {
	span, ok := m.spans.DeleteFunc(details, func(trace.Span) bool { return true })
	if !ok {
		return
	}

	if details.Err != nil {
		span.RecordError(details.Err)
		span.SetStatus(codes.Error, details.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(details.StartedAt.Add(details.Duration)))
}

// Open returns the number of spans started and not yet ended
func (m *Tracing) Open() int {
	return m.spans.Len()
}
