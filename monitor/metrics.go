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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	imetric "github.com/tochemey/actorlane/internal/metric"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/telemetry"
)

const (
	laneNameKey   = attribute.Key("lane.name")
	targetTypeKey = attribute.Key("lane.target.type")
	failedKey     = attribute.Key("lane.item.failed")
)

// Metrics records item counts and latencies with OpenTelemetry instruments.
type Metrics struct {
	meter       metric.Meter
	instruments *imetric.LaneMetric
}

var _ lane.Monitor = (*Metrics)(nil)

// NewMetrics creates a Metrics monitor from meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	instruments, err := imetric.NewLaneMetric(meter)
	if err != nil {
		return nil, err
	}
	return &Metrics{meter: meter, instruments: instruments}, nil
}

// Enter implements lane.Monitor
func (m *Metrics) Enter(ctx context.Context, details *lane.CallDetails) {
	m.instruments.Inflight().Add(ctx, 1, metric.WithAttributes(laneAttributes(details)...))
}

// Exit implements lane.Monitor
func (m *Metrics) Exit(ctx context.Context, details *lane.CallDetails) {
	attrs := laneAttributes(details)
	m.instruments.Inflight().Add(ctx, -1, metric.WithAttributes(attrs...))

	withOutcome := metric.WithAttributes(append(attrs, failedKey.Bool(details.Err != nil))...)
	m.instruments.ProcessedCount().Add(ctx, 1, withOutcome)
	m.instruments.Duration().Record(ctx, float64(details.Duration.Microseconds())/1000, withOutcome)
	if details.Err != nil {
		m.instruments.FailedCount().Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// ObserveQueues reports the mailbox depth of the lanes returned by source
// every time the meter collects. Unregister the returned registration to stop.
func (m *Metrics) ObserveQueues(source func() []lane.Stats) (metric.Registration, error) {
	registration, err := m.meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		for _, stats := range source() {
			observer.ObserveInt64(m.instruments.Queued(), stats.Queued, metric.WithAttributes(laneNameKey.String(stats.Name)))
		}
		return nil
	}, m.instruments.Queued())
	if err != nil {
		return nil, fmt.Errorf("failed to register queue observer: %w", err)
	}
	return registration, nil
}

// FromTelemetry returns a monitor recording metrics and spans with the
// providers held by t.
func FromTelemetry(t *telemetry.Telemetry) (lane.Monitor, error) {
	metrics, err := NewMetrics(t.Meter())
	if err != nil {
		return nil, err
	}
	return Multi(metrics, NewTracing(t.Tracer())), nil
}

func laneAttributes(details *lane.CallDetails) []attribute.KeyValue {
	return []attribute.KeyValue{
		laneNameKey.String(details.Lane.Name()),
		targetTypeKey.String(details.TargetType),
	}
}
