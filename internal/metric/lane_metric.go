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

package metric

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// LaneMetric defines the lane instrumentation
type LaneMetric struct {
	// Specifies the total number of items processed
	processedCount metric.Int64Counter
	// Specifies the total number of items that failed
	failedCount metric.Int64Counter
	// Specifies the number of items currently running
	inflight metric.Int64UpDownCounter
	// Specifies how long items run. This is expressed in milliseconds
	duration metric.Float64Histogram
	// Specifies the number of items waiting in the mailboxes
	queued metric.Int64ObservableGauge
}

// NewLaneMetric creates an instance of LaneMetric
func NewLaneMetric(meter metric.Meter) (*LaneMetric, error) {
	laneMetric := new(LaneMetric)
	var err error

	if laneMetric.processedCount, err = meter.Int64Counter(
		"lane_processed_count",
		metric.WithDescription("Total number of items processed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create processedCount instrument, %w", err)
	}

	if laneMetric.failedCount, err = meter.Int64Counter(
		"lane_failed_count",
		metric.WithDescription("Total number of items that failed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failedCount instrument, %w", err)
	}

	if laneMetric.inflight, err = meter.Int64UpDownCounter(
		"lane_inflight_count",
		metric.WithDescription("Number of items currently running"),
	); err != nil {
		return nil, fmt.Errorf("failed to create inflight instrument, %w", err)
	}

	if laneMetric.duration, err = meter.Float64Histogram(
		"lane_item_duration",
		metric.WithDescription("The latency of items in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration instrument, %w", err)
	}

	if laneMetric.queued, err = meter.Int64ObservableGauge(
		"lane_queued_count",
		metric.WithDescription("Number of items waiting in the mailbox"),
	); err != nil {
		return nil, fmt.Errorf("failed to create queued instrument, %w", err)
	}

	return laneMetric, nil
}

// ProcessedCount returns the total number of items processed
func (x *LaneMetric) ProcessedCount() metric.Int64Counter {
	return x.processedCount
}

// FailedCount returns the total number of items that failed
func (x *LaneMetric) FailedCount() metric.Int64Counter {
	return x.failedCount
}

// Inflight returns the number of items currently running
func (x *LaneMetric) Inflight() metric.Int64UpDownCounter {
	return x.inflight
}

// Duration returns the item latency in milliseconds
func (x *LaneMetric) Duration() metric.Float64Histogram {
	return x.duration
}

// Queued returns the number of items waiting in the mailbox
func (x *LaneMetric) Queued() metric.Int64ObservableGauge {
	return x.queued
}
