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
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/goleak"

	"github.com/tochemey/actorlane/eventstream"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
	"github.com/tochemey/actorlane/telemetry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBoom = errors.New("boom")

// run executes one successful and one failing item on a lane watched by monitor
func run(t *testing.T, monitor lane.Monitor) *lane.Lane {
	t.Helper()
	l := lane.New(lane.WithName("watched"), lane.WithMonitor(monitor))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, l.Shutdown(ctx))
	})

	ctx := context.Background()
	ok, err := l.Enqueue(ctx, func(context.Context) error { return nil }, lane.WithTarget("target", "greeter"))
	require.NoError(t, err)
	require.NoError(t, ok.Await(ctx))

	failed, err := l.Enqueue(ctx, func(context.Context) error { return errBoom }, lane.WithTarget("target", "greeter"))
	require.NoError(t, err)
	require.ErrorIs(t, failed.Await(ctx), errBoom)
	return l
}

func TestLogging(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := log.NewZap(log.DebugLevel, buffer)

	run(t, NewLogging(logger))
	require.NoError(t, logger.Flush())

	output := buffer.String()
	assert.Contains(t, output, "on greeter started")
	assert.Contains(t, output, "on greeter done in")
	assert.Contains(t, output, "failed after")
	assert.Contains(t, output, "boom")

	assert.NotNil(t, NewLogging(nil))
}

func TestMetrics(t *testing.T) {
	t.Run("With recorded items", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { require.NoError(t, provider.Shutdown(context.Background())) }()

		metrics, err := NewMetrics(provider.Meter("test"))
		require.NoError(t, err)

		l := run(t, metrics)
		registration, err := metrics.ObserveQueues(func() []lane.Stats { return []lane.Stats{l.Stats()} })
		require.NoError(t, err)
		defer func() { require.NoError(t, registration.Unregister()) }()

		var data metricdata.ResourceMetrics
		require.NoError(t, reader.Collect(context.Background(), &data))

		names := collected(data)
		assert.Subset(t, names, []string{
			"lane_processed_count",
			"lane_failed_count",
			"lane_inflight_count",
			"lane_item_duration",
			"lane_queued_count",
		})
		assert.EqualValues(t, 2, sumOf(data, "lane_processed_count"))
		assert.EqualValues(t, 1, sumOf(data, "lane_failed_count"))
		assert.EqualValues(t, 0, sumOf(data, "lane_inflight_count"))
	})
	t.Run("With noop meter", func(t *testing.T) {
		metrics, err := NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
		require.NoError(t, err)
		run(t, metrics)
	})
}

func collected(data metricdata.ResourceMetrics) []string {
	var names []string
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			names = append(names, m.Name)
		}
	}
	return names
}

func sumOf(data metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, scope := range data.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, point := range sum.DataPoints {
					total += point.Value
				}
			}
		}
	}
	return total
}

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { require.NoError(t, provider.Shutdown(context.Background())) }()

	tracing := NewTracing(provider.Tracer("test"))
	run(t, tracing)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "lane.watched", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Len(t, spans[1].Events(), 1)
	assert.Zero(t, tracing.Open())

	// an unknown exit is ignored
	tracing.Exit(context.Background(), &lane.CallDetails{})
}

func TestTracingParentsItemWork(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { require.NoError(t, provider.Shutdown(context.Background())) }()

	tracer := provider.Tracer("test")
	l := lane.New(lane.WithName("traced"), lane.WithMonitor(Multi(NewLogging(log.DiscardLogger), NewTracing(tracer))))
	defer func() { require.NoError(t, l.Shutdown(context.Background())) }()

	item, err := l.Enqueue(context.Background(), func(ctx context.Context) error {
		_, span := tracer.Start(ctx, "work")
		span.End()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, item.Await(context.Background()))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	work, itemSpan := spans[0], spans[1]
	assert.Equal(t, "work", work.Name())
	assert.Equal(t, "lane.traced", itemSpan.Name())
	assert.Equal(t, itemSpan.SpanContext().SpanID(), work.Parent().SpanID())
	assert.Equal(t, itemSpan.SpanContext().TraceID(), work.SpanContext().TraceID())
}

func TestEvents(t *testing.T) {
	stream := eventstream.New()
	defer stream.Close()
	sub := stream.AddSubscriber()
	stream.Subscribe(sub, CallsTopic)

	run(t, NewEvents(stream))

	var events []*CallEvent
	for msg := range sub.Iterator() {
		events = append(events, msg.Payload().(*CallEvent))
	}
	require.Len(t, events, 4)
	phases := make([]Phase, 0, len(events))
	for _, event := range events {
		phases = append(phases, event.Phase)
		assert.Equal(t, "watched", event.Lane)
		assert.Equal(t, "greeter", event.TargetType)
	}
	assert.Equal(t, []Phase{Entered, Exited, Entered, Exited}, phases)
	assert.NoError(t, events[1].Err)
	assert.ErrorIs(t, events[3].Err, errBoom)
	assert.Equal(t, events[2].ItemID, events[3].ItemID)
}

type countingMonitor struct {
	enters, exits int
}

func (m *countingMonitor) Enter(context.Context, *lane.CallDetails) { m.enters++ }
func (m *countingMonitor) Exit(context.Context, *lane.CallDetails)  { m.exits++ }

func TestMulti(t *testing.T) {
	first, second := new(countingMonitor), new(countingMonitor)
	run(t, Multi(first, nil, second))

	assert.Equal(t, 2, first.enters)
	assert.Equal(t, 2, first.exits)
	assert.Equal(t, 2, second.enters)
	assert.Equal(t, 2, second.exits)
}

func TestFromTelemetry(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tracerProvider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { require.NoError(t, tracerProvider.Shutdown(context.Background())) }()

	monitor, err := FromTelemetry(telemetry.New(
		telemetry.WithTracerProvider(tracerProvider),
		telemetry.WithMeterProvider(metricnoop.NewMeterProvider()),
	))
	require.NoError(t, err)

	run(t, monitor)
	assert.Len(t, recorder.Ended(), 2)
	assert.True(t, slices.ContainsFunc(recorder.Ended(), func(span sdktrace.ReadOnlySpan) bool {
		return span.InstrumentationScope().Name == "github.com/tochemey/actorlane"
	}))
}
