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

// Package monitor provides lane.Monitor implementations: structured logging,
// OpenTelemetry metrics and tracing, and call events published on an event
// stream. Monitors are combined with Multi.
package monitor

import (
	"context"

	"github.com/tochemey/actorlane/lane"
)

// multi fans notifications out to several monitors
type multi []lane.Monitor

var _ lane.Monitor = (*multi)(nil)

// Multi returns a monitor notifying every given monitor in order.
// Nil monitors are skipped.
func Multi(monitors ...lane.Monitor) lane.Monitor {
	out := make(multi, 0, len(monitors))
	for _, m := range monitors {
		if m != nil {
			out = append(out, m)
		}
	}
	return &out
}

// Enter hands every monitor the context propagated by the previous ones
func (m *multi) Enter(ctx context.Context, details *lane.CallDetails) {
	for _, monitor := range *m {
		monitor.Enter(ctx, details)
		if propagated := details.Context(); propagated != nil {
			ctx = propagated
		}
	}
}

func (m *multi) Exit(ctx context.Context, details *lane.CallDetails) {
	for _, monitor := range *m {
		monitor.Exit(ctx, details)
	}
}
