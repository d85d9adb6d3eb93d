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

package lane

import (
	"context"
	"fmt"
	"sync"
	"time"

	gerrors "github.com/tochemey/actorlane/errors"
)

// CallDetails describes one item execution to a Monitor.
type CallDetails struct {
	// Lane is the lane running the item
	Lane *Lane
	// Target is the object the item acts upon, when known
	Target any
	// TargetType is the type tag of the target
	TargetType string
	// Item is the unit of work
	Item *Item
	// StartedAt is set before Enter is called
	StartedAt time.Time
	// Err and Duration are only set when Exit is called
	Err      error
	Duration time.Duration

	ctx context.Context
}

// Context returns the context the item runs with. During Enter it carries
// what the monitors notified earlier propagated.
func (d *CallDetails) Context() context.Context {
	return d.ctx
}

// Propagate makes the item and its continuations run with ctx, typically to
// carry a span. It only has effect during Enter, and ctx must derive from the
// context Enter received; any other context is ignored.
func (d *CallDetails) Propagate(ctx context.Context) {
	if ctx != nil {
		d.ctx = ctx
	}
}

// Monitor observes item executions. It is notified immediately before and
// after each queued item runs and must not alter scheduling.
type Monitor interface {
	// Enter is called before the item runs
	Enter(ctx context.Context, details *CallDetails)
	// Exit is called after the item ran
	Exit(ctx context.Context, details *CallDetails)
}

// MonitorHook holds at most one active Monitor. It is shared explicitly by
// the lanes that are given it: Begin at startup, End at shutdown.
// Monitors are compared by identity, so use pointer implementations.
type MonitorHook struct {
	mu     sync.RWMutex
	active Monitor
}

// NewMonitorHook creates an empty MonitorHook
func NewMonitorHook() *MonitorHook {
	return &MonitorHook{}
}

// Begin activates m. It fails with ErrMonitorActive when a monitor is already active.
func (h *MonitorHook) Begin(m Monitor) error {
	if m == nil {
		return fmt.Errorf("%w: monitor is nil", gerrors.ErrInvalidArgument)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != nil {
		return gerrors.ErrMonitorActive
	}
	h.active = m
	return nil
}

// End deactivates m. It fails with ErrMonitorMismatch when m is not the active monitor.
func (h *MonitorHook) End(m Monitor) error {
	if m == nil {
		return fmt.Errorf("%w: monitor is nil", gerrors.ErrInvalidArgument)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != m {
		return gerrors.ErrMonitorMismatch
	}
	h.active = nil
	return nil
}

// Active returns the active monitor or nil
func (h *MonitorHook) Active() Monitor {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active
}
