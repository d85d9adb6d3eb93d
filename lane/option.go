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
	"github.com/tochemey/actorlane/internal/workerpool"
	"github.com/tochemey/actorlane/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a Lane.
	Apply(lane *Lane)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(lane *Lane)

// Apply applies the Lane's option
func (f OptionFunc) Apply(lane *Lane) {
	f(lane)
}

// WithName sets the lane name
func WithName(name string) Option {
	return OptionFunc(func(lane *Lane) {
		lane.name = name
	})
}

// WithCapacity bounds the number of unconsumed items. Zero means unbounded.
func WithCapacity(capacity int) Option {
	return OptionFunc(func(lane *Lane) {
		lane.capacity = capacity
	})
}

// WithOverflowPolicy sets what a bounded lane does with an item that does not fit
func WithOverflowPolicy(policy OverflowPolicy) Option {
	return OptionFunc(func(lane *Lane) {
		lane.policy = policy
	})
}

// WithMailbox sets a custom mailbox. It takes precedence over WithCapacity.
func WithMailbox(mailbox Mailbox) Option {
	return OptionFunc(func(lane *Lane) {
		lane.mailbox = mailbox
	})
}

// WithWorkerPool sets the worker pool that drives the lane. Without one every
// busy period of the lane runs on a fresh goroutine.
func WithWorkerPool(pool *workerpool.WorkerPool) Option {
	return OptionFunc(func(lane *Lane) {
		lane.workerPool = pool
	})
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(lane *Lane) {
		lane.logger = logger
	})
}

// WithMonitor sets a monitor owned by the lane
func WithMonitor(monitor Monitor) Option {
	return OptionFunc(func(lane *Lane) {
		lane.monitor = monitor
	})
}

// WithMonitorHook shares a MonitorHook with the lane
func WithMonitorHook(hook *MonitorHook) Option {
	return OptionFunc(func(lane *Lane) {
		lane.hook = hook
	})
}
