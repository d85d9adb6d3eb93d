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

package registry

import (
	"reflect"
	"time"

	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
)

// Option is the interface that applies a configuration option.
type Option interface {
	// Apply sets the Option value of a Registry.
	Apply(r *Registry)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(r *Registry)

// Apply applies the Registry's option
func (f OptionFunc) Apply(r *Registry) {
	f(r)
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return OptionFunc(func(r *Registry) {
		r.logger = logger
	})
}

// WithMonitor sets a monitor notified by every lane of the registry, in
// addition to the one activated with BeginMonitor.
func WithMonitor(monitor lane.Monitor) Option {
	return OptionFunc(func(r *Registry) {
		r.monitor = monitor
	})
}

// WithDefaultCapacity bounds the mailbox of every lane the registry creates.
// Zero means unbounded.
func WithDefaultCapacity(capacity int) Option {
	return OptionFunc(func(r *Registry) {
		r.defaultCapacity = capacity
	})
}

// WithCapacity bounds the mailbox of lanes created for the given type. The
// type is matched against the requested interface first, then against the
// dynamic type of the wrapped object.
func WithCapacity(t reflect.Type, capacity int) Option {
	return OptionFunc(func(r *Registry) {
		r.capacities[t] = capacity
	})
}

// WithOverflowPolicy sets what bounded lanes do with items that do not fit
func WithOverflowPolicy(policy lane.OverflowPolicy) Option {
	return OptionFunc(func(r *Registry) {
		r.policy = policy
	})
}

// WithDomain makes every object resolved for the given type share the lane of
// key, unless it already has a lane of its own.
func WithDomain(t reflect.Type, key string) Option {
	return OptionFunc(func(r *Registry) {
		r.domains[t] = key
	})
}

// WithWorkerShards sets the number of shards of the worker pool driving the lanes
func WithWorkerShards(shards int) Option {
	return OptionFunc(func(r *Registry) {
		r.workerShards = shards
	})
}

// WithWorkerIdleTimeout sets how long an idle worker is kept around
func WithWorkerIdleTimeout(timeout time.Duration) Option {
	return OptionFunc(func(r *Registry) {
		r.workerIdleTimeout = timeout
	})
}
