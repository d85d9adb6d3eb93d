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

package pending

import (
	"context"
	"sync"
)

// Signal is an external completion source. It fires when the channel returned
// by Done is closed. A context.Context is a Signal.
type Signal interface {
	Done() <-chan struct{}
}

// FromChannel returns a Signal that fires when ch is closed.
func FromChannel(ch <-chan struct{}) Signal {
	return channelSignal(ch)
}

// FromContext returns a Signal that fires when ctx is done.
func FromContext(ctx context.Context) Signal {
	return ctx
}

type channelSignal <-chan struct{}

func (c channelSignal) Done() <-chan struct{} {
	return c
}

// ManualResetEvent is a Signal that stays set until it is explicitly reset.
type ManualResetEvent struct {
	mu  sync.Mutex
	ch  chan struct{}
	set bool
}

var _ Signal = (*ManualResetEvent)(nil)

// NewManualResetEvent creates an event in the given initial state.
func NewManualResetEvent(initial bool) *ManualResetEvent {
	e := &ManualResetEvent{ch: make(chan struct{})}
	if initial {
		e.Set()
	}
	return e
}

// Set signals the event and releases every waiter. Setting a set event is a no-op.
func (e *ManualResetEvent) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.set {
		e.set = true
		close(e.ch)
	}
}

// Reset returns the event to the non-signaled state.
func (e *ManualResetEvent) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.set {
		e.set = false
		e.ch = make(chan struct{})
	}
}

// IsSet reports whether the event is signaled.
func (e *ManualResetEvent) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Done implements Signal. The returned channel belongs to the current
// generation of the event: a later Reset does not reopen it.
func (e *ManualResetEvent) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ch
}

// Wait blocks until the event is set or ctx is done.
func (e *ManualResetEvent) Wait(ctx context.Context) error {
	select {
	case <-e.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
