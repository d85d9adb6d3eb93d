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

// Package pending bridges external completion sources into the execution
// model of a lane. Code running inside a lane item starts some legacy
// asynchronous work, registers its completion Signal as an Operation, and
// joins it later, just before it needs the outcome.
package pending

import (
	"context"
	"sync"
	"time"
)

// Waitable is anything a lane item can join.
type Waitable interface {
	// WaitForCompletion blocks until the operation resolves and reports
	// whether it was signaled before its timeout.
	WaitForCompletion() bool
	// WaitForCompletionContext is WaitForCompletion bounded by ctx.
	// Cancelling ctx aborts the wait only; the operation keeps its state.
	WaitForCompletionContext(ctx context.Context) (bool, error)
}

// ResultOperation is a Waitable that carries a result.
type ResultOperation interface {
	Waitable
	// Value returns the operation result as an untyped value.
	Value() (any, error)
}

// Operation wraps a completion Signal, an optional timeout and an optional
// completion callback.
type Operation struct {
	signal     Signal
	manual     *ManualResetEvent
	timeout    time.Duration
	onComplete func(signaled bool)

	startOnce sync.Once
	deadline  time.Time

	resolveOnce sync.Once
	resolved    chan struct{}
	signaled    bool

	callbackOnce sync.Once
}

var _ Waitable = (*Operation)(nil)

// NewOperation creates an Operation. A nil signal makes the operation manual:
// it fires when Complete is called. A zero timeout waits forever.
// onComplete, when not nil, is called once with the outcome of the wait.
func NewOperation(signal Signal, timeout time.Duration, onComplete func(signaled bool)) *Operation {
	op := &Operation{
		signal:     signal,
		timeout:    timeout,
		onComplete: onComplete,
		resolved:   make(chan struct{}),
	}

	if signal == nil {
		op.manual = NewManualResetEvent(false)
		op.signal = op.manual
	}
	return op
}

// Complete fires a manual operation. It is a no-op for operations backed by an
// external signal.
func (op *Operation) Complete() {
	if op.manual != nil {
		op.manual.Set()
	}
}

// IsManual reports whether the operation is completed through Complete.
func (op *Operation) IsManual() bool {
	return op.manual != nil
}

// IsCompleted reports whether a wait on the operation has resolved.
func (op *Operation) IsCompleted() bool {
	select {
	case <-op.resolved:
		return true
	default:
		return false
	}
}

// Signaled reports whether the operation resolved because its signal fired.
// It is false until the operation is completed.
func (op *Operation) Signaled() bool {
	if !op.IsCompleted() {
		return false
	}
	return op.signaled
}

// WaitForCompletion blocks until the signal fires or the timeout elapses.
// Waiting again returns the same outcome without blocking.
func (op *Operation) WaitForCompletion() bool {
	signaled, _ := op.WaitForCompletionContext(context.Background())
	return signaled
}

// WaitForCompletionContext blocks until the signal fires, the timeout elapses
// or ctx is done. The timeout runs from the first wait on the operation.
func (op *Operation) WaitForCompletionContext(ctx context.Context) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	op.startOnce.Do(func() {
		if op.timeout > 0 {
			op.deadline = time.Now().Add(op.timeout)
		}
	})

	// a fired signal wins over an elapsed timeout
	select {
	case <-op.signal.Done():
		op.resolve(true)
	default:
	}

	var expired <-chan time.Time
	if !op.deadline.IsZero() {
		timer := time.NewTimer(time.Until(op.deadline))
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case <-op.resolved:
	case <-op.signal.Done():
		op.resolve(true)
	case <-expired:
		op.resolve(false)
	case <-ctx.Done():
		return false, ctx.Err()
	}

	op.callbackOnce.Do(func() {
		if op.onComplete != nil {
			op.onComplete(op.signaled)
		}
	})
	return op.signaled, nil
}

func (op *Operation) resolve(signaled bool) {
	op.resolveOnce.Do(func() {
		op.signaled = signaled
		close(op.resolved)
	})
}
