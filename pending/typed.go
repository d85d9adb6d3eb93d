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
	"time"

	gerrors "github.com/tochemey/actorlane/errors"
)

// Typed is an Operation that produces a result once its wait resolves.
type Typed[T any] struct {
	*Operation

	produce    func() (T, error)
	resultOnce sync.Once
	value      T
	err        error
}

var _ ResultOperation = (*Typed[int])(nil)

// NewTyped creates a typed operation. fn is evaluated at most once, on the
// first call to Result after the wait resolved.
func NewTyped[T any](signal Signal, fn func() (T, error), timeout time.Duration, onComplete func(signaled bool)) *Typed[T] {
	return &Typed[T]{
		Operation: NewOperation(signal, timeout, onComplete),
		produce:   fn,
	}
}

// Result returns the value of the result producer. It fails with
// ErrNotCompleted before the wait resolved and with ErrNoResultProducer when
// the operation has no producer.
func (t *Typed[T]) Result() (T, error) {
	var zero T
	if t.produce == nil {
		return zero, gerrors.ErrNoResultProducer
	}

	if !t.IsCompleted() {
		return zero, gerrors.ErrNotCompleted
	}

	t.resultOnce.Do(func() {
		t.value, t.err = t.produce()
	})
	return t.value, t.err
}

// Await waits for the operation and returns its result.
func (t *Typed[T]) Await(ctx context.Context) (T, error) {
	if _, err := t.WaitForCompletionContext(ctx); err != nil {
		var zero T
		return zero, err
	}
	return t.Result()
}

// Value implements ResultOperation.
func (t *Typed[T]) Value() (any, error) {
	return t.Result()
}
