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

package collection

import (
	"sync/atomic"
)

// Queue is a lock-free, unbounded, multi-producer multi-consumer FIFO queue
// (Michael & Scott). Nodes are not recycled so a dequeued node can never be
// observed again by a racing consumer.
type Queue[T any] struct {
	head   atomic.Pointer[node[T]]
	tail   atomic.Pointer[node[T]]
	length atomic.Int64
}

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// NewQueue creates a new lock-free queue.
func NewQueue[T any]() *Queue[T] {
	sentinel := new(node[T])
	q := new(Queue[T])
	q.head.Store(sentinel)
	q.tail.Store(sentinel)
	return q
}

// Enqueue puts the given value at the tail of the queue.
func (q *Queue[T]) Enqueue(value T) {
	n := &node[T]{value: value}
	for {
		last := q.tail.Load()
		next := last.next.Load()
		if last != q.tail.Load() {
			continue
		}

		if next != nil {
			// tail is falling behind, help it forward
			q.tail.CompareAndSwap(last, next)
			continue
		}

		if last.next.CompareAndSwap(nil, n) {
			q.tail.CompareAndSwap(last, n)
			q.length.Add(1)
			return
		}
	}
}

// Dequeue removes and returns the value at the head of the queue.
// ok is false when the queue is empty.
func (q *Queue[T]) Dequeue() (value T, ok bool) {
	for {
		first := q.head.Load()
		last := q.tail.Load()
		next := first.next.Load()
		if first != q.head.Load() {
			continue
		}

		if next == nil {
			return value, false
		}

		if first == last {
			q.tail.CompareAndSwap(last, next)
			continue
		}

		value = next.value
		if q.head.CompareAndSwap(first, next) {
			q.length.Add(-1)
			return value, true
		}
	}
}

// Len returns a snapshot of the number of queued values.
func (q *Queue[T]) Len() int64 {
	return q.length.Load()
}

// IsEmpty reports whether the queue has no values at the time of the call.
func (q *Queue[T]) IsEmpty() bool {
	return q.head.Load().next.Load() == nil
}
