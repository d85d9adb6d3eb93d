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

import "context"

// Mailbox defines the contract for a lane's item queue.
//
// Concurrency and ordering
//   - Implementations MUST be safe for multiple concurrent producers calling
//     Enqueue. The lane consumes from a single goroutine at a time (MPSC).
//   - Items are dequeued in the order they were enqueued.
//
// Capacity
//   - Bounded implementations MUST report a full mailbox to the producer,
//     either by failing or by blocking. An item is never silently dropped.
//
// Resource management
//   - Dispose releases the resources of the mailbox and unblocks any waiting
//     producer. After Dispose, Enqueue fails and Dequeue returns nil.
type Mailbox interface {
	// Enqueue pushes an item into the mailbox. ctx bounds the time a blocking
	// implementation may wait for space.
	Enqueue(ctx context.Context, item *Item) error
	// Dequeue fetches the next item. It returns nil when the mailbox is empty.
	Dequeue() *Item
	// IsEmpty reports whether the mailbox currently has no items.
	IsEmpty() bool
	// Len returns a snapshot of the number of items in the mailbox.
	Len() int64
	// Dispose releases the mailbox resources.
	Dispose()
}
