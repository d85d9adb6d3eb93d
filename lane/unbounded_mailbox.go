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
	"sync/atomic"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/internal/collection"
)

// UnboundedMailbox is a lock-free MPSC mailbox without a capacity limit.
// Enqueue never blocks and only fails once the mailbox is disposed.
type UnboundedMailbox struct {
	underlying *collection.Queue[*Item]
	disposed   atomic.Bool
}

// enforce compilation error
var _ Mailbox = (*UnboundedMailbox)(nil)

// NewUnboundedMailbox creates an instance of UnboundedMailbox
func NewUnboundedMailbox() *UnboundedMailbox {
	return &UnboundedMailbox{underlying: collection.NewQueue[*Item]()}
}

// Enqueue places the given item in the mailbox
func (m *UnboundedMailbox) Enqueue(_ context.Context, item *Item) error {
	if m.disposed.Load() {
		return gerrors.ErrMailboxDisposed
	}
	m.underlying.Enqueue(item)
	return nil
}

// Dequeue takes the item at the head of the mailbox
func (m *UnboundedMailbox) Dequeue() *Item {
	if m.disposed.Load() {
		return nil
	}
	item, _ := m.underlying.Dequeue()
	return item
}

// IsEmpty returns true when the mailbox is empty
func (m *UnboundedMailbox) IsEmpty() bool {
	return m.underlying.IsEmpty()
}

// Len returns mailbox length
func (m *UnboundedMailbox) Len() int64 {
	return m.underlying.Len()
}

// Dispose marks the mailbox as unusable
func (m *UnboundedMailbox) Dispose() {
	m.disposed.Store(true)
}
