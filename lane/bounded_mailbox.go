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
	"strings"
	"sync/atomic"
	"time"

	gods "github.com/Workiva/go-datastructures/queue"

	gerrors "github.com/tochemey/actorlane/errors"
)

// OverflowPolicy tells a bounded mailbox what to do with an item that does
// not fit.
type OverflowPolicy int

const (
	// Reject fails the submission with ErrMailboxFull.
	Reject OverflowPolicy = iota
	// Block makes the producer wait until space frees or its context is done.
	Block
)

// String returns the policy name
func (p OverflowPolicy) String() string {
	switch p {
	case Reject:
		return "reject"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("OverflowPolicy(%d)", int(p))
	}
}

// ParseOverflowPolicy returns the policy with the given name.
func ParseOverflowPolicy(name string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "reject":
		return Reject, nil
	case "block":
		return Block, nil
	default:
		return Reject, fmt.Errorf("%w: unknown overflow policy %q", gerrors.ErrInvalidArgument, name)
	}
}

const (
	minBlockBackoff = 50 * time.Microsecond
	maxBlockBackoff = 5 * time.Millisecond
)

// BoundedMailbox is a bounded MPSC mailbox backed by a ring buffer.
//
// The ring buffer rounds its size up to a power of two, so the exact capacity
// is enforced with a reservation counter: a producer reserves a slot before
// putting the item and the consumer releases it after taking one. A producer
// that cannot reserve a slot either fails or waits, depending on the policy.
type BoundedMailbox struct {
	underlying *gods.RingBuffer
	capacity   int64
	reserved   atomic.Int64
	policy     OverflowPolicy
	space      chan struct{}
	disposed   chan struct{}
	isDisposed atomic.Bool
}

// enforce compilation error
var _ Mailbox = (*BoundedMailbox)(nil)

// NewBoundedMailbox creates a new bounded mailbox with the given capacity and
// overflow policy. Capacity must be a positive integer.
func NewBoundedMailbox(capacity int, policy OverflowPolicy) *BoundedMailbox {
	if capacity <= 0 {
		panic("bounded mailbox capacity must be greater than zero")
	}

	return &BoundedMailbox{
		underlying: gods.NewRingBuffer(uint64(capacity)),
		capacity:   int64(capacity),
		policy:     policy,
		space:      make(chan struct{}, 1),
		disposed:   make(chan struct{}),
	}
}

// Enqueue inserts an item into the mailbox.
//
// With the Reject policy a full mailbox fails with ErrMailboxFull. With the
// Block policy the call waits for space and returns ctx.Err() when ctx is done
// first. Both policies fail with ErrMailboxDisposed once the mailbox is disposed.
func (m *BoundedMailbox) Enqueue(ctx context.Context, item *Item) error {
	backoff := minBlockBackoff
	for {
		if m.isDisposed.Load() {
			return gerrors.ErrMailboxDisposed
		}

		if m.reserve() {
			ok, err := m.underlying.Offer(item)
			if err != nil || !ok {
				m.reserved.Add(-1)
				if err != nil {
					return gerrors.ErrMailboxDisposed
				}
				return gerrors.ErrMailboxFull
			}
			return nil
		}

		if m.policy == Reject {
			return gerrors.ErrMailboxFull
		}

		// a wake-up may be consumed by a producer whose context is done,
		// hence the bounded sleep
		timer := time.NewTimer(backoff)
		select {
		case <-m.space:
		case <-timer.C:
		case <-m.disposed:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
		timer.Stop()

		if backoff < maxBlockBackoff {
			backoff *= 2
		}
	}
}

// Dequeue removes and returns the next item. It does not block: an empty
// mailbox yields nil.
func (m *BoundedMailbox) Dequeue() *Item {
	if m.underlying.Len() == 0 {
		return nil
	}

	value, err := m.underlying.Get()
	if err != nil {
		return nil
	}

	m.reserved.Add(-1)
	select {
	case m.space <- struct{}{}:
	default:
	}

	item, _ := value.(*Item)
	return item
}

// IsEmpty reports whether the mailbox currently has no items.
func (m *BoundedMailbox) IsEmpty() bool {
	return m.underlying.Len() == 0
}

// Len returns the current number of items in the mailbox.
func (m *BoundedMailbox) Len() int64 {
	return int64(m.underlying.Len())
}

// Capacity returns the maximum number of unconsumed items.
func (m *BoundedMailbox) Capacity() int64 {
	return m.capacity
}

// Policy returns the overflow policy.
func (m *BoundedMailbox) Policy() OverflowPolicy {
	return m.policy
}

// Dispose releases the ring buffer and unblocks waiting producers.
func (m *BoundedMailbox) Dispose() {
	if m.isDisposed.CompareAndSwap(false, true) {
		close(m.disposed)
		m.underlying.Dispose()
	}
}

func (m *BoundedMailbox) reserve() bool {
	for {
		current := m.reserved.Load()
		if current >= m.capacity {
			return false
		}
		if m.reserved.CompareAndSwap(current, current+1) {
			return true
		}
	}
}
