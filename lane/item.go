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

	"github.com/google/uuid"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/pending"
)

// Action is a unit of work run on a lane.
type Action func(ctx context.Context) error

// AsyncAction is a unit of work that finishes asynchronously. It reports its
// outcome on the returned channel; a nil channel means it already finished.
type AsyncAction func(ctx context.Context) <-chan error

// ItemOption configures an Item.
type ItemOption interface {
	// Apply sets the Option value of an Item.
	Apply(item *Item)
}

var _ ItemOption = ItemOptionFunc(nil)

// ItemOptionFunc implements the ItemOption interface.
type ItemOptionFunc func(item *Item)

// Apply applies the Item's option
func (f ItemOptionFunc) Apply(item *Item) {
	f(item)
}

// WithTarget records the object the item acts upon and its type tag. An empty
// tag is derived from the target's dynamic type.
func WithTarget(target any, typeTag string) ItemOption {
	return ItemOptionFunc(func(item *Item) {
		item.target = target
		item.targetType = typeTag
		if typeTag == "" && target != nil {
			item.targetType = fmt.Sprintf("%T", target)
		}
	})
}

// WithPreserveContext sets whether the item runs under the lane's cooperative
// pump. Items preserve their context by default.
func WithPreserveContext(preserve bool) ItemOption {
	return ItemOptionFunc(func(item *Item) {
		item.preserveContext = preserve
	})
}

// Item is one unit of work submitted to a lane together with the pending
// operations registered while it executed.
type Item struct {
	id              uuid.UUID
	action          Action
	asyncAction     AsyncAction
	target          any
	targetType      string
	preserveContext bool
	createdAt       time.Time

	lane      *Lane
	submitCtx context.Context

	mu      sync.Mutex
	pending []pending.Waitable

	done     chan struct{}
	doneOnce sync.Once
	err      error
}

// NewItem creates an item running action.
func NewItem(action Action, opts ...ItemOption) *Item {
	item := newItem(opts...)
	item.action = action
	return item
}

// NewAsyncItem creates an item running an asynchronous action.
func NewAsyncItem(action AsyncAction, opts ...ItemOption) *Item {
	item := newItem(opts...)
	item.asyncAction = action
	return item
}

func newItem(opts ...ItemOption) *Item {
	item := &Item{
		id:              uuid.New(),
		preserveContext: true,
		createdAt:       time.Now(),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt.Apply(item)
	}
	return item
}

// ID returns the item identifier
func (x *Item) ID() string {
	return x.id.String()
}

// Target returns the object the item acts upon
func (x *Item) Target() any {
	return x.target
}

// TargetType returns the type tag of the target
func (x *Item) TargetType() string {
	return x.targetType
}

// PreserveContext reports whether the item runs under the cooperative pump
func (x *Item) PreserveContext() bool {
	return x.preserveContext
}

// IsAsync reports whether the item wraps an AsyncAction
func (x *Item) IsAsync() bool {
	return x.asyncAction != nil
}

// Lane returns the lane the item was submitted to
func (x *Item) Lane() *Lane {
	return x.lane
}

// Done returns a channel closed once the item has finished executing.
func (x *Item) Done() <-chan struct{} {
	return x.done
}

// Err returns the failure of the item once it is done, nil otherwise.
func (x *Item) Err() error {
	select {
	case <-x.done:
		return x.err
	default:
		return nil
	}
}

// Await waits for the item to finish and returns its failure.
//
// When called from lane code, Await parks the caller's lanes while it waits:
// work awaited this way may call back into them and run in place. Awaiting an
// item from inside its own execution returns immediately.
func (x *Item) Await(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	for f := frameFrom(ctx); f != nil; f = f.parent {
		if f.exec.item == x && f.held() {
			return nil
		}
	}

	select {
	case <-x.done:
		return x.err
	default:
	}

	released := park(ctx)
	defer resume(released)

	select {
	case <-x.done:
		return x.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitForAllPending waits every pending operation of the item in registration
// order and reports whether there were any.
func (x *Item) WaitForAllPending() bool {
	ok, _ := x.WaitForAllPendingContext(context.Background())
	return ok
}

// WaitForAllPendingContext is WaitForAllPending bounded by ctx.
func (x *Item) WaitForAllPendingContext(ctx context.Context) (bool, error) {
	ops := x.PendingOperations()
	for _, op := range ops {
		if _, err := op.WaitForCompletionContext(ctx); err != nil {
			return len(ops) > 0, err
		}
	}
	return len(ops) > 0, nil
}

// LastPendingResult returns the result of the most recently registered pending
// operation that carries one.
func (x *Item) LastPendingResult() (any, error) {
	ops := x.PendingOperations()
	for i := len(ops) - 1; i >= 0; i-- {
		if op, ok := ops[i].(pending.ResultOperation); ok {
			return op.Value()
		}
	}
	return nil, gerrors.ErrNoPendingResult
}

// PendingOperations returns a snapshot of the registered pending operations.
func (x *Item) PendingOperations() []pending.Waitable {
	x.mu.Lock()
	defer x.mu.Unlock()
	ops := make([]pending.Waitable, len(x.pending))
	copy(ops, x.pending)
	return ops
}

func (x *Item) addPending(op pending.Waitable) {
	x.mu.Lock()
	x.pending = append(x.pending, op)
	x.mu.Unlock()
}

func (x *Item) complete(err error) {
	x.doneOnce.Do(func() {
		x.err = err
		close(x.done)
	})
}

func (x *Item) validate() error {
	if x == nil || (x.action == nil && x.asyncAction == nil) {
		return fmt.Errorf("%w: item has no action", gerrors.ErrInvalidArgument)
	}
	return nil
}
