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

// Package service turns an implementation of an interface into a view whose
// calls run on the implementation's lane.
//
// A view is a hand-written adapter implementing the interface by embedding a
// *Ref and forwarding each method through Tell, Do or Ask. Views are pointers:
//
//	type accountView struct {
//		*service.Ref[Account]
//	}
//
//	func (v *accountView) Deposit(ctx context.Context, amount int) error {
//		return v.Do(ctx, func(ctx context.Context, a Account) error {
//			return a.Deposit(ctx, amount)
//		})
//	}
//
//	func (v *accountView) Balance(ctx context.Context) (int, error) {
//		return service.Ask(ctx, v.Ref, func(ctx context.Context, a Account) (int, error) {
//			return a.Balance(ctx)
//		})
//	}
//
//	view, err := service.Create(reg, account, func(ref *service.Ref[Account]) Account {
//		return &accountView{ref}
//	})
//
// Create returns the same view for every call made with the same object and
// interface, and the views of one object share one lane whatever the interface.
package service

import (
	"context"
	"fmt"
	"reflect"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/pending"
	"github.com/tochemey/actorlane/registry"
)

// Ref forwards calls to an implementation of I through its lane.
type Ref[I any] struct {
	impl     I
	obj      any
	lane     *lane.Lane
	typeName string
}

var _ registry.View = (*Ref[any])(nil)

// Wrapped returns the wrapped implementation
func (r *Ref[I]) Wrapped() any {
	return r.obj
}

// Lane returns the lane calls are forwarded to
func (r *Ref[I]) Lane() *lane.Lane {
	return r.lane
}

// Tell queues fn and returns without waiting for it to run.
func (r *Ref[I]) Tell(ctx context.Context, fn func(ctx context.Context, impl I) error) (*lane.Item, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: call is nil", gerrors.ErrInvalidArgument)
	}
	return r.lane.Enqueue(ctx, func(ctx context.Context) error {
		return fn(ctx, r.impl)
	}, lane.WithTarget(r.obj, r.typeName))
}

// TellAsync queues fn, an asynchronous call. The lane stays occupied until
// the returned channel reports, unless preserve is false.
func (r *Ref[I]) TellAsync(ctx context.Context, preserve bool, fn func(ctx context.Context, impl I) <-chan error) (*lane.Item, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: call is nil", gerrors.ErrInvalidArgument)
	}
	return r.lane.EnqueueAsync(ctx, func(ctx context.Context) <-chan error {
		return fn(ctx, r.impl)
	}, lane.WithTarget(r.obj, r.typeName), lane.WithPreserveContext(preserve))
}

// Do runs fn on the lane and waits for it. Cancelling ctx abandons the wait;
// the call still runs.
func (r *Ref[I]) Do(ctx context.Context, fn func(ctx context.Context, impl I) error) error {
	item, err := r.Tell(ctx, fn)
	if err != nil {
		return err
	}
	return item.Await(ctx)
}

// Ask runs fn on the lane of ref and returns its result. The result is handed
// over through a pending operation registered on the call.
func Ask[I, R any](ctx context.Context, ref *Ref[I], fn func(ctx context.Context, impl I) (R, error)) (R, error) {
	var zero R
	if fn == nil {
		return zero, fmt.Errorf("%w: call is nil", gerrors.ErrInvalidArgument)
	}

	var (
		result R
		failed error
	)
	reply := pending.NewTyped(nil, func() (R, error) { return result, failed }, 0, nil)

	item, err := ref.lane.Enqueue(ctx, func(ctx context.Context) error {
		if err := ref.lane.RegisterPendingOperation(ctx, reply); err != nil {
			return err
		}
		defer reply.Complete()
		result, failed = fn(ctx, ref.impl)
		return failed
	}, lane.WithTarget(ref.obj, ref.typeName))
	if err != nil {
		return zero, err
	}

	if err := item.Await(ctx); err != nil {
		return zero, err
	}
	return reply.Await(ctx)
}

// Create returns the view of impl for I, creating it with adapt when needed.
//
// When impl is already a view, the canonical view of its wrapped object for I
// is returned, so views of one object share a lane whatever their interface.
func Create[I any](reg *registry.Registry, impl I, adapt func(ref *Ref[I]) I, opts ...Option) (I, error) {
	var zero I
	if reg == nil || adapt == nil {
		return zero, fmt.Errorf("%w: registry and adapter are required", gerrors.ErrInvalidArgument)
	}

	ifaceType := reflect.TypeFor[I]()
	if ifaceType.Kind() != reflect.Interface {
		return zero, fmt.Errorf("%w: %v is not an interface type", gerrors.ErrInvalidArgument, ifaceType)
	}

	config := new(settings)
	for _, opt := range opts {
		opt.Apply(config)
	}

	target := any(impl)
	if view, ok := target.(registry.View); ok {
		canonical, err := reg.RegisterView(view.Wrapped(), ifaceType, view)
		if err != nil {
			return zero, err
		}
		return canonical.(I), nil
	}

	if existing, ok := reg.View(target, ifaceType); ok {
		return existing.(I), nil
	}

	l, err := reg.ResolveLane(target, ifaceType, config.aggregateKey)
	if err != nil {
		return zero, err
	}

	ref := &Ref[I]{
		impl:     impl,
		obj:      target,
		lane:     l,
		typeName: fmt.Sprintf("%T", target),
	}

	adapted := adapt(ref)
	view, ok := any(adapted).(registry.View)
	if !ok {
		return zero, fmt.Errorf("%w: adapter returned %T", gerrors.ErrNotAView, adapted)
	}

	canonical, err := reg.RegisterView(target, ifaceType, view)
	if err != nil {
		return zero, err
	}
	return canonical.(I), nil
}

// Unwrap returns the implementation behind view
func Unwrap[I any](view I) (I, bool) {
	wrapped, ok := registry.Unwrap(view)
	if !ok {
		var zero I
		return zero, false
	}
	impl, ok := wrapped.(I)
	return impl, ok
}
