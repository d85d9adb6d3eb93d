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
	"fmt"
	"runtime"
	"time"
	"weak"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/pending"
)

// pendingSlot holds the pending operation registered for an object
type pendingSlot struct {
	ref     weak.Pointer[byte]
	op      pending.Waitable
	cleanup runtime.Cleanup
}

type pendingKey struct {
	addr uintptr
	slot *pendingSlot
}

// RegisterPendingOperation attaches op to obj until it is taken. An object
// holds at most one pending operation at a time.
func (r *Registry) RegisterPendingOperation(obj any, op pending.Waitable) error {
	if r.shutdown.Load() {
		return gerrors.ErrRegistryShutdown
	}

	if op == nil {
		return fmt.Errorf("%w: pending operation is nil", gerrors.ErrInvalidArgument)
	}

	id, err := identify(subject(obj))
	if err != nil {
		return err
	}

	var (
		slot   *pendingSlot
		exists bool
	)
	r.pendingOps.Compute(id.addr, func(current *pendingSlot, loaded bool) (*pendingSlot, bool) {
		if loaded && current.ref.Value() == id.ptr {
			exists = true
			return current, false
		}
		slot = &pendingSlot{ref: weak.Make(id.ptr), op: op}
		slot.cleanup = runtime.AddCleanup(id.ptr, r.dropPending, pendingKey{addr: id.addr, slot: slot})
		return slot, true
	})
	runtime.KeepAlive(id.ptr)

	if exists {
		return fmt.Errorf("%w: %v", gerrors.ErrPendingExists, id.typ)
	}
	return nil
}

// RegisterPendingSignal attaches a pending operation completed by signal to obj.
func (r *Registry) RegisterPendingSignal(obj any, signal pending.Signal, timeout time.Duration, onComplete func(signaled bool)) (*pending.Operation, error) {
	op := pending.NewOperation(signal, timeout, onComplete)
	if err := r.RegisterPendingOperation(obj, op); err != nil {
		return nil, err
	}
	return op, nil
}

// RegisterPendingTyped attaches a pending operation producing a T to obj.
func RegisterPendingTyped[T any](r *Registry, obj any, signal pending.Signal, fn func() (T, error), timeout time.Duration, onComplete func(signaled bool)) (*pending.Typed[T], error) {
	op := pending.NewTyped(signal, fn, timeout, onComplete)
	if err := r.RegisterPendingOperation(obj, op); err != nil {
		return nil, err
	}
	return op, nil
}

// TakePendingOperation detaches and returns the pending operation of obj.
func (r *Registry) TakePendingOperation(obj any) (pending.Waitable, bool) {
	id, err := identify(subject(obj))
	if err != nil {
		return nil, false
	}

	slot, ok := r.pendingOps.DeleteFunc(id.addr, func(slot *pendingSlot) bool {
		return slot.ref.Value() == id.ptr
	})
	if !ok {
		return nil, false
	}

	slot.cleanup.Stop()
	return slot.op, true
}

func (r *Registry) dropPending(key pendingKey) {
	r.pendingOps.DeleteFunc(key.addr, func(slot *pendingSlot) bool { return slot == key.slot })
}
