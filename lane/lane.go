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

// Package lane implements the execution lane of an actor: a single-consumer,
// ordered and optionally bounded executor of items.
//
// Items submitted from outside a lane are queued and run one at a time in
// submission order. Items submitted by code that already runs inside the
// lane's current item run immediately, in place, so an actor calling itself,
// directly or through another actor that calls back, never deadlocks.
package lane

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/internal/workerpool"
	"github.com/tochemey/actorlane/log"
	"github.com/tochemey/actorlane/pending"
)

const (
	idle int32 = iota
	busy
)

// Lane serializes the execution of items. At most one queued item executes
// at any instant; reentrant submissions run in place.
type Lane struct {
	id       uuid.UUID
	name     string
	capacity int
	policy   OverflowPolicy

	mailbox    Mailbox
	workerPool *workerpool.WorkerPool
	logger     log.Logger
	monitor    Monitor
	hook       *MonitorHook

	processing atomic.Int32
	stopped    atomic.Bool
	current    atomic.Pointer[execution]

	inflight    atomic.Int64
	idleMu      sync.Mutex
	idleWaiters []chan struct{}

	processed    atomic.Uint64
	failed       atomic.Uint64
	rejected     atomic.Uint64
	lastDuration atomic.Duration
}

// New creates a Lane. Lanes need no explicit start and live until stopped.
func New(opts ...Option) *Lane {
	l := &Lane{
		id:     uuid.New(),
		logger: log.DiscardLogger,
		policy: Reject,
	}

	for _, opt := range opts {
		opt.Apply(l)
	}

	if l.name == "" {
		l.name = l.id.String()
	}

	if l.logger == nil {
		l.logger = log.DiscardLogger
	}
	l.logger = l.logger.With("lane", l.name)

	if l.mailbox == nil {
		if l.capacity > 0 {
			l.mailbox = NewBoundedMailbox(l.capacity, l.policy)
		} else {
			l.mailbox = NewUnboundedMailbox()
		}
	}

	l.processing.Store(idle)
	return l
}

// ID returns the lane identifier
func (l *Lane) ID() string {
	return l.id.String()
}

// Name returns the lane name
func (l *Lane) Name() string {
	return l.name
}

// Capacity returns the mailbox capacity. Zero means unbounded.
func (l *Lane) Capacity() int {
	return l.capacity
}

// Len returns the number of queued items
func (l *Lane) Len() int64 {
	return l.mailbox.Len()
}

// IsStopped reports whether the lane stopped accepting submissions
func (l *Lane) IsStopped() bool {
	return l.stopped.Load()
}

// String returns the lane name
func (l *Lane) String() string {
	return l.name
}

// Enqueue submits action to the lane. See Submit.
func (l *Lane) Enqueue(ctx context.Context, action Action, opts ...ItemOption) (*Item, error) {
	return l.Submit(ctx, NewItem(action, opts...))
}

// EnqueueAsync submits an asynchronous action to the lane. See Submit.
func (l *Lane) EnqueueAsync(ctx context.Context, action AsyncAction, opts ...ItemOption) (*Item, error) {
	return l.Submit(ctx, NewAsyncItem(action, opts...))
}

// Submit adds item to the lane.
//
// When ctx carries the lane's current execution, the call is reentrant: the
// item runs immediately on the calling goroutine and Submit returns the
// currently executing item together with the error of the action. Reentrant
// calls made by work that the current item is awaiting wait for the item to
// park, then run in place.
//
// Otherwise the item is queued and Submit returns it at once. Submitting to a
// stopped lane fails with ErrLaneStopped. A full bounded lane fails with
// ErrMailboxFull or blocks, depending on its overflow policy.
func (l *Lane) Submit(ctx context.Context, item *Item) (*Item, error) {
	if err := item.validate(); err != nil {
		return nil, err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if f := frameFrom(ctx).find(l); f != nil && l.current.Load() == f.exec {
		if f.held() {
			return l.runInPlace(ctx, f.exec, item)
		}

		if current, ran, err := l.runParked(ctx, f.exec, item); ran {
			return current, err
		}
	}

	return item, l.post(ctx, item)
}

// Current returns the item executing in ctx on this lane.
func (l *Lane) Current(ctx context.Context) (*Item, bool) {
	f := frameFrom(ctx).find(l)
	if f == nil || !f.held() || l.current.Load() != f.exec {
		return nil, false
	}
	return f.exec.item, true
}

// CurrentItem returns the item executing in ctx on any lane.
func CurrentItem(ctx context.Context) (*Item, bool) {
	f := frameFrom(ctx)
	if f == nil || !f.held() {
		return nil, false
	}
	return f.exec.item, true
}

// RegisterPendingOperation attaches op to the item currently executing in ctx.
// It fails with ErrNoActiveExecution when ctx does not run inside the lane's
// current item.
func (l *Lane) RegisterPendingOperation(ctx context.Context, op pending.Waitable) error {
	if op == nil {
		return fmt.Errorf("%w: pending operation is nil", gerrors.ErrInvalidArgument)
	}

	f := frameFrom(ctx).find(l)
	if f == nil || !f.held() || l.current.Load() != f.exec {
		return gerrors.ErrNoActiveExecution
	}

	f.exec.item.addPending(op)
	return nil
}

// RegisterSignal creates a pending operation for signal and attaches it to the
// current item.
func (l *Lane) RegisterSignal(ctx context.Context, signal pending.Signal, timeout time.Duration, onComplete func(signaled bool)) (*pending.Operation, error) {
	op := pending.NewOperation(signal, timeout, onComplete)
	if err := l.RegisterPendingOperation(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// RegisterTyped creates a typed pending operation and attaches it to the
// current item of l.
func RegisterTyped[T any](ctx context.Context, l *Lane, signal pending.Signal, fn func() (T, error), timeout time.Duration, onComplete func(signaled bool)) (*pending.Typed[T], error) {
	op := pending.NewTyped(signal, fn, timeout, onComplete)
	if err := l.RegisterPendingOperation(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// Stop makes the lane refuse new submissions. Queued items still run.
func (l *Lane) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		l.logger.Debugf("lane %s stopped", l.name)
	}
}

// Shutdown stops the lane and waits until its queued items have run.
func (l *Lane) Shutdown(ctx context.Context) error {
	l.Stop()
	if err := l.WaitIdle(ctx); err != nil {
		return err
	}
	l.mailbox.Dispose()
	return nil
}

// WaitIdle blocks until no item is queued or executing, or ctx is done.
// It must not be called from the lane's own execution.
func (l *Lane) WaitIdle(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if f := frameFrom(ctx).find(l); f != nil && f.held() {
		return fmt.Errorf("%w: cannot wait for the lane from its own execution", gerrors.ErrInvalidArgument)
	}

	l.idleMu.Lock()
	if l.inflight.Load() == 0 {
		l.idleMu.Unlock()
		return nil
	}
	waiter := make(chan struct{})
	l.idleWaiters = append(l.idleWaiters, waiter)
	l.idleMu.Unlock()

	select {
	case <-waiter:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the lane counters
func (l *Lane) Stats() Stats {
	return Stats{
		Name:         l.name,
		Queued:       l.mailbox.Len(),
		InFlight:     l.inflight.Load(),
		Processed:    l.processed.Load(),
		Failed:       l.failed.Load(),
		Rejected:     l.rejected.Load(),
		LastDuration: l.lastDuration.Load(),
		Stopped:      l.stopped.Load(),
	}
}

// Stats is a snapshot of the lane counters
type Stats struct {
	Name         string
	Queued       int64
	InFlight     int64
	Processed    uint64
	Failed       uint64
	Rejected     uint64
	LastDuration time.Duration
	Stopped      bool
}

// runInPlace runs a call made by the code owning the current execution.
// Failures propagate to the caller, which is itself lane code.
func (l *Lane) runInPlace(ctx context.Context, exec *execution, item *Item) (*Item, error) {
	if l.stopped.Load() {
		return nil, gerrors.ErrLaneStopped
	}
	return exec.item, l.invokeInPlace(ctx, exec, item)
}

// runParked runs a call coming from work the current execution is waiting on.
// It reports false when the execution finished before the gate could be
// taken; the call is then queued like any outside call.
func (l *Lane) runParked(ctx context.Context, exec *execution, item *Item) (*Item, bool, error) {
	exec.gate.Lock()
	defer exec.gate.Unlock()

	if exec.finished || l.current.Load() != exec {
		return nil, false, nil
	}

	if l.stopped.Load() {
		return nil, true, gerrors.ErrLaneStopped
	}

	inner := &frame{lane: l, exec: exec, parent: frameFrom(ctx)}
	previous := exec.hold(inner)
	defer exec.holder.Store(previous)

	return exec.item, true, l.invokeInPlace(withFrame(ctx, inner), exec, item)
}

func (l *Lane) invokeInPlace(ctx context.Context, exec *execution, item *Item) error {
	if item.action != nil {
		return item.action(ctx)
	}

	done := item.asyncAction(ctx)
	if done == nil {
		return nil
	}

	// the outcome joins the current execution when it runs under the pump
	if exec.pump != nil && exec.pump.acquire() {
		go func() {
			err := <-done
			exec.pump.release(func() { exec.fail(err) })
		}()
		return nil
	}

	released := park(ctx)
	defer resume(released)
	return <-done
}

// post queues item and wakes the lane up.
func (l *Lane) post(ctx context.Context, item *Item) error {
	if l.stopped.Load() {
		return gerrors.ErrLaneStopped
	}

	item.lane = l
	item.submitCtx = ctx

	l.inflight.Inc()
	if err := l.mailbox.Enqueue(ctx, item); err != nil {
		l.settle()
		if errors.Is(err, gerrors.ErrMailboxFull) {
			l.rejected.Inc()
			l.logger.Warnf("lane %s rejected item %s: %v", l.name, item.ID(), err)
		}
		return err
	}

	l.schedule()
	return nil
}

// schedule wakes up the processing loop when it is idle
func (l *Lane) schedule() {
	if l.processing.CompareAndSwap(idle, busy) {
		if l.workerPool == nil {
			go l.process()
			return
		}

		if err := l.workerPool.SubmitWork(l.process); err != nil {
			go l.process()
		}
	}
}

// process runs queued items until the mailbox is empty
func (l *Lane) process() {
	for {
		for item := l.mailbox.Dequeue(); item != nil; item = l.mailbox.Dequeue() {
			l.execute(item)
		}

		// if no more items, change busy state to idle
		if !l.processing.CompareAndSwap(busy, idle) {
			return
		}

		// Check if new items were added in the meantime and restart processing
		if !l.mailbox.IsEmpty() && l.processing.CompareAndSwap(idle, busy) {
			continue
		}
		return
	}
}

// execute runs one queued item to completion, including every continuation
// it posts, while owning the item's execution gate.
func (l *Lane) execute(item *Item) {
	exec := newExecution(item)
	root := &frame{lane: l, exec: exec, parent: inherit(frameFrom(item.submitCtx))}
	ctx := withFrame(context.WithoutCancel(item.submitCtx), root)
	exec.ctx = ctx

	exec.gate.Lock()
	exec.hold(root)
	l.current.Store(exec)

	details := &CallDetails{
		Lane:       l,
		Target:     item.target,
		TargetType: item.targetType,
		Item:       item,
		StartedAt:  time.Now(),
		ctx:        ctx,
	}

	monitors := l.monitors()
	for _, m := range monitors {
		l.notify(details.ctx, m.Enter, details)
	}

	// a propagated context must still carry the execution frame
	if frameFrom(details.ctx) == root {
		ctx = details.ctx
		exec.ctx = ctx
	} else {
		details.ctx = ctx
	}

	detached := l.invoke(ctx, exec)
	if exec.pump != nil {
		exec.pump.drain(func(continuation func()) {
			exec.fail(l.runContinuation(continuation))
		}, func(wake <-chan struct{}) {
			// let the outstanding work call back in place while the worker waits
			exec.holder.Store(nil)
			exec.gate.Unlock()
			<-wake
			exec.gate.Lock()
			exec.hold(root)
		})
	}

	err := exec.failure()
	if err != nil {
		err = gerrors.NewInvocationError(l.name, err)
	}

	details.Duration = time.Since(details.StartedAt)
	details.Err = err
	for _, m := range monitors {
		l.notify(ctx, m.Exit, details)
	}

	exec.holder.Store(nil)
	exec.finished = true
	l.current.Store(nil)
	exec.gate.Unlock()

	l.processed.Inc()
	l.lastDuration.Store(details.Duration)
	if err != nil {
		l.failed.Inc()
		l.logger.Errorf("lane %s: item %s failed: %v", l.name, item.ID(), err)
	}

	if detached != nil {
		go l.completeDetached(item, detached)
	} else {
		item.complete(err)
	}
	l.settle()
}

// invoke runs the action of a queued item. For an asynchronous action that
// does not preserve its context, it returns the channel the outcome will be
// reported on.
func (l *Lane) invoke(ctx context.Context, exec *execution) <-chan error {
	item := exec.item
	var detached <-chan error
	exec.fail(l.protect(func() error {
		if item.action != nil {
			return item.action(ctx)
		}

		done := item.asyncAction(ctx)
		if done == nil {
			return nil
		}

		if exec.pump == nil {
			detached = done
			return nil
		}

		exec.pump.acquire()
		go func() {
			err := <-done
			exec.pump.release(func() { exec.fail(err) })
		}()
		return nil
	}))
	return detached
}

func (l *Lane) completeDetached(item *Item, done <-chan error) {
	err := <-done
	if err != nil {
		err = gerrors.NewInvocationError(l.name, err)
		l.logger.Errorf("lane %s: item %s failed: %v", l.name, item.ID(), err)
	}
	item.complete(err)
}

func (l *Lane) runContinuation(continuation func()) error {
	return l.protect(func() error {
		continuation()
		return nil
	})
}

// protect runs fn and converts a panic into a PanicError
func (l *Lane) protect(fn func() error) (err error) {
	defer l.recovery(&err)
	return fn()
}

// recovery is deferred around user code
func (l *Lane) recovery(err *error) {
	if r := recover(); r != nil {
		switch e, ok := r.(error); {
		case ok:
			var pe *gerrors.PanicError
			if errors.As(e, &pe) {
				*err = pe
				return
			}

			// this is a normal error just wrap it with some stack trace
			// for rich logging purpose
			pc, fn, line, _ := runtime.Caller(2)
			*err = gerrors.NewPanicError(
				fmt.Errorf("%w at %s[%s:%d]", e, runtime.FuncForPC(pc).Name(), fn, line),
			)

		default:
			// we have no idea what panic it is. Enrich it with some stack trace for rich
			// logging purpose
			pc, fn, line, _ := runtime.Caller(2)
			*err = gerrors.NewPanicError(
				fmt.Errorf("%#v at %s[%s:%d]", r, runtime.FuncForPC(pc).Name(), fn, line),
			)
		}
	}
}

func (l *Lane) monitors() []Monitor {
	var monitors []Monitor
	if l.monitor != nil {
		monitors = append(monitors, l.monitor)
	}
	if active := l.hook.Active(); active != nil {
		monitors = append(monitors, active)
	}
	return monitors
}

// notify calls a monitor. Monitor failures are logged and never reach the item.
func (l *Lane) notify(ctx context.Context, call func(context.Context, *CallDetails), details *CallDetails) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Warnf("lane %s: monitor panicked: %v", l.name, r)
		}
	}()
	call(ctx, details)
}

// settle marks one item as finished and releases idle waiters
func (l *Lane) settle() {
	if l.inflight.Dec() > 0 {
		return
	}

	l.idleMu.Lock()
	defer l.idleMu.Unlock()
	if l.inflight.Load() != 0 {
		return
	}
	for _, waiter := range l.idleWaiters {
		close(waiter)
	}
	l.idleWaiters = nil
}
