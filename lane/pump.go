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

	gerrors "github.com/tochemey/actorlane/errors"
)

// pump is the continuation queue of a preserve-context execution. The worker
// drains it until no suspension is outstanding, so the whole asynchronous
// chain of an item settles before the lane takes its next item.
type pump struct {
	mu          sync.Mutex
	queue       []func()
	outstanding int
	closed      bool
	wake        chan struct{}
}

func newPump() *pump {
	return &pump{wake: make(chan struct{}, 1)}
}

// acquire registers an outstanding suspension. It fails once the pump is drained.
func (p *pump) acquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.outstanding++
	return true
}

// release ends an outstanding suspension and queues its continuation.
func (p *pump) release(continuation func()) {
	p.mu.Lock()
	if continuation != nil {
		p.queue = append(p.queue, continuation)
	}
	p.outstanding--
	p.mu.Unlock()
	p.notify()
}

// post queues a continuation.
func (p *pump) post(continuation func()) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	p.queue = append(p.queue, continuation)
	p.mu.Unlock()
	p.notify()
	return true
}

func (p *pump) notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// drain runs continuations on the calling goroutine until the queue is empty
// and nothing is outstanding, then closes the pump. wait blocks on wake while
// suspensions are outstanding.
func (p *pump) drain(run func(func()), wait func(wake <-chan struct{})) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			next := p.queue[0]
			p.queue[0] = nil
			p.queue = p.queue[1:]
			p.mu.Unlock()
			run(next)
			continue
		}

		if p.outstanding == 0 {
			p.closed = true
			p.queue = nil
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		wait(p.wake)
	}
}

// executingPump returns the execution whose pump serves the code running in ctx.
func executingPump(ctx context.Context) (*execution, error) {
	f := frameFrom(ctx)
	if f == nil || !f.held() {
		return nil, gerrors.ErrNoActiveExecution
	}

	if f.exec.pump == nil {
		return nil, gerrors.ErrSuspendUnsupported
	}
	return f.exec, nil
}

// Suspend runs fn off the lane and schedules then back onto the lane worker
// executing the current item. It must be called from inside a preserve-context
// item; otherwise it fails with ErrSuspendUnsupported, or with
// ErrNoActiveExecution outside of any item.
//
// fn receives a context detached from the lane: calls it makes to the lane are
// queued like any outside call. then runs with the item's execution context
// and may suspend again. The item completes once every continuation has run.
func Suspend[T any](ctx context.Context, fn func(context.Context) (T, error), then func(context.Context, T, error)) error {
	if fn == nil {
		return gerrors.ErrInvalidArgument
	}

	exec, err := executingPump(ctx)
	if err != nil {
		return err
	}

	if !exec.pump.acquire() {
		return gerrors.ErrNoActiveExecution
	}

	detached := detach(ctx)
	go func() {
		value, err := callSuspended(detached, fn)
		exec.pump.release(func() {
			if then != nil {
				then(exec.ctx, value, err)
				return
			}
			exec.fail(err)
		})
	}()
	return nil
}

// Post schedules fn to run on the lane worker executing the current item,
// after the code currently running returns. It has the same requirements as Suspend.
func Post(ctx context.Context, fn func(context.Context)) error {
	if fn == nil {
		return gerrors.ErrInvalidArgument
	}

	exec, err := executingPump(ctx)
	if err != nil {
		return err
	}

	if !exec.pump.post(func() { fn(exec.ctx) }) {
		return gerrors.ErrNoActiveExecution
	}
	return nil
}

func callSuspended[T any](ctx context.Context, fn func(context.Context) (T, error)) (value T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gerrors.NewPanicError(fmt.Errorf("%v", r))
		}
	}()
	return fn(ctx)
}
