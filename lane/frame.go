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
	"runtime"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// frameKey is the context key under which the innermost frame is stored.
type frameKey struct{}

// frame marks a piece of code as running inside the execution of a lane
// item. Frames are immutable and chained from the innermost to the outermost.
//
// The code running in a frame owns the execution's gate exactly when the
// execution's claim names that frame and the calling goroutine. A goroutine
// started with a lane context therefore never owns the gate, and neither do
// frames inherited by work submitted to another lane: such code has to take
// the gate before running in place.
type frame struct {
	lane   *Lane
	exec   *execution
	parent *frame
}

// execution is the running state of one item on its lane.
type execution struct {
	item   *Item
	ctx    context.Context
	gate   sync.Mutex
	holder atomic.Pointer[claim]
	// guarded by gate
	finished bool
	pump     *pump

	mu  sync.Mutex
	err error
}

func newExecution(item *Item) *execution {
	exec := &execution{item: item}
	if item.preserveContext {
		exec.pump = newPump()
	}
	return exec
}

// fail records a failure of the execution.
func (exec *execution) fail(err error) {
	if err == nil {
		return
	}
	exec.mu.Lock()
	exec.err = multierr.Append(exec.err, err)
	exec.mu.Unlock()
}

func (exec *execution) failure() error {
	exec.mu.Lock()
	defer exec.mu.Unlock()
	return exec.err
}

// claim records which frame owns the gate, and on which goroutine.
type claim struct {
	frame     *frame
	goroutine uint64
}

// hold makes f, on the calling goroutine, the owner of the gate and returns
// the previous claim. The caller must hold the gate.
func (exec *execution) hold(f *frame) *claim {
	return exec.holder.Swap(&claim{frame: f, goroutine: goroutineID()})
}

// frameFrom returns the innermost frame carried by ctx.
func frameFrom(ctx context.Context) *frame {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

func withFrame(ctx context.Context, f *frame) context.Context {
	return context.WithValue(ctx, frameKey{}, f)
}

// detach strips every frame from ctx. Code running with a detached context is
// treated as outside of any lane.
func detach(ctx context.Context) context.Context {
	if frameFrom(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, frameKey{}, (*frame)(nil))
}

// find returns the innermost frame of the given lane.
func (f *frame) find(l *Lane) *frame {
	for ; f != nil; f = f.parent {
		if f.lane == l {
			return f
		}
	}
	return nil
}

// held reports whether the code running in f owns its execution's gate.
func (f *frame) held() bool {
	c := f.exec.holder.Load()
	return c != nil && c.frame == f && c.goroutine == goroutineID()
}

// inherit copies a chain of frames. The copies keep their executions but can
// never match a holder.
func inherit(f *frame) *frame {
	if f == nil {
		return nil
	}
	var chain []*frame
	for ; f != nil; f = f.parent {
		chain = append(chain, f)
	}

	var parent *frame
	for i := len(chain) - 1; i >= 0; i-- {
		parent = &frame{lane: chain[i].lane, exec: chain[i].exec, parent: parent}
	}
	return parent
}

// park releases every gate held by the chain carried by ctx, innermost
// first, and returns what it released.
func park(ctx context.Context) []*frame {
	var released []*frame
	for f := frameFrom(ctx); f != nil; f = f.parent {
		if f.held() {
			f.exec.holder.Store(nil)
			f.exec.gate.Unlock()
			released = append(released, f)
		}
	}
	return released
}

// resume re-acquires the gates released by park, outermost first.
func resume(released []*frame) {
	for i := len(released) - 1; i >= 0; i-- {
		f := released[i]
		f.exec.gate.Lock()
		f.exec.hold(f)
	}
}

// goroutineID returns the id of the calling goroutine, read from the header
// of its stack trace: "goroutine 42 [running]:".
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] < '0' || buf[i] > '9' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}
