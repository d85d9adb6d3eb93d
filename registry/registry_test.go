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
	"context"
	"errors"
	"reflect"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
	"github.com/tochemey/actorlane/pending"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type greeter interface {
	Greet(ctx context.Context) error
}

type namer interface {
	Name() string
}

type person struct {
	name   string
	greets int
}

type greeterView struct {
	obj  *person
	lane *lane.Lane
}

func (v *greeterView) Wrapped() any     { return v.obj }
func (v *greeterView) Lane() *lane.Lane { return v.lane }
func (v *greeterView) Greet(ctx context.Context) error {
	item, err := v.lane.Enqueue(ctx, func(context.Context) error {
		v.obj.greets++
		return nil
	}, lane.WithTarget(v.obj, ""))
	if err != nil {
		return err
	}
	return item.Await(ctx)
}

type namerView struct {
	obj  *person
	lane *lane.Lane
}

func (v *namerView) Wrapped() any     { return v.obj }
func (v *namerView) Lane() *lane.Lane { return v.lane }
func (v *namerView) Name() string     { return v.obj.name }

var (
	greeterType = reflect.TypeFor[greeter]()
	namerType   = reflect.TypeFor[namer]()
)

func newRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	r, err := New(append([]Option{WithLogger(log.DiscardLogger)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, r.Shutdown(ctx))
	})
	return r
}

func TestNew(t *testing.T) {
	t.Run("With invalid options", func(t *testing.T) {
		r, err := New(
			WithDefaultCapacity(-1),
			WithWorkerShards(0),
			WithOverflowPolicy(lane.OverflowPolicy(42)),
			WithDomain(greeterType, ""),
		)
		require.Error(t, err)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "default capacity")
		assert.Contains(t, err.Error(), "worker shards")
	})
	t.Run("With nil logger", func(t *testing.T) {
		_, err := New(WithLogger(nil))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
}

func TestResolveLane(t *testing.T) {
	t.Run("With the same object resolved through two interfaces", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{name: "ada"}

		first, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)
		second, err := r.ResolveLane(obj, namerType, "")
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Equal(t, "registry.greeter", first.Name())

		other, err := r.ResolveLane(&person{name: "bob"}, greeterType, "")
		require.NoError(t, err)
		assert.NotSame(t, first, other)
	})
	t.Run("With concurrent resolutions of one object", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{name: "ada"}

		const racers = 32
		lanes := make([]*lane.Lane, racers)
		var wg sync.WaitGroup
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				l, err := r.ResolveLane(obj, greeterType, "")
				assert.NoError(t, err)
				lanes[i] = l
			}()
		}
		wg.Wait()

		for _, l := range lanes {
			assert.Same(t, lanes[0], l)
		}
		assert.Equal(t, 1, r.Stats().Objects)
		runtime.KeepAlive(obj)
	})
	t.Run("With an aggregation key shared by objects", func(t *testing.T) {
		r := newRegistry(t)
		a, b := &person{name: "a"}, &person{name: "b"}

		la, err := r.ResolveLane(a, greeterType, "shared")
		require.NoError(t, err)
		lb, err := r.ResolveLane(b, namerType, "shared")
		require.NoError(t, err)
		assert.Same(t, la, lb)
		assert.Equal(t, "shared", la.Name())

		// the binding sticks without the key
		again, err := r.ResolveLane(a, greeterType, "")
		require.NoError(t, err)
		assert.Same(t, la, again)
	})
	t.Run("With an aggregation key conflicting with an existing lane", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}

		_, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)
		_, err = r.ResolveLane(obj, greeterType, "other")
		assert.ErrorIs(t, err, gerrors.ErrLaneDiverged)
	})
	t.Run("With a domain configured for the interface", func(t *testing.T) {
		r := newRegistry(t, WithDomain(greeterType, "greeters"))

		la, err := r.ResolveLane(&person{}, greeterType, "")
		require.NoError(t, err)
		lb, err := r.ResolveLane(&person{}, greeterType, "")
		require.NoError(t, err)
		assert.Same(t, la, lb)
		assert.Equal(t, "greeters", la.Name())
	})
	t.Run("With a domain yielding to an existing lane", func(t *testing.T) {
		r := newRegistry(t, WithDomain(greeterType, "greeters"))
		obj := &person{}

		own, err := r.ResolveLane(obj, namerType, "")
		require.NoError(t, err)
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)
		assert.Same(t, own, l)
	})
	t.Run("With a capacity configured for the interface", func(t *testing.T) {
		r := newRegistry(t, WithDefaultCapacity(8), WithCapacity(greeterType, 2))

		l, err := r.ResolveLane(&person{}, greeterType, "")
		require.NoError(t, err)
		assert.Equal(t, 2, l.Capacity())

		l, err = r.ResolveLane(&person{}, namerType, "")
		require.NoError(t, err)
		assert.Equal(t, 8, l.Capacity())
	})
	t.Run("With invalid objects", func(t *testing.T) {
		r := newRegistry(t)
		var nilPerson *person
		for _, obj := range []any{nil, person{}, nilPerson, &struct{}{}} {
			_, err := r.ResolveLane(obj, greeterType, "")
			assert.ErrorIs(t, err, gerrors.ErrInvalidArgument)
		}
	})
	t.Run("With a view as the object", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		resolved, err := r.ResolveLane(&greeterView{obj: obj, lane: l}, namerType, "")
		require.NoError(t, err)
		assert.Same(t, l, resolved)
	})
}

func TestViews(t *testing.T) {
	t.Run("With the first registration winning", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		first := &greeterView{obj: obj, lane: l}
		canonical, err := r.RegisterView(obj, greeterType, first)
		require.NoError(t, err)
		assert.Same(t, first, canonical)

		canonical, err = r.RegisterView(obj, greeterType, &greeterView{obj: obj, lane: l})
		require.NoError(t, err)
		assert.Same(t, first, canonical)

		found, ok := r.View(obj, greeterType)
		require.True(t, ok)
		assert.Same(t, first, found)

		_, ok = r.View(obj, namerType)
		assert.False(t, ok)
		runtime.KeepAlive(first)
	})
	t.Run("With views of several interfaces sharing the lane", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{name: "ada"}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		gv, err := r.RegisterView(obj, greeterType, &greeterView{obj: obj, lane: l})
		require.NoError(t, err)
		nv, err := r.RegisterView(gv, namerType, &namerView{obj: obj, lane: l})
		require.NoError(t, err)

		assert.Len(t, r.Views(obj), 2)
		single, err := r.AssertSingleLane(obj)
		require.NoError(t, err)
		assert.Same(t, l, single)

		fromView, err := r.Lane(nv)
		require.NoError(t, err)
		assert.Same(t, l, fromView)
		assert.True(t, IsView(nv))
		wrapped, ok := Unwrap(nv)
		require.True(t, ok)
		assert.Same(t, obj, wrapped)
		runtime.KeepAlive(gv)
	})
	t.Run("With a view forwarding to a different lane", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}
		_, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		stray := lane.New()
		defer stray.Stop()
		_, err = r.RegisterView(obj, greeterType, &greeterView{obj: obj, lane: stray})
		assert.ErrorIs(t, err, gerrors.ErrLaneDiverged)
	})
	t.Run("With a view not implementing the interface", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		_, err = r.RegisterView(obj, greeterType, &namerView{obj: obj, lane: l})
		assert.ErrorIs(t, err, gerrors.ErrViewTypeMismatch)

		_, err = r.RegisterView(obj, reflect.TypeFor[person](), &greeterView{obj: obj, lane: l})
		assert.ErrorIs(t, err, gerrors.ErrInvalidArgument)
	})
	t.Run("With concurrent registrations", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)

		const racers = 16
		views := make([]View, racers)
		var wg sync.WaitGroup
		for i := range racers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v, err := r.RegisterView(obj, greeterType, &greeterView{obj: obj, lane: l})
				assert.NoError(t, err)
				views[i] = v
			}()
		}
		wg.Wait()

		for _, v := range views {
			assert.Same(t, views[0], v)
		}
	})
	t.Run("With lane of an unknown object", func(t *testing.T) {
		r := newRegistry(t)
		_, err := r.Lane(&person{})
		assert.ErrorIs(t, err, gerrors.ErrNoLane)
		_, err = r.AssertSingleLane(&person{})
		assert.ErrorIs(t, err, gerrors.ErrNoLane)
		assert.False(t, IsView(&person{}))
	})
}

func TestForget(t *testing.T) {
	r := newRegistry(t)
	obj := &person{}
	l, err := r.ResolveLane(obj, greeterType, "")
	require.NoError(t, err)

	assert.True(t, r.Forget(obj))
	assert.False(t, r.Forget(obj))
	assert.True(t, l.IsStopped())

	_, err = r.Lane(obj)
	assert.ErrorIs(t, err, gerrors.ErrNoLane)

	fresh, err := r.ResolveLane(obj, greeterType, "")
	require.NoError(t, err)
	assert.NotSame(t, l, fresh)
}

func TestForgetKeepsAggregateLane(t *testing.T) {
	r := newRegistry(t)
	obj := &person{}
	l, err := r.ResolveLane(obj, greeterType, "shared")
	require.NoError(t, err)

	assert.True(t, r.Forget(obj))
	assert.False(t, l.IsStopped())
}

func TestCollectedObjectsAreEvicted(t *testing.T) {
	r := newRegistry(t)

	func() {
		obj := &person{name: "ephemeral"}
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)
		_, err = r.RegisterView(obj, greeterType, &greeterView{obj: obj, lane: l})
		require.NoError(t, err)
		require.NoError(t, r.RegisterPendingOperation(obj, pending.NewOperation(nil, 0, nil)))
	}()

	assert.Eventually(t, func() bool {
		runtime.GC()
		return r.Stats().Objects == 0 && r.pendingOps.Len() == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCall(t *testing.T) {
	r := newRegistry(t)
	obj := &person{}
	l, err := r.ResolveLane(obj, greeterType, "")
	require.NoError(t, err)
	view := &greeterView{obj: obj, lane: l}

	ctx := context.Background()
	item, err := r.Call(ctx, view, func(ctx context.Context) error {
		current, ok := lane.CurrentItem(ctx)
		if !ok || current.Target() != obj {
			return errors.New("unexpected target")
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, item.Await(ctx))
	require.NoError(t, view.Greet(ctx))
	assert.Equal(t, 1, obj.greets)

	_, err = r.Call(ctx, &person{}, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, gerrors.ErrNoLane)
	_, err = r.Call(ctx, obj, nil)
	assert.ErrorIs(t, err, gerrors.ErrInvalidArgument)
}

func TestPendingOperations(t *testing.T) {
	t.Run("With one operation per object", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}

		op, err := r.RegisterPendingSignal(obj, nil, 0, nil)
		require.NoError(t, err)
		_, err = r.RegisterPendingSignal(obj, nil, 0, nil)
		assert.ErrorIs(t, err, gerrors.ErrPendingExists)

		taken, ok := r.TakePendingOperation(obj)
		require.True(t, ok)
		assert.Same(t, op, taken)

		_, ok = r.TakePendingOperation(obj)
		assert.False(t, ok)
		require.NoError(t, r.RegisterPendingOperation(obj, op))
	})
	t.Run("With a typed operation", func(t *testing.T) {
		r := newRegistry(t)
		obj := &person{}

		op, err := RegisterPendingTyped(r, obj, nil, func() (int, error) { return 42, nil }, time.Second, nil)
		require.NoError(t, err)
		op.Complete()

		taken, ok := r.TakePendingOperation(obj)
		require.True(t, ok)
		result, ok := taken.(pending.ResultOperation)
		require.True(t, ok)
		require.True(t, result.WaitForCompletion())
		value, err := result.Value()
		require.NoError(t, err)
		assert.Equal(t, 42, value)
	})
	t.Run("With invalid arguments", func(t *testing.T) {
		r := newRegistry(t)
		assert.ErrorIs(t, r.RegisterPendingOperation(&person{}, nil), gerrors.ErrInvalidArgument)
		_, err := r.RegisterPendingSignal(nil, nil, 0, nil)
		assert.ErrorIs(t, err, gerrors.ErrInvalidArgument)
	})
}

type countingMonitor struct {
	mu    sync.Mutex
	exits []string
}

func (m *countingMonitor) Enter(context.Context, *lane.CallDetails) {}

func (m *countingMonitor) Exit(_ context.Context, details *lane.CallDetails) {
	m.mu.Lock()
	m.exits = append(m.exits, details.TargetType)
	m.mu.Unlock()
}

func (m *countingMonitor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exits)
}

func TestMonitor(t *testing.T) {
	r := newRegistry(t)
	obj := &person{}
	l, err := r.ResolveLane(obj, greeterType, "")
	require.NoError(t, err)
	view := &greeterView{obj: obj, lane: l}
	ctx := context.Background()

	monitor := new(countingMonitor)
	require.NoError(t, r.BeginMonitor(monitor))
	assert.ErrorIs(t, r.BeginMonitor(new(countingMonitor)), gerrors.ErrMonitorActive)

	require.NoError(t, view.Greet(ctx))
	assert.Eventually(t, func() bool { return monitor.count() == 1 }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, r.EndMonitor(new(countingMonitor)), gerrors.ErrMonitorMismatch)
	require.NoError(t, r.EndMonitor(monitor))

	require.NoError(t, view.Greet(ctx))
	assert.Equal(t, 1, monitor.count())
	assert.Equal(t, []string{"*registry.person"}, monitor.exits)
}

func TestShutdown(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	ctx := context.Background()
	var ran atomic.Int32
	objs := []*person{{}, {}, {}}
	for _, obj := range objs {
		l, err := r.ResolveLane(obj, greeterType, "")
		require.NoError(t, err)
		_, err = l.Enqueue(ctx, func(context.Context) error {
			time.Sleep(10 * time.Millisecond)
			ran.Add(1)
			return nil
		})
		require.NoError(t, err)
	}

	stats := r.Stats()
	assert.Len(t, stats.Lanes, 3)
	assert.Equal(t, 3, stats.Objects)
	runtime.KeepAlive(objs)

	require.NoError(t, r.Shutdown(ctx))
	assert.EqualValues(t, 3, ran.Load())
	require.NoError(t, r.Shutdown(ctx))

	_, err = r.ResolveLane(&person{}, greeterType, "")
	assert.ErrorIs(t, err, gerrors.ErrRegistryShutdown)
	assert.ErrorIs(t, r.RegisterPendingOperation(&person{}, pending.NewOperation(nil, 0, nil)), gerrors.ErrRegistryShutdown)
}

func TestShutdownTimeout(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	obj := &person{}
	l, err := r.ResolveLane(obj, greeterType, "")
	require.NoError(t, err)

	release := make(chan struct{})
	item, err := l.Enqueue(context.Background(), func(context.Context) error {
		<-release
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = r.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, err.Error(), l.Name())

	close(release)
	require.NoError(t, item.Await(context.Background()))
	runtime.KeepAlive(obj)
}
