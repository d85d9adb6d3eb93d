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

// Package registry binds wrapped objects to lanes.
//
// Every object gets exactly one lane, whatever the number of interface views
// created for it. Objects sharing an aggregation key share one lane. The
// registry refers to wrapped objects weakly: an entry vanishes once its object
// is garbage collected, or when it is forgotten explicitly.
package registry

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/internal/validation"
	"github.com/tochemey/actorlane/internal/workerpool"
	"github.com/tochemey/actorlane/internal/xsync"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
)

const (
	numShards                = 32
	defaultWorkerShards      = 8
	defaultWorkerIdleTimeout = time.Second
)

// View is an interface-typed wrapper of an object whose calls are forwarded
// to the object's lane.
type View interface {
	// Wrapped returns the wrapped object
	Wrapped() any
	// Lane returns the lane the view forwards to
	Lane() *lane.Lane
}

// IsView reports whether v is a view.
func IsView(v any) bool {
	_, ok := v.(View)
	return ok
}

// Unwrap returns the object wrapped by v when v is a view.
func Unwrap(v any) (any, bool) {
	view, ok := v.(View)
	if !ok {
		return nil, false
	}
	return view.Wrapped(), true
}

// Registry maps wrapped objects and their views to lanes.
type Registry struct {
	entries    *xsync.ShardedMap[uintptr, *entry]
	aggregates *xsync.ShardedMap[string, *lane.Lane]
	pendingOps *xsync.ShardedMap[uintptr, *pendingSlot]
	group      singleflight.Group

	workerPool *workerpool.WorkerPool
	hook       *lane.MonitorHook
	logger     log.Logger
	monitor    lane.Monitor

	defaultCapacity   int
	capacities        map[reflect.Type]int
	domains           map[reflect.Type]string
	policy            lane.OverflowPolicy
	workerShards      int
	workerIdleTimeout time.Duration

	shutdown atomic.Bool
}

// New creates a Registry and starts the worker pool shared by its lanes.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		entries:           xsync.NewShardedMap[uintptr, *entry](numShards, xsync.HashUintptr),
		aggregates:        xsync.NewShardedMap[string, *lane.Lane](numShards, xsync.HashString),
		pendingOps:        xsync.NewShardedMap[uintptr, *pendingSlot](numShards, xsync.HashUintptr),
		hook:              lane.NewMonitorHook(),
		logger:            log.DiscardLogger,
		capacities:        make(map[reflect.Type]int),
		domains:           make(map[reflect.Type]string),
		policy:            lane.Reject,
		workerShards:      defaultWorkerShards,
		workerIdleTimeout: defaultWorkerIdleTimeout,
	}

	for _, opt := range opts {
		opt.Apply(r)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}

	r.logger = r.logger.With("component", "registry")
	r.workerPool = workerpool.New(
		workerpool.WithNumShards(r.workerShards),
		workerpool.WithIdleTimeout(r.workerIdleTimeout),
	)
	r.workerPool.Start()
	return r, nil
}

func (r *Registry) validate() error {
	chain := validation.New(validation.AllErrors()).
		AddValidator(validation.NewMinimumValidator("default capacity", int64(r.defaultCapacity), 0)).
		AddValidator(validation.NewMinimumValidator("worker shards", int64(r.workerShards), 1)).
		AddValidator(validation.NewMinimumValidator("worker idle timeout", int64(r.workerIdleTimeout), 1)).
		AddValidator(validation.NewOneOfValidator("overflow policy", r.policy.String(), lane.Reject.String(), lane.Block.String())).
		AddAssertion(r.logger != nil, "the logger is required")

	for t, capacity := range r.capacities {
		chain.AddAssertion(t != nil, "capacity type is required").
			AddValidator(validation.NewMinimumValidator(fmt.Sprintf("capacity of %v", t), int64(capacity), 0))
	}

	for t, key := range r.domains {
		chain.AddAssertion(t != nil, "domain type is required").
			AddAssertion(key != "", fmt.Sprintf("domain key of %v is required", t))
	}

	if err := chain.Validate(); err != nil {
		return fmt.Errorf("%w: %w", gerrors.ErrInvalidConfig, err)
	}
	return nil
}

// ResolveLane returns the lane of obj, creating it when needed.
//
// With an aggregation key the lane registered under that key is returned and
// bound to obj; an object already bound to another lane makes it fail with
// ErrLaneDiverged. Without a key the object's existing lane is returned, then
// the lane of the domain configured for ifaceType, then a new lane.
func (r *Registry) ResolveLane(obj any, ifaceType reflect.Type, aggregateKey string) (*lane.Lane, error) {
	if r.shutdown.Load() {
		return nil, gerrors.ErrRegistryShutdown
	}

	id, err := identify(subject(obj))
	if err != nil {
		return nil, err
	}

	if aggregateKey != "" {
		shared := r.aggregateLane(aggregateKey)
		e := r.bind(id, func() (*lane.Lane, bool) { return shared, false })
		if e.lane != shared {
			return nil, fmt.Errorf("%w: object is already bound to lane %s, not to aggregate %q", gerrors.ErrLaneDiverged, e.lane.Name(), aggregateKey)
		}
		return shared, nil
	}

	if e, ok := r.lookup(id); ok {
		return r.assertSingleLane(e)
	}

	e := r.bind(id, func() (*lane.Lane, bool) {
		if key := r.domainOf(ifaceType, id.typ); key != "" {
			return r.aggregateLane(key), false
		}
		return r.newLane(laneName(ifaceType, id.typ), r.capacityOf(ifaceType, id.typ)), true
	})
	return r.assertSingleLane(e)
}

// RegisterView records view as the canonical wrapper of obj for ifaceType.
// When a live view already exists for that pair, it is returned instead and
// view is discarded. The view must be a pointer forwarding to the lane of obj.
// Views are referenced weakly: once every caller dropped it, the next
// registration for the pair wins.
func (r *Registry) RegisterView(obj any, ifaceType reflect.Type, view View) (View, error) {
	if r.shutdown.Load() {
		return nil, gerrors.ErrRegistryShutdown
	}

	if view == nil || view.Lane() == nil {
		return nil, fmt.Errorf("%w: view and its lane are required", gerrors.ErrInvalidArgument)
	}

	if err := checkInterface(ifaceType); err != nil {
		return nil, err
	}

	if !reflect.TypeOf(view).Implements(ifaceType) {
		return nil, fmt.Errorf("%w: %T does not implement %v", gerrors.ErrViewTypeMismatch, view, ifaceType)
	}

	viewID, err := identify(view)
	if err != nil {
		return nil, err
	}

	id, err := identify(subject(obj))
	if err != nil {
		return nil, err
	}

	e := r.bind(id, func() (*lane.Lane, bool) { return view.Lane(), false })
	if e.lane != view.Lane() {
		return nil, fmt.Errorf("%w: view forwards to lane %s, object is bound to lane %s", gerrors.ErrLaneDiverged, view.Lane().Name(), e.lane.Name())
	}
	return e.addView(ifaceType, view, viewID), nil
}

// View returns the view registered for obj and ifaceType.
func (r *Registry) View(obj any, ifaceType reflect.Type) (View, bool) {
	e, ok := r.entryOf(obj)
	if !ok {
		return nil, false
	}
	return e.view(ifaceType)
}

// Views returns the views registered for obj, by interface type.
func (r *Registry) Views(obj any) map[reflect.Type]View {
	e, ok := r.entryOf(obj)
	if !ok {
		return nil
	}
	return e.snapshot()
}

// Lane returns the lane of obj, which may be a wrapped object or a view.
// It fails with ErrNoLane when no lane was ever resolved for the object.
func (r *Registry) Lane(obj any) (*lane.Lane, error) {
	if view, ok := obj.(View); ok {
		return view.Lane(), nil
	}

	e, ok := r.entryOf(obj)
	if !ok {
		return nil, gerrors.ErrNoLane
	}
	return e.lane, nil
}

// AssertSingleLane verifies that the lane of obj and the lanes of all its
// views are one and the same, and returns it.
func (r *Registry) AssertSingleLane(obj any) (*lane.Lane, error) {
	e, ok := r.entryOf(obj)
	if !ok {
		return nil, gerrors.ErrNoLane
	}
	return r.assertSingleLane(e)
}

// Forget removes obj from the registry. A lane owned by the object is
// stopped: its queued items still run. It reports whether obj was registered.
func (r *Registry) Forget(obj any) bool {
	id, err := identify(subject(obj))
	if err != nil {
		return false
	}

	if slot, ok := r.pendingOps.DeleteFunc(id.addr, func(slot *pendingSlot) bool {
		return slot.ref.Value() == id.ptr
	}); ok {
		slot.cleanup.Stop()
	}

	e, ok := r.entries.DeleteFunc(id.addr, func(e *entry) bool {
		return e.refersTo(id.ptr)
	})
	if !ok {
		return false
	}

	e.cleanup.Stop()
	r.release(e)
	return true
}

// Call runs action on the lane of obj, which may be a wrapped object or a view.
func (r *Registry) Call(ctx context.Context, obj any, action lane.Action) (*lane.Item, error) {
	if action == nil {
		return nil, fmt.Errorf("%w: action is nil", gerrors.ErrInvalidArgument)
	}

	l, err := r.Lane(obj)
	if err != nil {
		return nil, err
	}
	return l.Enqueue(ctx, action, lane.WithTarget(subject(obj), ""))
}

// BeginMonitor activates the monitor notified by every lane of the registry.
func (r *Registry) BeginMonitor(monitor lane.Monitor) error {
	return r.hook.Begin(monitor)
}

// EndMonitor deactivates the monitor activated by BeginMonitor.
func (r *Registry) EndMonitor(monitor lane.Monitor) error {
	return r.hook.End(monitor)
}

// Shutdown stops every lane, waits for their queued items to run, then
// stops the worker pool. The registry cannot be used afterwards.
func (r *Registry) Shutdown(ctx context.Context) error {
	if !r.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	lanes := r.lanes()
	r.logger.Infof("shutting down %d lanes", lanes.Cardinality())

	// the first lane failing to drain in time stops the wait on the others
	eg, egCtx := errgroup.WithContext(ctx)
	for l := range lanes.Iter() {
		eg.Go(func() error {
			if err := l.Shutdown(egCtx); err != nil {
				return fmt.Errorf("lane %s: %w", l.Name(), err)
			}
			return nil
		})
	}
	err := eg.Wait()

	r.workerPool.Stop()
	r.entries.Reset()
	r.aggregates.Reset()
	r.pendingOps.Reset()
	return err
}

// Stats returns a snapshot of the registry
func (r *Registry) Stats() Stats {
	lanes := r.lanes()
	stats := Stats{
		Objects:    r.entries.Len(),
		Aggregates: r.aggregates.Len(),
		Workers:    r.workerPool.GetSpawnedWorkers(),
		Lanes:      make([]lane.Stats, 0, lanes.Cardinality()),
	}
	for l := range lanes.Iter() {
		stats.Lanes = append(stats.Lanes, l.Stats())
	}
	return stats
}

// Stats is a snapshot of the registry
type Stats struct {
	Objects    int
	Aggregates int
	Workers    int
	Lanes      []lane.Stats
}

// bind returns the live entry of id, creating it with the lane returned by
// create when there is none. An entry left by a collected object whose address
// was reused is replaced.
func (r *Registry) bind(id identity, create func() (*lane.Lane, bool)) *entry {
	var stale *entry
	e := r.entries.Compute(id.addr, func(current *entry, loaded bool) (*entry, bool) {
		if loaded && current.refersTo(id.ptr) {
			return current, false
		}
		if loaded {
			stale = current
		}

		l, owned := create()
		created := newEntry(id, l, owned)
		created.cleanup = runtime.AddCleanup(id.ptr, r.evict, evictKey{addr: id.addr, entry: created})
		return created, true
	})

	if stale != nil {
		stale.cleanup.Stop()
		r.release(stale)
	}

	// keep the object alive until its cleanup is registered
	runtime.KeepAlive(id.ptr)
	return e
}

func (r *Registry) lookup(id identity) (*entry, bool) {
	e, ok := r.entries.Get(id.addr)
	if !ok || !e.refersTo(id.ptr) {
		return nil, false
	}
	return e, true
}

func (r *Registry) entryOf(obj any) (*entry, bool) {
	id, err := identify(subject(obj))
	if err != nil {
		return nil, false
	}
	return r.lookup(id)
}

// evict runs once a wrapped object has been collected
func (r *Registry) evict(key evictKey) {
	if _, ok := r.entries.DeleteFunc(key.addr, func(e *entry) bool { return e == key.entry }); ok {
		r.release(key.entry)
	}
}

// release stops the lane owned by a removed entry
func (r *Registry) release(e *entry) {
	if e.ownsLane {
		e.lane.Stop()
		r.logger.Debugf("lane %s released", e.lane.Name())
	}
}

func (r *Registry) assertSingleLane(e *entry) (*lane.Lane, error) {
	lanes := mapset.NewThreadUnsafeSet(e.lane)
	for _, v := range e.snapshot() {
		lanes.Add(v.Lane())
	}

	if lanes.Cardinality() > 1 {
		return nil, fmt.Errorf("%w: found %d lanes", gerrors.ErrLaneDiverged, lanes.Cardinality())
	}
	return e.lane, nil
}

// aggregateLane returns the lane registered under key, creating it once.
func (r *Registry) aggregateLane(key string) *lane.Lane {
	if l, ok := r.aggregates.Get(key); ok {
		return l
	}

	value, _, _ := r.group.Do(key, func() (any, error) {
		if l, ok := r.aggregates.Get(key); ok {
			return l, nil
		}
		l := r.newLane(key, r.defaultCapacity)
		r.aggregates.Set(key, l)
		return l, nil
	})
	return value.(*lane.Lane)
}

func (r *Registry) newLane(name string, capacity int) *lane.Lane {
	l := lane.New(
		lane.WithName(name),
		lane.WithCapacity(capacity),
		lane.WithOverflowPolicy(r.policy),
		lane.WithWorkerPool(r.workerPool),
		lane.WithLogger(r.logger),
		lane.WithMonitor(r.monitor),
		lane.WithMonitorHook(r.hook),
	)
	r.logger.Debugf("lane %s created with capacity %d", name, capacity)
	return l
}

// lanes returns every distinct lane known to the registry
func (r *Registry) lanes() mapset.Set[*lane.Lane] {
	lanes := mapset.NewSet[*lane.Lane]()
	r.entries.Range(func(_ uintptr, e *entry) {
		lanes.Add(e.lane)
	})
	r.aggregates.Range(func(_ string, l *lane.Lane) {
		lanes.Add(l)
	})
	return lanes
}

func (r *Registry) capacityOf(ifaceType, objType reflect.Type) int {
	if capacity, ok := r.capacities[ifaceType]; ok && ifaceType != nil {
		return capacity
	}
	if capacity, ok := r.capacities[objType]; ok {
		return capacity
	}
	return r.defaultCapacity
}

func (r *Registry) domainOf(ifaceType, objType reflect.Type) string {
	if key, ok := r.domains[ifaceType]; ok && ifaceType != nil {
		return key
	}
	return r.domains[objType]
}

func laneName(ifaceType, objType reflect.Type) string {
	if ifaceType != nil {
		return ifaceType.String()
	}
	return objType.String()
}

func checkInterface(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %v is not an interface type", gerrors.ErrInvalidArgument, t)
	}
	return nil
}

// subject returns the object wrapped by obj when obj is a view.
func subject(obj any) any {
	if wrapped, ok := Unwrap(obj); ok {
		return wrapped
	}
	return obj
}
