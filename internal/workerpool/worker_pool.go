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

// Package workerpool provides a sharded pool of goroutines. Lanes borrow a
// worker for the duration of a busy period instead of owning a goroutine.
package workerpool

import (
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// Maximum number of shards supported by the worker pool
	maxShards = 128

	// idle workers are only reclaimed once a shard holds more than this many
	reclaimThreshold = 400

	workerStateIdle    int32 = 0
	workerStateWorking int32 = 1
	workerStateClosed  int32 = 2
)

// ErrPoolNotRunning is returned when work is submitted to a pool that has not
// been started or has been stopped.
var ErrPoolNotRunning = errors.New("worker pool is not running")

// Option is the interface that applies a WorkerPool option.
type Option interface {
	// Apply sets the Option value of a WorkerPool.
	Apply(pool *WorkerPool)
}

var _ Option = OptionFunc(nil)

// OptionFunc implements the Option interface.
type OptionFunc func(pool *WorkerPool)

// Apply applies the WorkerPool's option
func (f OptionFunc) Apply(pool *WorkerPool) {
	f(pool)
}

// WithIdleTimeout sets how long a worker may stay idle before it is reclaimed
func WithIdleTimeout(d time.Duration) Option {
	return OptionFunc(func(pool *WorkerPool) {
		if d > 0 {
			pool.idleTimeout = d
		}
	})
}

// WithNumShards sets the number of shards
func WithNumShards(numShards int) Option {
	return OptionFunc(func(pool *WorkerPool) {
		pool.numShards = numShards
	})
}

// WorkerPool manages a pool of workers across multiple shards for efficient
// concurrent task execution.
type WorkerPool struct {
	idleTimeout    time.Duration
	numShards      int
	shards         []*poolShard
	mutex          sync.RWMutex
	started        atomic.Bool
	stopped        atomic.Bool
	spawnedWorkers atomic.Int64
	reclaimerDone  chan struct{}
	stopCh         chan struct{}
}

// Worker represents a goroutine that executes submitted tasks.
type Worker struct {
	workChan  chan func()
	shard     *poolShard
	lastUsed  atomic.Int64
	isDeleted atomic.Bool
	state     atomic.Int32
}

// poolShard is a subdivision of the pool that reduces contention on the idle list.
type poolShard struct {
	wp          *WorkerPool
	workers     sync.Pool
	idleWorkers []*Worker
	idleWorker1 atomic.Pointer[Worker]
	idleWorker2 atomic.Pointer[Worker]
	mu          sync.Mutex
	stopped     atomic.Bool
}

// New creates a new worker pool with the given options.
func New(opts ...Option) *WorkerPool {
	wp := &WorkerPool{
		idleTimeout: time.Second,
		numShards:   1,
	}

	for _, opt := range opts {
		opt.Apply(wp)
	}

	if wp.numShards < 1 {
		wp.numShards = 1
	} else if wp.numShards > maxShards {
		wp.numShards = maxShards
	}

	return wp
}

// GetSpawnedWorkers returns the current count of live workers.
func (wp *WorkerPool) GetSpawnedWorkers() int {
	return int(wp.spawnedWorkers.Load())
}

// Start initializes the worker pool and begins the reclaim routine.
// It's safe to call Start multiple times.
func (wp *WorkerPool) Start() {
	wp.mutex.Lock()
	defer wp.mutex.Unlock()
	if wp.started.Load() || wp.stopped.Load() {
		return
	}

	wp.shards = make([]*poolShard, wp.numShards)
	for i := range wp.numShards {
		wp.shards[i] = &poolShard{
			wp: wp,
			workers: sync.Pool{
				New: func() any {
					return &Worker{workChan: make(chan func())}
				},
			},
			idleWorkers: make([]*Worker, 0, 64),
		}
	}

	wp.reclaimerDone = make(chan struct{})
	wp.stopCh = make(chan struct{})
	wp.started.Store(true)
	go wp.reclaim()
}

// Stop shuts down the worker pool. Idle workers exit immediately, busy workers
// exit once their current task returns. Further submissions fail.
func (wp *WorkerPool) Stop() {
	wp.mutex.Lock()
	if !wp.started.Load() || wp.stopped.Swap(true) {
		wp.mutex.Unlock()
		return
	}

	for _, shard := range wp.shards {
		shard.mu.Lock()
		shard.stopped.Store(true)
		for j, worker := range shard.idleWorkers {
			worker.close()
			shard.idleWorkers[j] = nil
		}
		shard.idleWorkers = shard.idleWorkers[:0]

		if w1 := shard.idleWorker1.Swap(nil); w1 != nil {
			w1.close()
		}

		if w2 := shard.idleWorker2.Swap(nil); w2 != nil {
			w2.close()
		}
		shard.mu.Unlock()
	}
	close(wp.stopCh)
	wp.mutex.Unlock()

	<-wp.reclaimerDone
}

// SubmitWork hands task to an available worker, spawning one if none is idle.
// It returns ErrPoolNotRunning when the pool is not running; the task is then
// not executed and the caller must run it another way.
func (wp *WorkerPool) SubmitWork(task func()) error {
	wp.mutex.RLock()
	if !wp.started.Load() || wp.stopped.Load() {
		wp.mutex.RUnlock()
		return ErrPoolNotRunning
	}

	shard := wp.shards[rand.IntN(wp.numShards)]
	wp.mutex.RUnlock()

	if shard.acquireWorker(task) == nil {
		return ErrPoolNotRunning
	}
	return nil
}

// acquireWorker gets an available worker or creates a new one and
// submits the task to it. It returns nil when the shard is stopped.
func (shard *poolShard) acquireWorker(task func()) *Worker {
	for _, slot := range []*atomic.Pointer[Worker]{&shard.idleWorker1, &shard.idleWorker2} {
		if w := slot.Swap(nil); w != nil {
			if !w.isDeleted.Load() && w.state.CompareAndSwap(workerStateIdle, workerStateWorking) {
				w.workChan <- task
				return w
			}
		}
	}

	shard.mu.Lock()
	if shard.stopped.Load() {
		shard.mu.Unlock()
		return nil
	}

	for length := len(shard.idleWorkers); length > 0; length = len(shard.idleWorkers) {
		worker := shard.idleWorkers[length-1]
		shard.idleWorkers[length-1] = nil
		shard.idleWorkers = shard.idleWorkers[:length-1]
		if !worker.isDeleted.Load() && worker.state.CompareAndSwap(workerStateIdle, workerStateWorking) {
			shard.mu.Unlock()
			worker.workChan <- task
			return worker
		}
	}
	shard.mu.Unlock()

	worker := shard.workers.Get().(*Worker)
	worker.shard = shard
	worker.workChan = make(chan func())
	worker.state.Store(workerStateWorking)
	worker.isDeleted.Store(false)
	shard.wp.spawnedWorkers.Add(1)
	go worker.doWork()

	worker.workChan <- task
	return worker
}

// doWork is the main worker goroutine function that processes incoming tasks.
func (worker *Worker) doWork() {
	shard := worker.shard
	defer func() {
		shard.wp.spawnedWorkers.Add(-1)
		shard.workers.Put(worker)
	}()

	for work := range worker.workChan {
		work()

		worker.state.Store(workerStateIdle)
		if !shard.setWorkerIdle(worker) {
			return
		}
	}
}

// close marks the worker deleted and closes its channel once.
func (worker *Worker) close() {
	if !worker.isDeleted.Swap(true) {
		worker.state.Store(workerStateClosed)
		close(worker.workChan)
	}
}

// setWorkerIdle makes a worker available for future tasks.
// Returns false if the worker's shard has been stopped.
func (shard *poolShard) setWorkerIdle(worker *Worker) bool {
	worker.lastUsed.Store(time.Now().UnixNano())

	if shard.stopped.Load() {
		return false
	}

	if shard.idleWorker1.CompareAndSwap(nil, worker) {
		return true
	}

	if shard.idleWorker2.CompareAndSwap(nil, worker) {
		return true
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if shard.stopped.Load() {
		return false
	}

	shard.idleWorkers = append(shard.idleWorkers, worker)
	return true
}

// reclaim periodically closes workers that have been idle for longer than idleTimeout.
func (wp *WorkerPool) reclaim() {
	defer close(wp.reclaimerDone)
	ticker := time.NewTicker(wp.idleTimeout)
	defer ticker.Stop()

	var expired []*Worker
	for {
		select {
		case <-ticker.C:
		case <-wp.stopCh:
			return
		}

		if wp.stopped.Load() {
			return
		}

		cutoff := time.Now().Add(-wp.idleTimeout).UnixNano()
		for _, shard := range wp.shards {
			shard.mu.Lock()
			length := len(shard.idleWorkers)
			if length <= reclaimThreshold {
				shard.mu.Unlock()
				continue
			}

			// idleWorkers is ordered by lastUsed: the oldest ones sit at the front
			pos := 0
			for pos < length && shard.idleWorkers[pos].lastUsed.Load() < cutoff {
				pos++
			}

			expired = append(expired[:0], shard.idleWorkers[:pos]...)
			remaining := copy(shard.idleWorkers, shard.idleWorkers[pos:])
			for j := remaining; j < length; j++ {
				shard.idleWorkers[j] = nil
			}
			shard.idleWorkers = shard.idleWorkers[:remaining]
			shard.mu.Unlock()

			for j := range expired {
				expired[j].close()
				expired[j] = nil
			}
		}
	}
}
