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

// Package xsync provides concurrency-safe generic maps.
package xsync

import (
	"encoding/binary"
	"sync"

	"github.com/zeebo/xxh3"
)

// Map is a generic, concurrency-safe map that allows storing key-value pairs
// while ensuring thread safety using a read-write mutex.
//
// K represents the key type, which must be comparable.
// V represents the value type, which can be any type.
type Map[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// NewMap creates and returns a new instance of Map.
func NewMap[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{
		data: make(map[K]V),
	}
}

// Set stores a key-value pair in the Map.
// If the key already exists, its value is updated.
func (s *Map[K, V]) Set(k K, v V) {
	s.mu.Lock()
	s.data[k] = v
	s.mu.Unlock()
}

// Get retrieves the value associated with the given key from the Map.
// The second return value indicates whether the key was found.
func (s *Map[K, V]) Get(k K) (V, bool) {
	s.mu.RLock()
	val, ok := s.data[k]
	s.mu.RUnlock()
	return val, ok
}

// Compute atomically updates the value stored under k. fn receives the current
// value and whether it exists, and returns the value to keep and whether it
// must be stored. Compute returns the value held under k once fn ran.
// fn runs under the map's write lock and must not call back into the map.
func (s *Map[K, V]) Compute(k K, fn func(current V, loaded bool) (V, bool)) V {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, loaded := s.data[k]
	next, store := fn(current, loaded)
	if store {
		s.data[k] = next
		return next
	}
	return current
}

// Delete removes the key-value pair associated with the given key from the Map.
// If the key does not exist, this operation has no effect.
func (s *Map[K, V]) Delete(k K) {
	s.mu.Lock()
	delete(s.data, k)
	s.mu.Unlock()
}

// DeleteFunc removes the value stored under k when match reports true for it.
func (s *Map[K, V]) DeleteFunc(k K, match func(V) bool) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[k]
	if !ok || !match(current) {
		var zero V
		return zero, false
	}
	delete(s.data, k)
	return current, true
}

// Len returns the number of key-value pairs currently stored in the Map.
func (s *Map[K, V]) Len() int {
	s.mu.RLock()
	l := len(s.data)
	s.mu.RUnlock()
	return l
}

// Range iterates over all key-value pairs in the Map and executes the given function `f`
// for each pair. The iteration order is not guaranteed.
func (s *Map[K, V]) Range(f func(K, V)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, v := range s.data {
		f(k, v)
	}
}

// Values returns the values in the Map
func (s *Map[K, V]) Values() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([]V, 0, len(s.data))
	for _, v := range s.data {
		values = append(values, v)
	}
	return values
}

// Reset clears all key-value pairs from the Map.
func (s *Map[K, V]) Reset() {
	s.mu.Lock()
	clear(s.data)
	s.mu.Unlock()
}

// ShardedMap spreads its keys over several Maps to reduce lock contention.
type ShardedMap[K comparable, V any] struct {
	shards []*Map[K, V]
	hash   func(K) uint64
}

// NewShardedMap creates a ShardedMap with the given number of shards and key hash.
func NewShardedMap[K comparable, V any](shards int, hash func(K) uint64) *ShardedMap[K, V] {
	if shards < 1 {
		shards = 1
	}
	m := &ShardedMap[K, V]{
		shards: make([]*Map[K, V], shards),
		hash:   hash,
	}
	for i := range m.shards {
		m.shards[i] = NewMap[K, V]()
	}
	return m
}

func (m *ShardedMap[K, V]) shard(k K) *Map[K, V] {
	return m.shards[m.hash(k)%uint64(len(m.shards))]
}

// Get retrieves the value stored under k
func (m *ShardedMap[K, V]) Get(k K) (V, bool) {
	return m.shard(k).Get(k)
}

// Set stores v under k
func (m *ShardedMap[K, V]) Set(k K, v V) {
	m.shard(k).Set(k, v)
}

// Compute atomically updates the value stored under k. See Map.Compute.
func (m *ShardedMap[K, V]) Compute(k K, fn func(current V, loaded bool) (V, bool)) V {
	return m.shard(k).Compute(k, fn)
}

// Delete removes k
func (m *ShardedMap[K, V]) Delete(k K) {
	m.shard(k).Delete(k)
}

// DeleteFunc removes the value stored under k when match reports true for it.
func (m *ShardedMap[K, V]) DeleteFunc(k K, match func(V) bool) (V, bool) {
	return m.shard(k).DeleteFunc(k, match)
}

// Len returns the number of stored values
func (m *ShardedMap[K, V]) Len() int {
	total := 0
	for _, shard := range m.shards {
		total += shard.Len()
	}
	return total
}

// Range calls f for every stored pair, one shard at a time.
func (m *ShardedMap[K, V]) Range(f func(K, V)) {
	for _, shard := range m.shards {
		shard.Range(f)
	}
}

// Values returns the stored values
func (m *ShardedMap[K, V]) Values() []V {
	var values []V
	for _, shard := range m.shards {
		values = append(values, shard.Values()...)
	}
	return values
}

// Reset clears every shard
func (m *ShardedMap[K, V]) Reset() {
	for _, shard := range m.shards {
		shard.Reset()
	}
}

// HashString hashes a string key
func HashString(k string) uint64 {
	return xxh3.HashString(k)
}

// HashUintptr hashes an address key
func HashUintptr(k uintptr) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k))
	return xxh3.Hash(buf[:])
}
