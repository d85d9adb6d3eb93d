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

package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	t.Run("FIFO order", func(t *testing.T) {
		q := NewQueue[int]()
		assert.True(t, q.IsEmpty())
		for i := range 5 {
			q.Enqueue(i)
		}
		assert.EqualValues(t, 5, q.Len())
		for i := range 5 {
			v, ok := q.Dequeue()
			require.True(t, ok)
			assert.Equal(t, i, v)
		}
		_, ok := q.Dequeue()
		assert.False(t, ok)
		assert.True(t, q.IsEmpty())
		assert.Zero(t, q.Len())
	})
	t.Run("concurrent producers and consumers", func(t *testing.T) {
		q := NewQueue[int]()
		producers, perProducer := 8, 500
		var wg sync.WaitGroup
		wg.Add(producers)
		for p := range producers {
			go func() {
				defer wg.Done()
				for i := range perProducer {
					q.Enqueue(p*perProducer + i)
				}
			}()
		}
		wg.Wait()

		seen := make(map[int]struct{}, producers*perProducer)
		var mu sync.Mutex
		wg.Add(4)
		for range 4 {
			go func() {
				defer wg.Done()
				for {
					v, ok := q.Dequeue()
					if !ok {
						return
					}
					mu.Lock()
					seen[v] = struct{}{}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		assert.Len(t, seen, producers*perProducer)
		assert.True(t, q.IsEmpty())
	})
}
