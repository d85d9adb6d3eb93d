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

package eventstream

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(sub Subscriber) []*Message {
	return slices.Collect(sub.Iterator())
}

func TestStream(t *testing.T) {
	t.Run("Message accessors", func(t *testing.T) {
		msg := NewMessage("topic", "payload")
		require.Equal(t, "topic", msg.Topic())
		require.Equal(t, "payload", msg.Payload())
		require.False(t, msg.PublishedAt().IsZero())
	})
	t.Run("With Subscriber lifecycle", func(t *testing.T) {
		sub := newSubscriber()
		require.NotEmpty(t, sub.ID())
		require.True(t, sub.Active())
		require.Empty(t, drain(sub))

		sub.subscribe("a")
		sub.subscribe("b")
		require.ElementsMatch(t, []string{"a", "b"}, sub.Topics())

		sub.signal(NewMessage("a", "one"))
		sub.signal(NewMessage("b", "two"))
		seen := drain(sub)
		require.Len(t, seen, 2)
		assert.Equal(t, "one", seen[0].Payload())
		assert.Equal(t, "two", seen[1].Payload())

		sub.unsubscribe("a")
		require.Equal(t, []string{"b"}, sub.Topics())

		sub.Shutdown()
		require.False(t, sub.Active())
		require.False(t, sub.signal(NewMessage("b", "three")))
		require.Empty(t, drain(sub))
	})
	t.Run("With an iterator stopped early", func(t *testing.T) {
		sub := newSubscriber()
		sub.signal(NewMessage("a", 1))
		sub.signal(NewMessage("a", 2))

		for range sub.Iterator() {
			break
		}
		rest := drain(sub)
		require.Len(t, rest, 1)
		assert.Equal(t, 2, rest[0].Payload())
	})
	t.Run("With Subscription", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		require.True(t, broker.Subscribe(sub, "t1"))
		require.True(t, broker.Subscribe(sub, "t2"))
		require.True(t, broker.Subscribe(sub, "t2"))
		require.Equal(t, 1, broker.SubscribersCount("t1"))
		require.Equal(t, 1, broker.SubscribersCount("t2"))

		broker.RemoveSubscriber(sub)
		assert.Zero(t, broker.SubscribersCount("t1"))
		assert.Zero(t, broker.SubscribersCount("t2"))

		assert.False(t, broker.Subscribe(sub, "t3"))
		assert.Zero(t, broker.SubscribersCount("t3"))
	})
	t.Run("With Unsubscription", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		other := broker.AddSubscriber()
		broker.Subscribe(sub, "t1")
		broker.Subscribe(sub, "t2")
		broker.Subscribe(other, "t1")
		require.Equal(t, 2, broker.SubscribersCount("t1"))

		broker.Unsubscribe(sub, "t1")
		broker.Unsubscribe(other, "t1")
		require.Zero(t, broker.SubscribersCount("t1"))
		require.Equal(t, 1, broker.SubscribersCount("t2"))
	})
	t.Run("With Publication", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		inactive := broker.AddSubscriber()
		broker.Subscribe(sub, "t1")
		broker.Subscribe(sub, "t2")
		broker.Subscribe(inactive, "t1")
		inactive.Shutdown()

		assert.Zero(t, broker.Publish("unused", "ignored"))
		assert.Equal(t, 1, broker.Publish("t1", "hi"))
		assert.Equal(t, 1, broker.Publish("t2", "hello"))

		messages := drain(sub)
		require.Len(t, messages, 2)
		assert.Equal(t, "t1", messages[0].Topic())
		assert.Equal(t, "hello", messages[1].Payload())
		assert.Empty(t, drain(inactive))
	})
	t.Run("With Broadcast", func(t *testing.T) {
		broker := New()
		defer broker.Close()

		sub := broker.AddSubscriber()
		broker.Subscribe(sub, "t1")
		broker.Subscribe(sub, "t2")

		assert.Equal(t, 2, broker.Broadcast("hi", []string{"t1", "t2"}))
		assert.Len(t, drain(sub), 2)
	})
	t.Run("Close shuts down all subscribers", func(t *testing.T) {
		broker := New()
		sub1 := broker.AddSubscriber()
		sub2 := broker.AddSubscriber()
		broker.Subscribe(sub1, "t1")
		broker.Subscribe(sub2, "t1")

		broker.Close()
		require.False(t, sub1.Active())
		require.False(t, sub2.Active())
		require.Zero(t, broker.SubscribersCount("t1"))
	})
}
