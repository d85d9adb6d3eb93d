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

// Package eventstream is an in-process topic broker. Subscribers buffer the
// messages published to their topics until they drain them.
package eventstream

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/tochemey/actorlane/internal/xsync"
)

// Stream routes published messages to the subscribers of their topic.
type Stream interface {
	// AddSubscriber creates an active subscriber with no topic.
	AddSubscriber() Subscriber
	// RemoveSubscriber detaches sub from every topic and shuts it down.
	RemoveSubscriber(sub Subscriber)
	// SubscribersCount returns how many subscribers listen to topic.
	SubscribersCount(topic string) int
	// Subscribe attaches an active sub to topic and reports whether it did.
	Subscribe(sub Subscriber, topic string) bool
	// Unsubscribe detaches sub from topic.
	Unsubscribe(sub Subscriber, topic string)
	// Publish delivers msg to the subscribers of topic and returns how many
	// received it.
	Publish(topic string, msg any) int
	// Broadcast publishes msg on each topic and returns the total deliveries.
	Broadcast(msg any, topics []string) int
	// Close shuts every subscriber down.
	Close()
}

// EventsStream is the default Stream implementation. Each topic keeps the set
// of its subscribers; a topic disappears with its last subscriber.
type EventsStream struct {
	subscribers *xsync.Map[string, Subscriber]
	topics      *xsync.Map[string, mapset.Set[Subscriber]]
}

var _ Stream = (*EventsStream)(nil)

// New creates an empty EventsStream.
func New() *EventsStream {
	return &EventsStream{
		subscribers: xsync.NewMap[string, Subscriber](),
		topics:      xsync.NewMap[string, mapset.Set[Subscriber]](),
	}
}

// AddSubscriber implements Stream
func (s *EventsStream) AddSubscriber() Subscriber {
	sub := newSubscriber()
	s.subscribers.Set(sub.ID(), sub)
	return sub
}

// RemoveSubscriber implements Stream
func (s *EventsStream) RemoveSubscriber(sub Subscriber) {
	for _, topic := range sub.Topics() {
		s.Unsubscribe(sub, topic)
	}
	s.subscribers.Delete(sub.ID())
	sub.Shutdown()
}

// SubscribersCount implements Stream
func (s *EventsStream) SubscribersCount(topic string) int {
	members, ok := s.topics.Get(topic)
	if !ok {
		return 0
	}
	return members.Cardinality()
}

// Subscribe implements Stream. Inactive subscribers are ignored.
func (s *EventsStream) Subscribe(sub Subscriber, topic string) bool {
	if !sub.Active() {
		return false
	}

	sub.subscribe(topic)
	s.topics.Compute(topic, func(members mapset.Set[Subscriber], loaded bool) (mapset.Set[Subscriber], bool) {
		if !loaded {
			return mapset.NewSet(sub), true
		}
		members.Add(sub)
		return members, false
	})
	return true
}

// Unsubscribe implements Stream
func (s *EventsStream) Unsubscribe(sub Subscriber, topic string) {
	sub.unsubscribe(topic)
	s.topics.DeleteFunc(topic, func(members mapset.Set[Subscriber]) bool {
		members.Remove(sub)
		return members.Cardinality() == 0
	})
}

// Publish implements Stream. Delivery never blocks: subscribers buffer what
// they receive, and inactive ones drop it.
func (s *EventsStream) Publish(topic string, msg any) int {
	members, ok := s.topics.Get(topic)
	if !ok {
		return 0
	}

	message := NewMessage(topic, msg)
	delivered := 0
	members.Each(func(sub Subscriber) bool {
		if sub.signal(message) {
			delivered++
		}
		return false
	})
	return delivered
}

// Broadcast implements Stream
func (s *EventsStream) Broadcast(msg any, topics []string) int {
	delivered := 0
	for _, topic := range topics {
		delivered += s.Publish(topic, msg)
	}
	return delivered
}

// Close implements Stream. Topics are forgotten along with their subscribers.
func (s *EventsStream) Close() {
	for _, sub := range s.subscribers.Values() {
		sub.Shutdown()
	}
	s.subscribers.Reset()
	s.topics.Reset()
}
