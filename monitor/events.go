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

package monitor

import (
	"context"
	"time"

	"github.com/tochemey/actorlane/eventstream"
	"github.com/tochemey/actorlane/lane"
)

// CallsTopic is the topic call events are published to
const CallsTopic = "actorlane.calls"

// Phase tells whether a CallEvent marks the start or the end of an item
type Phase int

const (
	// Entered is published before the item runs
	Entered Phase = iota
	// Exited is published after the item ran
	Exited
)

// CallEvent describes an item execution
type CallEvent struct {
	Phase      Phase
	Lane       string
	ItemID     string
	TargetType string
	StartedAt  time.Time
	Duration   time.Duration
	Err        error
}

// Events publishes a CallEvent on a stream for every monitor notification
type Events struct {
	stream eventstream.Stream
	topic  string
}

var _ lane.Monitor = (*Events)(nil)

// NewEvents creates an Events monitor publishing on CallsTopic
func NewEvents(stream eventstream.Stream) *Events {
	return &Events{stream: stream, topic: CallsTopic}
}

// Enter implements lane.Monitor
func (m *Events) Enter(_ context.Context, details *lane.CallDetails) {
	m.stream.Publish(m.topic, newCallEvent(Entered, details))
}

// Exit implements lane.Monitor
func (m *Events) Exit(_ context.Context, details *lane.CallDetails) {
	m.stream.Publish(m.topic, newCallEvent(Exited, details))
}

func newCallEvent(phase Phase, details *lane.CallDetails) *CallEvent {
	return &CallEvent{
		Phase:      phase,
		Lane:       details.Lane.Name(),
		ItemID:     details.Item.ID(),
		TargetType: details.TargetType,
		StartedAt:  details.StartedAt,
		Duration:   details.Duration,
		Err:        details.Err,
	}
}
