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

	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
)

// Logging writes one debug entry when an item starts and one when it ends.
// Failed items are reported at warn level.
type Logging struct {
	logger log.Logger
}

var _ lane.Monitor = (*Logging)(nil)

// NewLogging creates a Logging monitor
func NewLogging(logger log.Logger) *Logging {
	if logger == nil {
		logger = log.DiscardLogger
	}
	return &Logging{logger: logger}
}

// Enter implements lane.Monitor
func (m *Logging) Enter(_ context.Context, details *lane.CallDetails) {
	if !m.logger.Enabled(log.DebugLevel) {
		return
	}
	m.logger.Debugf("lane %s: item %s on %s started", details.Lane.Name(), details.Item.ID(), details.TargetType)
}

// Exit implements lane.Monitor
func (m *Logging) Exit(_ context.Context, details *lane.CallDetails) {
	if details.Err != nil {
		m.logger.Warnf("lane %s: item %s on %s failed after %s: %v", details.Lane.Name(), details.Item.ID(), details.TargetType, details.Duration, details.Err)
		return
	}
	if m.logger.Enabled(log.DebugLevel) {
		m.logger.Debugf("lane %s: item %s on %s done in %s", details.Lane.Name(), details.Item.ID(), details.TargetType, details.Duration)
	}
}
