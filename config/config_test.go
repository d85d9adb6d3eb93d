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

package config

import (
	"bytes"
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
	"github.com/tochemey/actorlane/registry"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLoad(t *testing.T) {
	t.Run("With defaults", func(t *testing.T) {
		cfg, err := LoadFrom(map[string]string{})
		require.NoError(t, err)
		assert.Equal(t, &Config{
			MailboxCapacity:   0,
			OverflowPolicy:    "reject",
			WorkerShards:      8,
			WorkerIdleTimeout: time.Second,
			LogLevel:          "info",
		}, cfg)
	})
	t.Run("With environment values", func(t *testing.T) {
		cfg, err := LoadFrom(map[string]string{
			"ACTORLANE_MAILBOX_CAPACITY":    "16",
			"ACTORLANE_OVERFLOW_POLICY":     "block",
			"ACTORLANE_WORKER_SHARDS":       "2",
			"ACTORLANE_WORKER_IDLE_TIMEOUT": "250ms",
			"ACTORLANE_LOG_LEVEL":           "debug",
		})
		require.NoError(t, err)
		assert.Equal(t, 16, cfg.MailboxCapacity)
		assert.Equal(t, "block", cfg.OverflowPolicy)
		assert.Equal(t, 2, cfg.WorkerShards)
		assert.Equal(t, 250*time.Millisecond, cfg.WorkerIdleTimeout)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
	t.Run("With the process environment", func(t *testing.T) {
		t.Setenv("ACTORLANE_WORKER_SHARDS", "4")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.WorkerShards)
	})
	t.Run("With malformed values", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{"ACTORLANE_WORKER_SHARDS": "many"})
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
	})
	t.Run("With invalid values", func(t *testing.T) {
		_, err := LoadFrom(map[string]string{
			"ACTORLANE_MAILBOX_CAPACITY": "-1",
			"ACTORLANE_OVERFLOW_POLICY":  "drop",
			"ACTORLANE_WORKER_SHARDS":    "0",
			"ACTORLANE_LOG_LEVEL":        "loud",
		})
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "mailbox capacity")
		assert.Contains(t, err.Error(), "overflow policy \"drop\"")
		assert.Contains(t, err.Error(), "worker shards")
		assert.Contains(t, err.Error(), "log level \"loud\"")
	})
}

func TestLogger(t *testing.T) {
	cfg := &Config{LogLevel: "warn"}
	buffer := new(bytes.Buffer)
	logger, err := cfg.Logger(buffer)
	require.NoError(t, err)
	assert.Equal(t, log.WarningLevel, logger.LogLevel())

	logger.Info("hidden")
	logger.Warn("shown")
	require.NoError(t, logger.Flush())
	assert.NotContains(t, buffer.String(), "hidden")
	assert.Contains(t, buffer.String(), "shown")

	_, err = (&Config{LogLevel: "loud"}).Logger()
	assert.ErrorIs(t, err, gerrors.ErrInvalidConfig)
}

func TestNewRegistry(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ACTORLANE_MAILBOX_CAPACITY": "2",
		"ACTORLANE_OVERFLOW_POLICY":  "block",
	})
	require.NoError(t, err)

	r, err := cfg.NewRegistry(log.DiscardLogger)
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Shutdown(context.Background())) }()

	type greeter interface{ Greet() }
	obj := &struct{ name string }{name: "ada"}
	l, err := r.ResolveLane(obj, reflect.TypeFor[greeter](), "")
	require.NoError(t, err)
	assert.Equal(t, 2, l.Capacity())

	opts, err := cfg.RegistryOptions(nil, registry.WithOverflowPolicy(lane.Reject))
	require.NoError(t, err)
	assert.Len(t, opts, 5)

	_, err = (&Config{OverflowPolicy: "drop"}).RegistryOptions(nil)
	assert.ErrorIs(t, err, gerrors.ErrInvalidArgument)
}
