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

// Package config loads registry settings from the environment.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	gerrors "github.com/tochemey/actorlane/errors"
	"github.com/tochemey/actorlane/internal/validation"
	"github.com/tochemey/actorlane/lane"
	"github.com/tochemey/actorlane/log"
	"github.com/tochemey/actorlane/registry"
)

// Config holds the settings of a registry
type Config struct {
	// MailboxCapacity is the default lane capacity. Zero means unbounded.
	MailboxCapacity int `env:"ACTORLANE_MAILBOX_CAPACITY" envDefault:"0"`
	// OverflowPolicy is what a full lane does with a new item: reject or block
	OverflowPolicy string `env:"ACTORLANE_OVERFLOW_POLICY" envDefault:"reject"`
	// WorkerShards is the number of shards of the worker pool
	WorkerShards int `env:"ACTORLANE_WORKER_SHARDS" envDefault:"8"`
	// WorkerIdleTimeout is how long an idle worker is kept
	WorkerIdleTimeout time.Duration `env:"ACTORLANE_WORKER_IDLE_TIMEOUT" envDefault:"1s"`
	// LogLevel is the level of the registry logger
	LogLevel string `env:"ACTORLANE_LOG_LEVEL" envDefault:"info"`
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given environment
func LoadFrom(environment map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environment})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("%w: parse env: %w", gerrors.ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	_, policyErr := lane.ParseOverflowPolicy(c.OverflowPolicy)
	_, levelErr := log.ParseLevel(c.LogLevel)

	err := validation.New(validation.AllErrors()).
		AddValidator(validation.NewMinimumValidator("mailbox capacity", int64(c.MailboxCapacity), 0)).
		AddValidator(validation.NewMinimumValidator("worker shards", int64(c.WorkerShards), 1)).
		AddValidator(validation.NewMinimumValidator("worker idle timeout", int64(c.WorkerIdleTimeout), 1)).
		AddAssertion(policyErr == nil, fmt.Sprintf("overflow policy %q is not supported", c.OverflowPolicy)).
		AddAssertion(levelErr == nil, fmt.Sprintf("log level %q is not supported", c.LogLevel)).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", gerrors.ErrInvalidConfig, err)
	}
	return nil
}

// Logger returns a zap logger at the configured level writing to writers,
// or to stdout when none is given.
func (c *Config) Logger(writers ...io.Writer) (log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", gerrors.ErrInvalidConfig, err)
	}

	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}
	return log.NewZap(level, writers...), nil
}

// RegistryOptions converts the configuration into registry options.
// Options in extra are applied last and win.
func (c *Config) RegistryOptions(logger log.Logger, extra ...registry.Option) ([]registry.Option, error) {
	policy, err := lane.ParseOverflowPolicy(c.OverflowPolicy)
	if err != nil {
		return nil, err
	}

	opts := []registry.Option{
		registry.WithDefaultCapacity(c.MailboxCapacity),
		registry.WithOverflowPolicy(policy),
		registry.WithWorkerShards(c.WorkerShards),
		registry.WithWorkerIdleTimeout(c.WorkerIdleTimeout),
	}
	if logger != nil {
		opts = append(opts, registry.WithLogger(logger))
	}
	return append(opts, extra...), nil
}

// NewRegistry creates a registry from the configuration
func (c *Config) NewRegistry(logger log.Logger, extra ...registry.Option) (*registry.Registry, error) {
	opts, err := c.RegistryOptions(logger, extra...)
	if err != nil {
		return nil, err
	}
	return registry.New(opts...)
}
