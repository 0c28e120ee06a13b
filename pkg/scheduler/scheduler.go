/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package scheduler runs the reporting cycle on a dedicated goroutine:
// one uniformly random initial delay so that many hosts started together
// do not hit the collector at the same instant, then a fixed-rate ticker.
package scheduler

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/carverauto/beacon/pkg/logger"
)

const (
	defaultInitialDelayMin = 3 * time.Minute
	defaultInitialDelayMax = 6 * time.Minute
	defaultInterval        = 30 * time.Minute
)

// Config holds the scheduling windows. Zero values fall back to the
// defaults (3-6 minute initial jitter, 30 minute steady-state interval).
type Config struct {
	InitialDelayMin time.Duration `json:"initial_delay_min" yaml:"initial_delay_min"`
	InitialDelayMax time.Duration `json:"initial_delay_max" yaml:"initial_delay_max"`
	Interval        time.Duration `json:"interval" yaml:"interval"`
}

func (c *Config) withDefaults() Config {
	out := *c

	if out.InitialDelayMin <= 0 {
		out.InitialDelayMin = defaultInitialDelayMin
	}

	if out.InitialDelayMax <= out.InitialDelayMin {
		out.InitialDelayMax = out.InitialDelayMin + defaultInitialDelayMax - defaultInitialDelayMin
	}

	if out.Interval <= 0 {
		out.Interval = defaultInterval
	}

	return out
}

// Scheduler drives a recurring task. Create with New, arm with Start,
// tear down with Stop.
type Scheduler struct {
	config   Config
	clock    Clock
	logger   logger.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler. A nil clock defaults to the real clock.
func New(config *Config, clock Clock, log logger.Logger) *Scheduler {
	if clock == nil {
		clock = realClock{}
	}

	cfg := Config{}
	if config != nil {
		cfg = *config
	}

	return &Scheduler{
		config: cfg.withDefaults(),
		clock:  clock,
		logger: log,
		done:   make(chan struct{}),
	}
}

// InitialDelay draws the randomized first-fire delay. Exposed so tests
// can verify the jitter window without waiting it out.
func (s *Scheduler) InitialDelay() time.Duration {
	window := s.config.InitialDelayMax - s.config.InitialDelayMin
	return s.config.InitialDelayMin + time.Duration(rand.Int63n(int64(window)))
}

// Start launches the scheduling goroutine. After the initial delay the
// task fires, then repeats every Interval at a fixed rate regardless of
// task duration. gate is consulted before every fire; a false result
// turns that tick into a no-op. task runs on the scheduler goroutine.
// Start returns immediately.
func (s *Scheduler) Start(ctx context.Context, gate func() bool, task func(context.Context)) {
	delay := s.InitialDelay()

	s.logger.Debug().
		Dur("initial_delay", delay).
		Dur("interval", s.config.Interval).
		Msg("Scheduling reporting cycle")

	go s.run(ctx, delay, gate, task)
}

func (s *Scheduler) run(ctx context.Context, delay time.Duration, gate func() bool, task func(context.Context)) {
	timer := s.clock.Timer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-s.done:
		return
	case <-timer.Chan():
	}

	s.fire(ctx, gate, task)

	ticker := s.clock.Ticker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ticker.Chan():
			s.fire(ctx, gate, task)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context, gate func() bool, task func(context.Context)) {
	if gate != nil && !gate() {
		return
	}

	task(ctx)
}

// Stop cancels future ticks. Idempotent; returns immediately without
// waiting for an in-flight task.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}
