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

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/beacon/pkg/logger"
)

type fakeClock struct {
	timerCh    chan time.Time
	tickerCh   chan time.Time
	timerDelay atomic.Int64
	tickerIntv atomic.Int64
	tickerDone atomic.Bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		timerCh:  make(chan time.Time, 1),
		tickerCh: make(chan time.Time, 1),
	}
}

func (*fakeClock) Now() time.Time { return time.Now() }

func (f *fakeClock) Timer(d time.Duration) Timer {
	f.timerDelay.Store(int64(d))
	return &fakeTick{ch: f.timerCh}
}

func (f *fakeClock) Ticker(d time.Duration) Ticker {
	f.tickerIntv.Store(int64(d))
	return &fakeTick{ch: f.tickerCh, stopped: &f.tickerDone}
}

type fakeTick struct {
	ch      chan time.Time
	stopped *atomic.Bool
}

func (f *fakeTick) Chan() <-chan time.Time { return f.ch }

func (f *fakeTick) Stop() {
	if f.stopped != nil {
		f.stopped.Store(true)
	}
}

func waitForTask(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("task did not run in time")
	}
}

func TestInitialDelayJitter(t *testing.T) {
	s := New(nil, nil, logger.NewTestLogger())

	seen := make(map[time.Duration]struct{})

	for i := 0; i < 200; i++ {
		d := s.InitialDelay()

		assert.GreaterOrEqual(t, d, 3*time.Minute)
		assert.Less(t, d, 6*time.Minute)

		seen[d] = struct{}{}
	}

	// Uniform draws over a three-minute window should not collapse to a
	// single value.
	assert.Greater(t, len(seen), 1)
}

func TestInitialDelayCustomWindow(t *testing.T) {
	s := New(&Config{
		InitialDelayMin: 10 * time.Millisecond,
		InitialDelayMax: 20 * time.Millisecond,
		Interval:        time.Hour,
	}, nil, logger.NewTestLogger())

	for i := 0; i < 50; i++ {
		d := s.InitialDelay()

		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.Less(t, d, 20*time.Millisecond)
	}
}

func TestFiresAfterInitialDelayThenAtFixedRate(t *testing.T) {
	clock := newFakeClock()
	s := New(&Config{Interval: 30 * time.Minute}, clock, logger.NewTestLogger())

	ran := make(chan struct{}, 8)

	s.Start(context.Background(), func() bool { return true }, func(context.Context) {
		ran <- struct{}{}
	})

	defer s.Stop()

	// First cycle fires off the one-shot jitter timer.
	clock.timerCh <- time.Now()
	waitForTask(t, ran)

	// Steady state runs off the fixed-rate ticker at the configured
	// interval.
	require.Eventually(t, func() bool {
		return time.Duration(clock.tickerIntv.Load()) == 30*time.Minute
	}, time.Second, 5*time.Millisecond)

	clock.tickerCh <- time.Now()
	waitForTask(t, ran)

	clock.tickerCh <- time.Now()
	waitForTask(t, ran)
}

func TestGateSuppressesTick(t *testing.T) {
	clock := newFakeClock()
	s := New(nil, clock, logger.NewTestLogger())

	var enabled atomic.Bool

	var runs atomic.Int64

	ran := make(chan struct{}, 8)

	s.Start(context.Background(), enabled.Load, func(context.Context) {
		runs.Add(1)
		ran <- struct{}{}
	})

	defer s.Stop()

	// Disabled: the tick is a no-op.
	clock.timerCh <- time.Now()

	// Enabled again: the next tick fires. The gate is re-read live on
	// every tick, so flipping it requires no restart.
	require.Eventually(t, func() bool {
		return time.Duration(clock.tickerIntv.Load()) > 0
	}, time.Second, 5*time.Millisecond)

	enabled.Store(true)

	clock.tickerCh <- time.Now()
	waitForTask(t, ran)

	assert.Equal(t, int64(1), runs.Load())
}

func TestStopIsIdempotentAndStopsTicks(t *testing.T) {
	clock := newFakeClock()
	s := New(nil, clock, logger.NewTestLogger())

	ran := make(chan struct{}, 8)

	s.Start(context.Background(), func() bool { return true }, func(context.Context) {
		ran <- struct{}{}
	})

	clock.timerCh <- time.Now()
	waitForTask(t, ran)

	s.Stop()
	s.Stop() // second call must be a no-op

	// The scheduler goroutine tears its ticker down on the way out,
	// which is what guarantees no further cycles.
	require.Eventually(t, clock.tickerDone.Load, time.Second, 5*time.Millisecond)
}

func TestContextCancellationStopsScheduler(t *testing.T) {
	clock := newFakeClock()
	s := New(nil, clock, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())

	ran := make(chan struct{}, 1)

	s.Start(ctx, func() bool { return true }, func(context.Context) {
		ran <- struct{}{}
	})

	clock.timerCh <- time.Now()
	waitForTask(t, ran)

	cancel()

	require.Eventually(t, clock.tickerDone.Load, time.Second, 5*time.Millisecond)
}

func TestDefaultsApplied(t *testing.T) {
	s := New(&Config{}, nil, logger.NewTestLogger())

	assert.Equal(t, 3*time.Minute, s.config.InitialDelayMin)
	assert.Equal(t, 6*time.Minute, s.config.InitialDelayMax)
	assert.Equal(t, 30*time.Minute, s.config.Interval)
}
