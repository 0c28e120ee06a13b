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

// Package telemetry is the service facade of the reporter. It wires the
// chart registry, the jittered scheduler and the delivery pipeline
// together, registers the built-in platform and version charts, and
// exposes the two operations the host ever calls: Register and Shutdown.
package telemetry

import (
	"context"
	"net/http"

	"github.com/carverauto/beacon/pkg/chart"
	"github.com/carverauto/beacon/pkg/config"
	"github.com/carverauto/beacon/pkg/jsonval"
	"github.com/carverauto/beacon/pkg/logger"
	"github.com/carverauto/beacon/pkg/scheduler"
	"github.com/carverauto/beacon/pkg/sender"
)

const (
	// MetricsVersion is the single protocol version tag carried in every
	// payload and in the User-Agent header.
	MetricsVersion = "3.2.0"

	// DefaultEndpoint is the collector the reporter submits to unless
	// overridden in Options.
	DefaultEndpoint = "https://bstats.org/api/v2/data/bukkit"

	userAgent = "beacon/" + MetricsVersion
)

// Options carries everything the host supplies at construction. Only
// ServiceID and ServiceVersion are required; zero values elsewhere fall
// back to sensible defaults.
type Options struct {
	// ServiceID is the numeric identifier assigned by the collector.
	ServiceID int

	// ServiceVersion is the host plugin's version string.
	ServiceVersion string

	// ServerType names the detected platform family, e.g. "Paper".
	// Defaults to "Unknown".
	ServerType string

	// PlatformVersion reports the host platform's version string each
	// cycle. Optional.
	PlatformVersion func() string

	// PlayerCount reports the current player count each cycle. Optional;
	// absent means 0.
	PlayerCount func() int

	// OnlineMode reports whether the host runs in online mode. Optional.
	OnlineMode func() bool

	// Endpoint overrides DefaultEndpoint, mainly for tests.
	Endpoint string

	// HTTPClient overrides the sender's default client.
	HTTPClient *http.Client

	// Clock overrides the real clock, for tests.
	Clock scheduler.Clock

	// Schedule overrides the default jitter window and interval.
	Schedule *scheduler.Config

	// Logger receives all reporter log output. Defaults to a disabled
	// logger so a careless host never gets surprise output.
	Logger logger.Logger
}

// Service is one reporter instance. Construct with New; the scheduler
// starts immediately when the settings allow it. A disabled instance is
// dormant: Register is accepted but nothing ever collects, and no
// network traffic occurs.
type Service struct {
	settings config.Settings
	opts     Options
	logger   logger.Logger
	registry *chart.Registry
	sender   *sender.Sender
	sched    *scheduler.Scheduler
	cancel   context.CancelFunc
}

// New builds the service and, when settings.Enabled, registers the
// built-in charts and starts the reporting cycle.
func New(settings config.Settings, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	s := &Service{
		settings: settings,
		opts:     opts,
		logger:   log,
		registry: chart.NewRegistry(),
		sender: sender.New(sender.Config{
			Endpoint:    endpoint,
			UserAgent:   userAgent,
			LogPayload:  settings.LogPayload,
			LogResponse: settings.LogResponse,
		}, opts.HTTPClient, log),
	}

	if !settings.Enabled {
		return s
	}

	s.Register(s.platformChart())
	s.Register(s.serviceVersionChart())

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.sched = scheduler.New(opts.Schedule, opts.Clock, log)

	// The gate reads the settings snapshot, not the file: a toggle on
	// disk takes effect on the next start, matching the file-backed
	// collaborator's immutable-snapshot contract.
	s.sched.Start(ctx, func() bool { return s.settings.Enabled }, s.runCycle)

	return s
}

// Register adds a host chart. Safe from any goroutine at any point in
// the service's life.
func (s *Service) Register(c chart.Chart) {
	s.registry.Register(c)
}

// Shutdown stops future reporting cycles. Idempotent; an in-flight send
// is left to finish on its own.
func (s *Service) Shutdown() {
	if s.sched != nil {
		s.sched.Stop()
	}

	if s.cancel != nil {
		s.cancel()
	}
}

// runCycle is the scheduled task: collect, build the envelope, hand off
// to the sender. Any fault escaping the cycle is contained here so the
// scheduler goroutine survives it.
func (s *Service) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Msg("Telemetry cycle failed")
		}
	}()

	_ = s.collectAndSend(ctx)
}

// collectAndSend performs one full cycle and returns the sender's result
// future. Split from runCycle so tests can observe the outcome.
func (s *Service) collectAndSend(ctx context.Context) <-chan error {
	return s.sender.Send(ctx, s.buildEnvelope(ctx))
}

// buildEnvelope assembles the top-level payload for one cycle.
func (s *Service) buildEnvelope(ctx context.Context) *jsonval.Object {
	return jsonval.NewObject().
		Add("serverUUID", s.settings.ServerUUID).
		Add("metricsVersion", MetricsVersion).
		Add("platform", s.collectPlatformData(ctx)).
		Add("service", s.collectServiceData()).
		Add("customCharts", s.registry.CollectAll(s.logger))
}

func (s *Service) collectServiceData() *jsonval.Object {
	return jsonval.NewObject().
		Add("pluginVersion", s.opts.ServiceVersion)
}
