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

// Standalone runner for the telemetry reporter. Hosts normally embed
// the library directly; this binary exercises the full pipeline against
// a real or local collector.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/carverauto/beacon/pkg/chart"
	"github.com/carverauto/beacon/pkg/config"
	"github.com/carverauto/beacon/pkg/jsonval"
	"github.com/carverauto/beacon/pkg/logger"
	"github.com/carverauto/beacon/pkg/telemetry"
	"github.com/carverauto/beacon/pkg/version"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", ".", "Directory holding the beacon config file")
	endpoint := flag.String("endpoint", "", "Collector endpoint override")
	serviceID := flag.Int("service-id", 0, "Numeric service identifier assigned by the collector")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logCfg := logger.DefaultConfig()
	logCfg.Debug = *debug

	beaconLogger, err := logger.New(logCfg, "beacon")
	if err != nil {
		return err
	}

	settings := config.Load(*dataDir, beaconLogger)

	svc := telemetry.New(settings, telemetry.Options{
		ServiceID:      *serviceID,
		ServiceVersion: version.GetVersion(),
		ServerType:     "Standalone",
		Endpoint:       *endpoint,
		Logger:         beaconLogger,
	})
	defer svc.Shutdown()

	svc.Register(chart.Custom("process", func() (jsonval.Value, error) {
		return jsonval.NewObject().Add("pid", os.Getpid()), nil
	}))

	beaconLogger.Info().
		Bool("enabled", settings.Enabled).
		Str("version", version.GetFullVersion()).
		Msg("Beacon reporter running, Ctrl-C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return nil
}
