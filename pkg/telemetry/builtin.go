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

package telemetry

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/carverauto/beacon/pkg/chart"
	"github.com/carverauto/beacon/pkg/jsonval"
)

// Hooks for tests; the real functions hit procfs/sysctl/WMI.
var (
	hostInfo  = host.InfoWithContext
	cpuCounts = cpu.CountsWithContext
)

// platformChart describes the environment the reporter runs in:
// collector-assigned service id plus the detected platform family.
func (s *Service) platformChart() chart.Chart {
	serverType := s.opts.ServerType
	if serverType == "" {
		serverType = "Unknown"
	}

	return chart.Custom("platform", func() (jsonval.Value, error) {
		return jsonval.NewObject().
			Add("serviceId", s.opts.ServiceID).
			Add("serverType", serverType), nil
	})
}

// serviceVersionChart reports the host plugin's version string.
func (s *Service) serviceVersionChart() chart.Chart {
	return chart.Simple("serviceVersion", func() (string, error) {
		return s.opts.ServiceVersion, nil
	})
}

// collectPlatformData builds the fixed platform section of the envelope.
// Host facts the options do not supply degrade to zero values rather
// than failing the cycle.
func (s *Service) collectPlatformData(ctx context.Context) *jsonval.Object {
	playerCount := 0
	if s.opts.PlayerCount != nil {
		playerCount = s.opts.PlayerCount()
	}

	onlineMode := false
	if s.opts.OnlineMode != nil {
		onlineMode = s.opts.OnlineMode()
	}

	platformVersion := ""
	if s.opts.PlatformVersion != nil {
		platformVersion = s.opts.PlatformVersion()
	}

	return jsonval.NewObject().
		Add("playerCount", playerCount).
		Add("onlineMode", onlineMode).
		Add("platformVersion", platformVersion).
		Add("osInfo", osInfo(ctx)).
		Add("goVersion", runtime.Version()).
		Add("coreCount", coreCount(ctx))
}

func osInfo(ctx context.Context) string {
	info, err := hostInfo(ctx)
	if err != nil || info == nil {
		return runtime.GOOS
	}

	if info.PlatformVersion == "" {
		return info.Platform
	}

	return fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
}

func coreCount(ctx context.Context) int {
	n, err := cpuCounts(ctx, true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}

	return n
}
