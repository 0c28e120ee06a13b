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
	"errors"
	"runtime"
	"testing"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/stretchr/testify/assert"
)

var errProbe = errors.New("probe failed")

func TestOSInfoFallsBackToGOOS(t *testing.T) {
	orig := hostInfo
	t.Cleanup(func() { hostInfo = orig })

	hostInfo = func(context.Context) (*host.InfoStat, error) {
		return nil, errProbe
	}

	assert.Equal(t, runtime.GOOS, osInfo(context.Background()))
}

func TestOSInfoJoinsPlatformAndVersion(t *testing.T) {
	orig := hostInfo
	t.Cleanup(func() { hostInfo = orig })

	hostInfo = func(context.Context) (*host.InfoStat, error) {
		return &host.InfoStat{Platform: "debian", PlatformVersion: "12"}, nil
	}

	assert.Equal(t, "debian 12", osInfo(context.Background()))
}

func TestCoreCountFallsBackToNumCPU(t *testing.T) {
	orig := cpuCounts
	t.Cleanup(func() { cpuCounts = orig })

	cpuCounts = func(context.Context, bool) (int, error) {
		return 0, errProbe
	}

	assert.Equal(t, runtime.NumCPU(), coreCount(context.Background()))
}

func TestCoreCountUsesProbe(t *testing.T) {
	orig := cpuCounts
	t.Cleanup(func() { cpuCounts = orig })

	cpuCounts = func(context.Context, bool) (int, error) {
		return 48, nil
	}

	assert.Equal(t, 48, coreCount(context.Background()))
}
