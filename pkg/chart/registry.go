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

package chart

import (
	"sync"
	"sync/atomic"

	"github.com/carverauto/beacon/pkg/jsonval"
	"github.com/carverauto/beacon/pkg/logger"
)

// Registry is an append-only set of charts keyed by object identity.
// Two distinct charts carrying the same id are independent entries.
// Register is safe from any goroutine, including from inside another
// chart's Collect running on the scheduler goroutine: sync.Map tolerates
// insertion during Range, so there is no reentrant iteration hazard.
type Registry struct {
	charts sync.Map // Chart -> struct{}
	count  atomic.Int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a chart. Registering the same chart value again is a
// no-op; there is no removal.
func (r *Registry) Register(c Chart) {
	if c == nil {
		return
	}

	if _, loaded := r.charts.LoadOrStore(c, struct{}{}); !loaded {
		r.count.Add(1)
	}
}

// Len returns the number of registered charts.
func (r *Registry) Len() int {
	return int(r.count.Load())
}

// CollectAll invokes every chart once and gathers the non-nil envelopes
// into an array. Iteration order is unspecified and may differ between
// cycles. A chart that panics or errors is logged and skipped; the
// remaining charts are unaffected.
func (r *Registry) CollectAll(log logger.Logger) *jsonval.Array {
	out := jsonval.NewArray()

	r.charts.Range(func(key, _ any) bool {
		c := key.(Chart)

		if env := collectOne(c, log); env != nil {
			out.Append(env)
		}

		return true
	})

	return out
}

func collectOne(c Chart, log logger.Logger) (env *jsonval.Object) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("chart_id", c.ID()).
				Interface("panic", r).
				Msg("Chart collection panicked")

			env = nil
		}
	}()

	return c.Collect(log)
}
