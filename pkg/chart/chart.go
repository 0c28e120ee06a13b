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

// Package chart turns host-supplied metric callbacks into JSON fragments.
// Every chart is collected once per reporting cycle; a chart that fails
// or has nothing to report contributes no entry for that cycle.
package chart

import (
	"github.com/carverauto/beacon/pkg/jsonval"
	"github.com/carverauto/beacon/pkg/logger"
)

// Chart is one named unit of metric data. Collect returns the
// {"chartId": ..., "data": ...} envelope for this cycle, or nil when the
// chart has no data. Charts built by Simple and Custom contain panics
// from the host callback inside Collect; the registry additionally
// contains panics from foreign implementations of this interface.
type Chart interface {
	ID() string
	Collect(log logger.Logger) *jsonval.Object
}

type baseChart struct {
	id   string
	data func() (jsonval.Value, error)
}

func (c *baseChart) ID() string {
	return c.id
}

func (c *baseChart) Collect(log logger.Logger) (env *jsonval.Object) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("chart_id", c.id).
				Interface("panic", r).
				Msg("Chart collection panicked")

			env = nil
		}
	}()

	data, err := c.data()
	if err != nil {
		log.Warn().Err(err).Str("chart_id", c.id).Msg("Chart collection failed")
		return nil
	}

	if data == nil {
		return nil
	}

	return Envelope(c.id, data)
}

// Envelope wraps collected data in the per-chart wire envelope.
func Envelope(id string, data jsonval.Value) *jsonval.Object {
	return jsonval.NewObject().
		Add("chartId", id).
		Add("data", data)
}

// Simple builds a chart from a single string-producing callback. An
// empty string means no data this cycle.
func Simple(id string, fn func() (string, error)) Chart {
	return &baseChart{
		id: id,
		data: func() (jsonval.Value, error) {
			s, err := fn()
			if err != nil {
				return nil, err
			}

			if s == "" {
				return nil, nil
			}

			return jsonval.String(s), nil
		},
	}
}

// Custom builds a chart from a callback producing a full JSON value
// (object, array or primitive). A nil value means no data this cycle.
func Custom(id string, fn func() (jsonval.Value, error)) Chart {
	return &baseChart{id: id, data: fn}
}
