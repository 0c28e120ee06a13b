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

// Package config loads the reporter's file-backed settings: the opt-out
// flag, the persisted random server identifier and the two logging
// toggles. A missing or unreadable file is never fatal; defaults apply
// and the problem is logged.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/carverauto/beacon/pkg/logger"
)

// configRelPath is the location of the settings file under the host's
// data directory.
const configRelPath = "beacon/config.yml"

const fileHeader = `# Beacon collects anonymous usage statistics for this service.
# Disable it at any time by setting enabled to false. The serverUuid is
# random and identifies this installation only, never a person.
`

// Settings is the immutable configuration snapshot handed to the
// telemetry service. It is constructed once at startup and never
// mutated afterwards; a change to the file on disk is observed only on
// the next start.
type Settings struct {
	Enabled     bool
	ServerUUID  string
	LogResponse bool
	LogPayload  bool
}

type fileSchema struct {
	Enabled               *bool  `yaml:"enabled"`
	ServerUUID            string `yaml:"serverUuid"`
	LogResponseStatusText bool   `yaml:"logResponseStatusText"`
	LogSentData           bool   `yaml:"logSentData"`
}

// Load reads the settings file under dataDir, applying defaults
// (enabled=true, logging flags false) for anything absent. A missing
// serverUuid is generated (random v4) and persisted back; if the write
// fails the generated value is still used for this run.
func Load(dataDir string, log logger.Logger) Settings {
	path := filepath.Join(dataDir, configRelPath)

	var schema fileSchema

	var malformed bool

	raw, err := os.ReadFile(path)

	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &schema); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Malformed telemetry config, using defaults")

			schema = fileSchema{}
			malformed = true
		}
	case errors.Is(err, os.ErrNotExist):
		// First run; the file is created below alongside the UUID.
	default:
		log.Warn().Err(err).Str("path", path).Msg("Failed to read telemetry config, using defaults")
	}

	enabled := true
	if schema.Enabled != nil {
		enabled = *schema.Enabled
	}

	if schema.ServerUUID == "" {
		schema.ServerUUID = uuid.NewString()

		// An unparseable file may still hold an opt-out the user wrote
		// by hand; leave it for them to repair and keep the generated
		// UUID for this run only.
		if malformed {
			log.Warn().Str("path", path).Msg("Leaving malformed telemetry config untouched, server UUID is transient")
		} else {
			schema.Enabled = &enabled

			if err := persist(path, &schema); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("Failed to persist telemetry server UUID")
			}
		}
	}

	return Settings{
		Enabled:     enabled,
		ServerUUID:  schema.ServerUUID,
		LogResponse: schema.LogResponseStatusText,
		LogPayload:  schema.LogSentData,
	}
}

func persist(path string, schema *fileSchema) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	body, err := yaml.Marshal(schema)
	if err != nil {
		return err
	}

	return os.WriteFile(path, append([]byte(fileHeader), body...), 0o644)
}
