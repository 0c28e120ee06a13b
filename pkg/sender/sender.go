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

// Package sender delivers one compressed payload per reporting cycle to
// the collector endpoint. Delivery is fire-and-forget: Send spawns a
// goroutine and hands back a one-shot result channel, so a slow or hung
// request never blocks the scheduler. There is no retry and no queueing.
package sender

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/carverauto/beacon/pkg/jsonval"
	"github.com/carverauto/beacon/pkg/logger"
)

// Requests inherit no transport-level deadline beyond this client
// timeout; it bounds the whole exchange including the response body read.
const defaultTimeout = 30 * time.Second

const maxLoggedBody = 4096

// Config controls where and how payloads are delivered.
type Config struct {
	// Endpoint is the collector URL.
	Endpoint string

	// UserAgent is sent verbatim, e.g. "beacon/3.2.0".
	UserAgent string

	// LogPayload logs the raw serialized JSON before compression.
	LogPayload bool

	// LogResponse logs the collector's status code and body.
	LogResponse bool
}

// Sender posts payloads to a fixed endpoint.
type Sender struct {
	config Config
	client *http.Client
	logger logger.Logger
}

// New creates a Sender. A nil client gets a fresh http.Client with the
// default 30s timeout.
func New(config Config, client *http.Client, log logger.Logger) *Sender {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	return &Sender{
		config: config,
		client: client,
		logger: log,
	}
}

// Send serializes and compresses the payload, then posts it on its own
// goroutine. The returned channel receives the transport outcome exactly
// once and is buffered, so the result may be ignored entirely. Transport
// failures are logged at warn and swallowed; a non-2xx status is not
// treated as a failure. Send itself never blocks on the network.
//
// The request runs detached from ctx's cancellation: once dispatched, a
// delivery is left to finish on its own (shutdown only stops future
// cycles), bounded by the client timeout rather than the caller.
func (s *Sender) Send(ctx context.Context, payload jsonval.Value) <-chan error {
	result := make(chan error, 1)

	body := payload.JSON()

	if s.config.LogPayload {
		s.logger.Info().Str("payload", body).Msg("Sending telemetry data")
	}

	compressed, err := compress([]byte(body))
	if err != nil {
		// Cannot happen with an in-memory buffer, kept for symmetry.
		s.logger.Warn().Err(err).Msg("Failed to compress telemetry payload")
		result <- err

		return result
	}

	sendCtx := context.WithoutCancel(ctx)

	go func() {
		result <- s.post(sendCtx, compressed)
	}()

	return result
}

func (s *Sender) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to build telemetry request")
		return err
	}

	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.config.UserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to submit telemetry data")
		return fmt.Errorf("telemetry submission failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if s.config.LogResponse {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
		if readErr != nil {
			respBody = nil
		}

		s.logger.Info().
			Int("status", resp.StatusCode).
			Str("body", string(respBody)).
			Msg("Telemetry response")
	}

	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw := gzip.NewWriter(&buf)

	if _, err := zw.Write(data); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
