// Copyright IBM Corp. 2021, 2025
// SPDX-License-Identifier: MPL-2.0

// Package detector provides redact.Detector implementations that delegate detection to an external service.
package detector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/hashicorp/hcredact/redact"
)

const (
	// EnvToken is the environment variable read for the bearer token when a configuration does not set one.
	EnvToken = "HCREDACT_DLP_TOKEN"

	DefaultPath    = "/v1/detect"
	DefaultTimeout = 10 * time.Second

	// DefaultReplacement is used for findings that carry no type.
	DefaultReplacement = "REDACTED"

	maxResponseBytes = 10 << 20
)

type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Config describes how to reach an HTTP detection service.
type Config struct {
	// Address is the scheme, host and optional port of the service, for example https://dlp.example.com:8443.
	Address string

	// Path is appended to Address. Defaults to DefaultPath.
	Path string

	// Token, if set, is sent as a bearer token.
	Token string

	// Headers are added to every request.
	Headers map[string]string

	// Timeout bounds a single request. Defaults to DefaultTimeout.
	Timeout time.Duration

	TLS TLSConfig
}

var _ redact.Detector = &HTTPDetector{}

// HTTPDetector sends text to a detection service as JSON and turns its findings into spans.
//
// The request body is {"text": "..."}. The service answers 200 OK with
// {"findings": [{"start": 0, "end": 5, "type": "email"}]}, where offsets are byte offsets into text. Each finding is
// replaced by its type in upper case, or DefaultReplacement if it has none.
type HTTPDetector struct {
	URL string

	// token and headers may contain secrets, so *do not export*
	token   string
	headers map[string]string
	http    HTTPClient
	logger  hclog.Logger
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Findings []finding `json:"findings"`
}

type finding struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Type  string `json:"type"`
}

// NewHTTPDetector validates cfg and returns a detector with its own HTTP client.
func NewHTTPDetector(cfg Config, logger hclog.Logger) (*HTTPDetector, error) {
	if cfg.Address == "" {
		return nil, errors.New("detector address must not be empty")
	}
	base, err := url.Parse(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid detector address %q: %w", cfg.Address, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid detector address %q: scheme must be http or https", cfg.Address)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("detector timeout must not be negative, got %s", cfg.Timeout)
	}

	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	transport, err := newHTTPTransport(httpTransportConfig{
		tlsConfig:         cfg.TLS,
		tlsConfigFunction: createTLSClientConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to configure TLS for detector: %w", err)
	}

	if logger == nil {
		logger = hclog.L()
	}

	return &HTTPDetector{
		URL:     strings.TrimSuffix(cfg.Address, "/") + path,
		token:   cfg.Token,
		headers: cfg.Headers,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		logger: logger.Named("detector"),
	}, nil
}

// Detect posts text to the service. Any transport failure, non-200 status or malformed body is an error.
func (d *HTTPDetector) Detect(ctx context.Context, text string) ([]redact.Span, error) {
	body, err := json.Marshal(detectRequest{Text: text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("X-Request-ID", requestID)
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		d.logger.Debug("detection request rejected", "request_id", requestID, "status", resp.StatusCode)
		return nil, fmt.Errorf("detector returned status %d, request_id=%s", resp.StatusCode, requestID)
	}

	var dr detectResponse
	if err := json.Unmarshal(respBody, &dr); err != nil {
		return nil, fmt.Errorf("unable to decode detector response, request_id=%s: %w", requestID, err)
	}

	spans := make([]redact.Span, 0, len(dr.Findings))
	for _, f := range dr.Findings {
		spans = append(spans, redact.Span{
			Start:       f.Start,
			End:         f.End,
			Replacement: replacementFor(f.Type),
		})
	}
	d.logger.Trace("detection complete", "request_id", requestID, "findings", len(spans))
	return spans, nil
}

// replacementFor turns a finding type such as "credit card" into a placeholder like CREDIT_CARD.
func replacementFor(findingType string) string {
	t := strings.TrimSpace(findingType)
	if t == "" {
		return DefaultReplacement
	}
	t = strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, t)
	return strings.ToUpper(t)
}
