// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jcodagnone/geodist/utils/httputils"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// httpProvider holds what every HTTP based provider shares.
type httpProvider struct {
	name    string
	baseURL string
	client  *http.Client
	policy  Policy
}

func newHTTPProvider(name, defaultBaseURL string, opts Options, def Policy) httpProvider {
	p := httpProvider{
		name:    name,
		baseURL: defaultBaseURL,
		client:  opts.HTTPClient,
		policy:  def,
	}

	if opts.BaseURL != "" {
		p.baseURL = opts.BaseURL
	}

	if p.client == nil {
		p.client = NewHTTPClient(ClientOptions{})
	}

	if opts.Policy.Pacing > 0 {
		p.policy.Pacing = opts.Policy.Pacing
	}

	if opts.Policy.MaxConcurrency > 0 {
		p.policy.MaxConcurrency = opts.Policy.MaxConcurrency
	}

	return p
}

func (p *httpProvider) Name() string {
	return p.name
}

func (p *httpProvider) Policy() Policy {
	return p.policy
}

// getJSON sends a GET to path with params and decodes the JSON response
// into v. Failures are returned as *GeocodingError.
func (p *httpProvider) getJSON(ctx context.Context, path string, params url.Values, v any) error {
	reqURL := p.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &GeocodingError{Type: ErrorTypeInvalidRequest, Message: "building request", Err: err}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return classifyTransportError(err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		geoErr := ClassifyHTTPError(resp.StatusCode, string(body))
		if d, ok := httputils.RetryAfter(resp.Header, time.Now()); ok {
			geoErr.RetryAfter = d
		}

		return geoErr
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &GeocodingError{Type: ErrorTypeUnknown, Message: "decoding response", Err: err}
	}

	return nil
}

func notFound(query string) *GeocodingError {
	return &GeocodingError{Type: ErrorTypeNotFound, Message: "no results found for location: " + query}
}
