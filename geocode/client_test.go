// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClientTrace(t *testing.T) {
	srv := serve(t, "/maps/api/geocode/json", nil, http.StatusOK, `{"status":"ZERO_RESULTS"}`)

	var trace bytes.Buffer

	p := NewGoogleMapsGeocoder(Options{
		HTTPClient: NewHTTPClient(ClientOptions{EnableHTTPTrace: true, TraceWriter: &trace}),
		BaseURL:    srv.URL,
		APIKey:     "top-secret",
	})

	_, err := p.Geocode(context.Background(), "Missoula")
	require.True(t, IsNotFoundError(err))

	out := trace.String()
	assert.Contains(t, out, "> GET /maps/api/geocode/json?")
	assert.Contains(t, out, "key=REDACTED")
	assert.Contains(t, out, "User-Agent: "+DefaultUserAgent)
	assert.Contains(t, out, "< RESPONSE:")
	assert.NotContains(t, out, "top-secret")
}

func TestHTTPClientCustomUserAgent(t *testing.T) {
	got := make(chan string, 1)

	srv := serveFunc(t, func(w http.ResponseWriter, r *http.Request) {
		got <- r.Header.Get("User-Agent")

		w.Write([]byte(`[]`))
	})

	p := NewNominatim(Options{
		HTTPClient: NewHTTPClient(ClientOptions{UserAgent: "acme-enricher/2.0"}),
		BaseURL:    srv.URL,
	})

	_, err := p.Geocode(context.Background(), "Missoula")
	require.Error(t, err)
	assert.Equal(t, "acme-enricher/2.0", <-got)
}
