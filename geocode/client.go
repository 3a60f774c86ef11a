// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jcodagnone/geodist/utils/httputils"
)

// DefaultUserAgent identifies the tool; Nominatim rejects anonymous clients.
const DefaultUserAgent = "geodist/1.0 (+https://github.com/jcodagnone/geodist)"

// ClientOptions configure the HTTP client shared by the providers of a run.
type ClientOptions struct {
	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool

	// TraceWriter receives the trace; defaults to stderr
	TraceWriter io.Writer

	// Timeout bounds every request, including reading the body
	Timeout time.Duration
}

// NewHTTPClient builds the client with tracing and header round trippers.
func NewHTTPClient(options ClientOptions) *http.Client {
	var httpLogWriter io.Writer
	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		httpLogWriter = options.TraceWriter
		if httpLogWriter == nil {
			httpLogWriter = os.Stderr
		}
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   8,
		MaxConnsPerHost:       8,
		IdleConnTimeout:       30 * time.Second,
		ResponseHeaderTimeout: 20 * time.Second,
	}

	loggingTransport := &httputils.LoggingRoundTripper{
		Writer:    httpLogWriter,
		DumpBody:  options.EnableHTTPBodyTrace,
		Transport: transport,
	}

	userAgent := DefaultUserAgent
	if options.UserAgent != "" {
		userAgent = options.UserAgent
	}

	headerTransport := &httputils.AppendRequestHeadersRoundTripper{
		Headers: map[string]string{
			"User-Agent": userAgent,
		},
		Transport: loggingTransport,
	}

	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: headerTransport,
	}
}
