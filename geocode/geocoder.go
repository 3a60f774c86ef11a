// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package geocode resolves addresses into coordinates through pluggable
// providers, with retries, pacing and an optional result cache.
package geocode

import (
	"context"
	"time"

	"github.com/jcodagnone/geodist/spatial"
)

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Point returns the result coordinates.
func (r *GeocodingResult) Point() spatial.Point {
	return spatial.Point{Lat: r.Latitude, Lng: r.Longitude}
}

// Policy is the request budget a provider tolerates.
type Policy struct {
	// Pacing is the minimum interval between two requests.
	Pacing time.Duration `json:"pacing" yaml:"pacing"`

	// MaxConcurrency caps the requests in flight.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
}

// Provider geocodes a single address query.
//
// A query without match returns a *GeocodingError of type ErrorTypeNotFound.
type Provider interface {
	Name() string
	Policy() Policy
	Geocode(ctx context.Context, query string) (*GeocodingResult, error)
}

// Outcome is the final answer for one address. It is either resolved with a
// point or unresolved with the last error seen.
type Outcome struct {
	Point       spatial.Point `json:"point"`
	Resolved    bool          `json:"resolved"`
	Query       string        `json:"query"`
	Attempts    int           `json:"attempts"`
	Simplified  bool          `json:"simplified"`
	Cached      bool          `json:"cached"`
	DisplayName string        `json:"display_name,omitempty"`
	Confidence  string        `json:"confidence,omitempty"`
	Err         error         `json:"-"`
}
