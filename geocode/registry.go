// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ProviderKind selects a geocoding service.
type ProviderKind int

const (
	Photon ProviderKind = iota
	Nominatim
	ArcGIS
	Census
	Google
)

var providerNames = [...]string{
	Photon:    "photon",
	Nominatim: "nominatim",
	ArcGIS:    "arcgis",
	Census:    "census",
	Google:    "google",
}

var defaultPolicies = [...]Policy{
	Photon:    {Pacing: 500 * time.Millisecond, MaxConcurrency: 2},
	Nominatim: {Pacing: time.Second, MaxConcurrency: 1},
	ArcGIS:    {Pacing: 500 * time.Millisecond, MaxConcurrency: 4},
	Census:    {Pacing: 200 * time.Millisecond, MaxConcurrency: 4},
	Google:    {Pacing: 100 * time.Millisecond, MaxConcurrency: 8},
}

// ErrMissingAPIKey is returned when a provider that needs a key has none.
var ErrMissingAPIKey = errors.New("missing API key")

func (k ProviderKind) String() string {
	if k >= 0 && int(k) < len(providerNames) {
		return providerNames[k]
	}

	return fmt.Sprintf("ProviderKind(%d)", int(k))
}

// DefaultPolicy returns the pacing and concurrency a provider is used with
// unless configured otherwise.
func (k ProviderKind) DefaultPolicy() Policy {
	if k >= 0 && int(k) < len(defaultPolicies) {
		return defaultPolicies[k]
	}

	return Policy{Pacing: time.Second, MaxConcurrency: 1}
}

// ProviderKinds lists every known provider, default first.
func ProviderKinds() []ProviderKind {
	return []ProviderKind{Photon, Nominatim, ArcGIS, Census, Google}
}

// ParseProviderKind resolves a provider name; empty selects the default.
func ParseProviderKind(s string) (ProviderKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Photon, nil
	}

	for _, k := range ProviderKinds() {
		if k.String() == s {
			return k, nil
		}
	}

	return Photon, fmt.Errorf("unknown geocoder %q (want one of %s)", s, strings.Join(providerNames[:], ", "))
}

// Options configure a provider instance.
type Options struct {
	// HTTPClient is shared by all the requests of the run
	HTTPClient *http.Client

	// BaseURL overrides the service endpoint, mostly for tests and mirrors
	BaseURL string

	// Policy fields override the provider defaults when non-zero
	Policy Policy

	// APIKey authenticates against Google, and optionally ArcGIS
	APIKey string

	// Region biases Google results to a ccTLD such as "us"
	Region string
}

// New creates the provider for kind.
func New(kind ProviderKind, opts Options) (Provider, error) {
	switch kind {
	case Photon:
		return NewPhoton(opts), nil
	case Nominatim:
		return NewNominatim(opts), nil
	case ArcGIS:
		return NewArcGIS(opts), nil
	case Census:
		return NewCensus(opts), nil
	case Google:
		if opts.APIKey == "" {
			return nil, fmt.Errorf("google geocoder: %w", ErrMissingAPIKey)
		}

		return NewGoogleMapsGeocoder(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %d", int(kind))
	}
}
