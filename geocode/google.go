// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"net/url"
)

const googleBaseURL = "https://maps.googleapis.com"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	httpProvider

	apiKey string
	region string
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(opts Options) *GoogleMapsGeocoder {
	return &GoogleMapsGeocoder{
		httpProvider: newHTTPProvider(Google.String(), googleBaseURL, opts, Google.DefaultPolicy()),
		apiKey:       opts.APIKey,
		region:       opts.Region,
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"` // OK, ZERO_RESULTS, etc.
	ErrorMessage string `json:"error_message"`
}

func (g *GoogleMapsGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("key", g.apiKey)

	if g.region != "" {
		params.Set("region", g.region)
	}

	var gmResp googleMapsResponse
	if err := g.getJSON(ctx, "/maps/api/geocode/json", params, &gmResp); err != nil {
		return nil, err
	}

	if err := googleStatusError(gmResp.Status, gmResp.ErrorMessage, query); err != nil {
		return nil, err
	}

	if len(gmResp.Results) == 0 {
		return nil, notFound(query)
	}

	result := gmResp.Results[0]

	// Determine confidence based on location_type
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP", "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	}

	return &GeocodingResult{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Confidence:  confidence,
		Provider:    g.name,
		DisplayName: result.FormattedAddress,
	}, nil
}

// googleStatusError maps the status field, which carries errors on HTTP 200.
func googleStatusError(status, message, query string) error {
	var t ErrorType

	switch status {
	case "OK":
		return nil
	case "ZERO_RESULTS":
		return notFound(query)
	case "OVER_QUERY_LIMIT":
		t = ErrorTypeRateLimit
	case "OVER_DAILY_LIMIT", "REQUEST_DENIED":
		t = ErrorTypeQuotaExceeded
	case "INVALID_REQUEST":
		t = ErrorTypeInvalidRequest
	case "UNKNOWN_ERROR":
		t = ErrorTypeServer
	default:
		t = ErrorTypeUnknown
	}

	geoErr := &GeocodingError{Type: t, Message: fmt.Sprintf("google maps status: %s", status)}
	if message != "" {
		geoErr.Message += " (" + message + ")"
	}

	return geoErr
}
