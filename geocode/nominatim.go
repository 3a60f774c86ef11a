// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/url"
	"strconv"
)

const nominatimBaseURL = "https://nominatim.openstreetmap.org"

// NominatimGeocoder uses the OpenStreetMap Nominatim search API.
type NominatimGeocoder struct {
	httpProvider
}

// NewNominatim creates a Nominatim geocoder.
func NewNominatim(opts Options) *NominatimGeocoder {
	return &NominatimGeocoder{newHTTPProvider(Nominatim.String(), nominatimBaseURL, opts, Nominatim.DefaultPolicy())}
}

type nominatimPlace struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	AddressType string  `json:"addresstype"`
}

func (g *NominatimGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	var places []nominatimPlace
	if err := g.getJSON(ctx, "/search", params, &places); err != nil {
		return nil, err
	}

	if len(places) == 0 {
		return nil, notFound(query)
	}

	place := places[0]

	lat, err := strconv.ParseFloat(place.Lat, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "parsing latitude", Err: err}
	}

	lng, err := strconv.ParseFloat(place.Lon, 64)
	if err != nil {
		return nil, &GeocodingError{Type: ErrorTypeUnknown, Message: "parsing longitude", Err: err}
	}

	confidence := "low"

	switch place.AddressType {
	case "building", "house", "place":
		confidence = "high"
	case "road":
		confidence = "medium"
	}

	return &GeocodingResult{
		Latitude:    lat,
		Longitude:   lng,
		Confidence:  confidence,
		Provider:    g.name,
		DisplayName: place.DisplayName,
	}, nil
}
