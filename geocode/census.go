// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/url"
)

const censusBaseURL = "https://geocoding.geo.census.gov"

// CensusGeocoder uses the US Census Bureau geocoder. It only knows US
// addresses but needs no key.
type CensusGeocoder struct {
	httpProvider
}

// NewCensus creates a Census geocoder.
func NewCensus(opts Options) *CensusGeocoder {
	return &CensusGeocoder{newHTTPProvider(Census.String(), censusBaseURL, opts, Census.DefaultPolicy())}
}

type censusResponse struct {
	Result struct {
		AddressMatches []struct {
			MatchedAddress string `json:"matchedAddress"`
			Coordinates    struct {
				X float64 `json:"x"`
				Y float64 `json:"y"`
			} `json:"coordinates"`
		} `json:"addressMatches"`
	} `json:"result"`
}

func (g *CensusGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("address", query)
	params.Set("benchmark", "Public_AR_Current")
	params.Set("format", "json")

	var resp censusResponse
	if err := g.getJSON(ctx, "/geocoder/locations/onelineaddress", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Result.AddressMatches) == 0 {
		return nil, notFound(query)
	}

	match := resp.Result.AddressMatches[0]

	return &GeocodingResult{
		Latitude:    match.Coordinates.Y,
		Longitude:   match.Coordinates.X,
		Confidence:  "high",
		Provider:    g.name,
		DisplayName: match.MatchedAddress,
	}, nil
}
