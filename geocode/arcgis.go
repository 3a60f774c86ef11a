// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const arcgisBaseURL = "https://geocode.arcgis.com"

// ArcGISGeocoder uses the ArcGIS World Geocoding Service.
type ArcGISGeocoder struct {
	httpProvider

	token string
}

// NewArcGIS creates an ArcGIS geocoder. The API key is optional.
func NewArcGIS(opts Options) *ArcGISGeocoder {
	return &ArcGISGeocoder{
		httpProvider: newHTTPProvider(ArcGIS.String(), arcgisBaseURL, opts, ArcGIS.DefaultPolicy()),
		token:        opts.APIKey,
	}
}

type arcgisResponse struct {
	Candidates []struct {
		Address  string `json:"address"`
		Location struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"location"`
		Score float64 `json:"score"`
	} `json:"candidates"`
	Error *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func (g *ArcGISGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("SingleLine", query)
	params.Set("f", "json")
	params.Set("maxLocations", "1")

	if g.token != "" {
		params.Set("token", g.token)
	}

	var resp arcgisResponse
	if err := g.getJSON(ctx, "/arcgis/rest/services/World/GeocodeServer/findAddressCandidates", params, &resp); err != nil {
		return nil, err
	}

	// errors come back with HTTP 200 and an error object
	if resp.Error != nil {
		geoErr := ClassifyHTTPError(resp.Error.Code, strings.Join(resp.Error.Details, "; "))

		switch resp.Error.Code {
		case 498, 499:
			geoErr.Type = ErrorTypeQuotaExceeded
		}

		geoErr.Message = fmt.Sprintf("arcgis error %d: %s", resp.Error.Code, resp.Error.Message)

		return nil, geoErr
	}

	if len(resp.Candidates) == 0 {
		return nil, notFound(query)
	}

	candidate := resp.Candidates[0]

	confidence := "low"

	switch {
	case candidate.Score >= 90:
		confidence = "high"
	case candidate.Score >= 70:
		confidence = "medium"
	}

	return &GeocodingResult{
		Latitude:    candidate.Location.Y,
		Longitude:   candidate.Location.X,
		Confidence:  confidence,
		Provider:    g.name,
		DisplayName: candidate.Address,
	}, nil
}
