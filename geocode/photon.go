// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

package geocode

import (
	"context"
	"net/url"
	"strings"
)

const photonBaseURL = "https://photon.komoot.io"

// PhotonGeocoder uses the Photon search API, backed by OpenStreetMap data.
type PhotonGeocoder struct {
	httpProvider
}

// NewPhoton creates a Photon geocoder.
func NewPhoton(opts Options) *PhotonGeocoder {
	return &PhotonGeocoder{newHTTPProvider(Photon.String(), photonBaseURL, opts, Photon.DefaultPolicy())}
}

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // lon, lat
		} `json:"geometry"`
		Properties struct {
			Type        string `json:"type"`
			Name        string `json:"name"`
			HouseNumber string `json:"housenumber"`
			Street      string `json:"street"`
			City        string `json:"city"`
			State       string `json:"state"`
			Postcode    string `json:"postcode"`
			Country     string `json:"country"`
		} `json:"properties"`
	} `json:"features"`
}

func (g *PhotonGeocoder) Geocode(ctx context.Context, query string) (*GeocodingResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", "1")

	var resp photonResponse
	if err := g.getJSON(ctx, "/api/", params, &resp); err != nil {
		return nil, err
	}

	if len(resp.Features) == 0 || len(resp.Features[0].Geometry.Coordinates) < 2 {
		return nil, notFound(query)
	}

	feature := resp.Features[0]
	props := feature.Properties

	confidence := "low"

	switch props.Type {
	case "house":
		confidence = "high"
	case "street":
		confidence = "medium"
	}

	var parts []string

	street := strings.TrimSpace(props.HouseNumber + " " + props.Street)
	for _, s := range []string{props.Name, street, props.City, props.State, props.Postcode, props.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}

	return &GeocodingResult{
		Latitude:    feature.Geometry.Coordinates[1],
		Longitude:   feature.Geometry.Coordinates[0],
		Confidence:  confidence,
		Provider:    g.name,
		DisplayName: strings.Join(parts, ", "),
	}, nil
}
