// Copyright 2025 The GeoDist Authors
//
// SPDX-License-Identifier: Apache-2.0

// Package spatial holds coordinates and great-circle distances.
package spatial

import (
	"fmt"
	"math"
	"strings"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// Valid reports whether the point is inside the latitude/longitude ranges.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}

	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p Point) HaversineDistance(other Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}

// Unit is a length unit distances can be reported in.
type Unit int

const (
	Miles Unit = iota
	Kilometers
	Meters
)

var unitNames = map[Unit]string{
	Miles:      "miles",
	Kilometers: "km",
	Meters:     "meters",
}

// String returns the short name of the unit, used as column suffix.
func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}

	return fmt.Sprintf("Unit(%d)", int(u))
}

// meters returns how many meters one unit holds.
func (u Unit) meters() float64 {
	switch u {
	case Kilometers:
		return 1000
	case Meters:
		return 1
	default:
		return 1609.344
	}
}

// ParseUnit accepts the unit names plus a few common aliases.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mi", "mile", "miles":
		return Miles, nil
	case "km", "kilometer", "kilometers", "kilometre", "kilometres":
		return Kilometers, nil
	case "m", "meter", "meters", "metre", "metres":
		return Meters, nil
	}

	return Miles, fmt.Errorf("unknown distance unit %q", s)
}

// Distance returns the great-circle distance between p and q in the given unit.
func Distance(p, q Point, unit Unit) float64 {
	return p.HaversineDistance(q) / unit.meters()
}
