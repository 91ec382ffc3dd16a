// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import (
	"errors"
	"fmt"
	"math"
)

const (
	EarthRadius = 6371000.0 // meters

	// MovementThreshold is the distance in meters below which two fixes are considered the
	// same position.
	MovementThreshold = 1.0

	// AccuracyThreshold is the accuracy change in meters that makes an otherwise unchanged
	// fix worth reporting again.
	AccuracyThreshold = 50.0
)

var ErrInvalidCoordinate = errors.New("coordinate out of range")

// Coordinate is a WGS84 latitude/longitude pair. It is a value type and never modified
// once created.
type Coordinate struct {
	Lat float64
	Lon float64
}

// NewCoordinate returns a Coordinate for lat and lon or ErrInvalidCoordinate if either value
// is out of range.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	c := Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("%w: %s", ErrInvalidCoordinate, c)
	}
	return c, nil
}

// Valid checks if the coordinate is valid according to the EPSG:4326 ranges.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// DistanceTo returns the great-circle distance to other in meters (haversine).
func (c Coordinate) DistanceTo(other Coordinate) float64 {
	dLat := (other.Lat - c.Lat) * math.Pi / 180
	dLon := (other.Lon - c.Lon) * math.Pi / 180
	lat1 := c.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadius * math.Asin(math.Sqrt(h))
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}
