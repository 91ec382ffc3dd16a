// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geoip

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/http"
)

const (
	APIEndpoint   = "https://reallyfreegeoip.org/json/"
	LookupTimeout = time.Second * 5
	name          = "geoip"
)

// GeolocationGeoIPProvider derives a coarse position from the public IP address. The accuracy
// depends on how much of the address hierarchy the API knows.
type GeolocationGeoIPProvider struct {
	source geobus.Source
	http   *http.Client
}

type APIResult struct {
	IP          string  `json:"ip"`
	CountryCode string  `json:"country_code"`
	Country     string  `json:"country_name"`
	RegionCode  string  `json:"region_code,omitempty"`
	Region      string  `json:"region_name,omitempty"`
	City        string  `json:"city,omitempty"`
	ZipCode     string  `json:"zip_code,omitempty"`
	TimeZone    string  `json:"time_zone"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	MetroCode   int     `json:"metro_code"`
}

func NewGeolocationGeoIPProvider(client *http.Client) *GeolocationGeoIPProvider {
	provider := &GeolocationGeoIPProvider{
		source: geobus.Source{Name: name, Period: time.Minute * 30, TTL: time.Hour},
		http:   client,
	}
	provider.source.Locate = provider.locate
	return provider
}

func (p *GeolocationGeoIPProvider) Name() string {
	return p.source.Name
}

func (p *GeolocationGeoIPProvider) LookupStream(ctx context.Context, key string) <-chan geobus.Result {
	return p.source.Poll(ctx, key)
}

func (p *GeolocationGeoIPProvider) locate(ctx context.Context) (geobus.Coordinate, float64, error) {
	result := new(APIResult)
	if _, err := p.http.GetWithTimeout(ctx, APIEndpoint, result, nil, nil, LookupTimeout); err != nil {
		return geobus.Coordinate{}, 0, fmt.Errorf("failed to get geolocation data from API: %w", err)
	}

	pos, err := geobus.NewCoordinate(geobus.Truncate(result.Latitude, geobus.TruncPrecision),
		geobus.Truncate(result.Longitude, geobus.TruncPrecision))
	if err != nil {
		return geobus.Coordinate{}, 0, err
	}
	return pos, result.accuracy(), nil
}

// accuracy estimates the precision from the most specific address component present.
func (r *APIResult) accuracy() float64 {
	switch {
	case r.ZipCode != "":
		return geobus.AccuracyZip
	case r.City != "":
		return geobus.AccuracyCity
	case r.RegionCode != "":
		return geobus.AccuracyRegion
	case r.CountryCode != "":
		return geobus.AccuracyCountry
	default:
		return geobus.AccuracyUnknown
	}
}
