// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/geomarker/internal/geobus"
)

// NotFoundText is displayed for every lookup that did not produce an address.
const NotFoundText = "Address not found"

var (
	ErrNotFound          = errors.New("address not found")
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// Address is a reverse geocoding result. Lines holds the address lines in display order; an
// Address without lines counts as not found.
type Address struct {
	Latitude     float64
	Longitude    float64
	DisplayName  string
	Country      string
	State        string
	Municipality string
	CityDistrict string
	Postcode     string
	City         string
	Suburb       string
	Street       string
	HouseNumber  string
	Lines        []string
}

// Found reports whether the address has at least one line.
func (a *Address) Found() bool {
	return a != nil && len(a.Lines) > 0
}

// ComposeLines derives the address lines from the structured fields: street and house
// number, postcode and city, country. Without any of those the display name is the only line.
func (a *Address) ComposeLines() []string {
	var lines []string
	if line := joinNonEmpty(" ", a.Street, a.HouseNumber); line != "" {
		lines = append(lines, line)
	}
	if line := joinNonEmpty(" ", a.Postcode, a.City); line != "" {
		lines = append(lines, line)
	}
	if a.Country != "" {
		lines = append(lines, a.Country)
	}
	if len(lines) == 0 && strings.TrimSpace(a.DisplayName) != "" {
		lines = append(lines, strings.TrimSpace(a.DisplayName))
	}
	return lines
}

// FormatAddress joins the address lines with ", ". A nil address or one without lines yields
// NotFoundText.
func FormatAddress(a *Address) string {
	if !a.Found() {
		return NotFoundText
	}
	return strings.Join(a.Lines, ", ")
}

// Geocoder resolves a coordinate to the single best matching address.
type Geocoder interface {
	Name() string
	Reverse(ctx context.Context, coords geobus.Coordinate) (Address, error)
}

// ProviderError is returned for lookups that failed for any reason other than an unknown
// address.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("geocoder %s failed: %s", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func joinNonEmpty(sep string, parts ...string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			filtered = append(filtered, part)
		}
	}
	return strings.Join(filtered, sep)
}
