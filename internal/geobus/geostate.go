// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geobus

import "math"

// GeolocationState remembers the last fix a source emitted, so that sources only publish
// when something actually changed.
type GeolocationState struct {
	last     Coordinate
	lastAcc  float64
	haveLast bool
}

// HasChanged reports whether pos/acc differ enough from the last recorded fix to be emitted.
// The first fix always counts as a change.
func (s *GeolocationState) HasChanged(pos Coordinate, acc float64) bool {
	if !s.haveLast {
		return true
	}
	if s.last.DistanceTo(pos) > MovementThreshold {
		return true
	}
	return math.Abs(s.lastAcc-acc) > AccuracyThreshold
}

// Update records pos/acc as the last emitted fix.
func (s *GeolocationState) Update(pos Coordinate, acc float64) {
	s.last = pos
	s.lastAcc = acc
	s.haveLast = true
}
