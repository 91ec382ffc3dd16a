// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package marker

import (
	"errors"
	"fmt"

	"github.com/wneessen/geomarker/internal/geobus"
)

var ErrOutOfRange = errors.New("marker index out of range")

// Marker is a titled point on the map. Its identity is its index in the Store.
type Marker struct {
	Position geobus.Coordinate
	Title    string
	User     bool
}

// Store is the ordered, append-only list of markers of one screen. Once a fix was received,
// index 0 holds the user's marker. A Store is not safe for concurrent use.
type Store struct {
	userTitle string
	dropTitle string
	markers   []Marker
}

func NewStore(userTitle, dropTitle string) *Store {
	return &Store{userTitle: userTitle, dropTitle: dropTitle}
}

// SetUser places the user's marker at c. The first call inserts it at index 0, later calls
// move it.
func (s *Store) SetUser(c geobus.Coordinate) {
	user := Marker{Position: c, Title: s.userTitle, User: true}
	if s.HasUser() {
		s.markers[0] = user
		return
	}
	s.markers = append([]Marker{user}, s.markers...)
}

// Add appends a dropped marker at c and returns its index.
func (s *Store) Add(c geobus.Coordinate) int {
	s.markers = append(s.markers, Marker{Position: c, Title: s.dropTitle})
	return len(s.markers) - 1
}

func (s *Store) Get(i int) (Marker, error) {
	if i < 0 || i >= len(s.markers) {
		return Marker{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, i, len(s.markers))
	}
	return s.markers[i], nil
}

// Markers returns a copy of all markers in insertion order.
func (s *Store) Markers() []Marker {
	out := make([]Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

func (s *Store) Len() int {
	return len(s.markers)
}

func (s *Store) HasUser() bool {
	return len(s.markers) > 0 && s.markers[0].User
}
