// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"context"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/marker"
)

const DefaultZoom = 5

// Camera is the visible map section.
type Camera struct {
	Center geobus.Coordinate
	Zoom   float64
}

// View is everything a renderer needs to draw the map.
type View struct {
	Camera  Camera
	Markers []marker.Marker
}

// Renderer draws a View.
type Renderer interface {
	Render(ctx context.Context, v View) error
}

// TapHandler receives taps on the rendered map.
type TapHandler interface {
	MapTap(c geobus.Coordinate)
	MarkerTap(index int)
}

// EventHandler receives taps and lifecycle changes from a map frontend.
type EventHandler interface {
	TapHandler
	Foreground()
	Background()
}
