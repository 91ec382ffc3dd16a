// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Encode renders v as a GeoJSON FeatureCollection. Every marker becomes a Point feature with
// the properties index, title and user. The camera is added as the foreign member "camera".
func Encode(v View) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for i, m := range v.Markers {
		feature := geojson.NewFeature(orb.Point{m.Position.Lon, m.Position.Lat})
		feature.Properties["index"] = i
		feature.Properties["title"] = m.Title
		feature.Properties["user"] = m.User
		fc.Append(feature)
	}
	fc.ExtraMembers = geojson.Properties{
		"camera": map[string]any{
			"center": []float64{v.Camera.Center.Lon, v.Camera.Center.Lat},
			"zoom":   v.Camera.Zoom,
		},
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode map view: %w", err)
	}
	return data, nil
}
