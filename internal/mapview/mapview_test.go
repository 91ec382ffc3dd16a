// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package mapview

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wneessen/geomarker/internal/geobus"
	"github.com/wneessen/geomarker/internal/logger"
	"github.com/wneessen/geomarker/internal/marker"
)

func testView() View {
	user := geobus.Coordinate{Lat: 51.5237, Lon: -0.1585}
	return View{
		Camera: Camera{Center: user, Zoom: DefaultZoom},
		Markers: []marker.Marker{
			{Position: user, Title: "Your location", User: true},
			{Position: geobus.Coordinate{Lat: 48.8584, Lon: 2.2945}, Title: "Dropped marker"},
		},
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode(testView())
	if err != nil {
		t.Fatalf("failed to encode view: %s", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("failed to decode GeoJSON: %s", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("expected 2 features, got %d", len(fc.Features))
	}
	point, ok := fc.Features[1].Geometry.(orb.Point)
	if !ok {
		t.Fatalf("expected point geometry, got %T", fc.Features[1].Geometry)
	}
	if point.Lon() != 2.2945 || point.Lat() != 48.8584 {
		t.Errorf("expected GeoJSON coordinates in lon/lat order, got %v", point)
	}
	if fc.Features[0].Properties.MustBool("user") != true {
		t.Error("expected first feature to be the user marker")
	}
	if fc.Features[1].Properties.MustInt("index") != 1 {
		t.Errorf("expected index 1, got %v", fc.Features[1].Properties["index"])
	}
	if fc.Features[1].Properties.MustString("title") != "Dropped marker" {
		t.Errorf("unexpected title: %v", fc.Features[1].Properties["title"])
	}

	var doc struct {
		Camera struct {
			Center []float64 `json:"center"`
			Zoom   float64   `json:"zoom"`
		} `json:"camera"`
	}
	if err = json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("failed to decode camera: %s", err)
	}
	if doc.Camera.Zoom != DefaultZoom || len(doc.Camera.Center) != 2 || doc.Camera.Center[1] != 51.5237 {
		t.Errorf("unexpected camera: %+v", doc.Camera)
	}
}

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"map tap", `{"type":"map_tap","lat":1.5,"lon":2.5}`, EventMapTap, false},
		{"marker tap", `{"type":"marker_tap","index":0}`, EventMarkerTap, false},
		{"foreground", `{"type":"foreground"}`, EventForeground, false},
		{"background", `{"type":"background"}`, EventBackground, false},
		{"map tap without coordinates", `{"type":"map_tap","lat":1.5}`, "", true},
		{"marker tap without index", `{"type":"marker_tap"}`, "", true},
		{"negative index", `{"type":"marker_tap","index":-1}`, "", true},
		{"unknown type", `{"type":"zoom"}`, "", true},
		{"broken JSON", `{"type":`, "", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			event, err := DecodeEvent([]byte(tc.data))
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Fatalf("expected error to be %s, got %v", ErrInvalidEvent, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("failed to decode event: %s", err)
			}
			if event.Type != tc.want {
				t.Errorf("expected type %s, got %s", tc.want, event.Type)
			}
		})
	}
}

func TestReadEvents(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"map_tap","lat":1,"lon":2}`,
		``,
		`not json`,
		`{"type":"marker_tap","index":3}`,
		`{"type":"background"}`,
		`{"type":"foreground"}`,
	}, "\n")
	handler := &recordingHandler{}
	if err := ReadEvents(strings.NewReader(input), handler, testLogger()); err != nil {
		t.Fatalf("failed to read events: %s", err)
	}
	want := []string{"map_tap 1.000000,2.000000", "marker_tap 3", "background", "foreground"}
	got := handler.Events()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("expected events %q, got %q", want, got)
	}
}

func TestStream_Render(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	stream := NewStream(buf)
	for i := 0; i < 2; i++ {
		if err := stream.Render(t.Context(), testView()); err != nil {
			t.Fatalf("failed to render view: %s", err)
		}
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(lines))
	}
	for _, line := range lines {
		if _, err := geojson.UnmarshalFeatureCollection([]byte(line)); err != nil {
			t.Errorf("expected each line to be a GeoJSON document: %s", err)
		}
	}
}

type recordingHandler struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingHandler) record(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingHandler) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingHandler) MapTap(c geobus.Coordinate) { r.record("map_tap " + c.String()) }
func (r *recordingHandler) MarkerTap(index int)        { r.record("marker_tap " + strconv.Itoa(index)) }
func (r *recordingHandler) Foreground()                { r.record("foreground") }
func (r *recordingHandler) Background()                { r.record("background") }

func testLogger() *logger.Logger {
	return logger.NewLogger(slog.LevelDebug, io.Discard)
}
